package session

import (
	"time"

	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/timeradapter"
)

// onLossDetectionTimer is the loss_timeout handler timeradapter.Reconcile
// invokes when the loss-detection expiry fires (spec §4.6).
func (s *Session) onLossDetectionTimer() error {
	return s.transport.OnLossDetectionTimer()
}

// onAckTimeout is the ack_timeout handler (spec §4.6: "ack_timeout calls
// write_pkt, likely producing a stand-alone ACK"): it asks the
// transport to flush its pending ACK into a packet. In multicast mode
// that packet still needs a loopback fake ACK of its own, exactly like
// the packets generateFakeACK drains after a send — mcast is the real
// driver here since nothing underneath it does loss detection on its
// own.
func (s *Session) onAckTimeout() error {
	pkt, ok, err := s.transport.WritePacket()
	if err != nil {
		return herr.Newf(herr.TransportError, "ack_timeout write_pkt: %v", err)
	}
	if !ok {
		return nil
	}
	return s.feedFakeACKFor(pkt)
}

// reconcileTimers reads the transport's two expiry timestamps and
// reconciles them against the engine's own armed timers (spec §4.6),
// called once per Recv after ReadPacket.
func (s *Session) reconcileTimers(now time.Time) error {
	if err := s.timers.Reconcile(timeradapter.KindLossDetection, s.transport.LossDetectionExpiry(), now); err != nil {
		return err
	}
	return s.timers.Reconcile(timeradapter.KindAckDelay, s.transport.AckDelayExpiry(), now)
}
