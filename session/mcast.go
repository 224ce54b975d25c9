package session

import (
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/mcast"
)

// generateFakeACK drains every packet the multicast sender just produced
// and feeds a synthesised ACK for each one back into the sender's own
// receive path, keeping the transport's loss-detection machinery
// quiescent (spec §4.5).
func (s *Session) generateFakeACK() error {
	for {
		pkt, ok, err := s.transport.WritePacket()
		if err != nil {
			return herr.Newf(herr.TransportError, "write_pkt: %v", err)
		}
		if !ok {
			return nil
		}
		if err := s.feedFakeACKFor(pkt); err != nil {
			return err
		}
	}
}

// feedFakeACKFor synthesises and loops back a fake ACK for one
// already-produced packet (spec §4.5). Shared by generateFakeACK's
// per-send drain and onAckTimeout's stand-alone-ACK case.
func (s *Session) feedFakeACKFor(pkt []byte) error {
	if s.fakeACK == nil || len(pkt) < 2 {
		return nil
	}
	hdr := mcast.PacketHeader{
		ConnID:          pkt[1 : min(len(pkt), 9)],
		TruncatedPktNum: uint64(pkt[len(pkt)-1]),
	}
	ack := s.fakeACK.Generate(hdr)
	if err := s.transport.ReadPacket(ack); err != nil {
		return herr.Newf(herr.TransportProtocol, "feed fake ack: %v", err)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
