package session

import (
	"time"

	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/stream"
	"github.com/saitolume/hqmcast/transport"
	"github.com/saitolume/hqmcast/varint"
)

func streamIDOf(id uint64) transport.StreamID { return transport.StreamID(id) }

// pushStreamPrefix buffers the leading varint push id that precedes the
// frame sequence on a freshly-opened promised response stream (spec §4.4
// "the promised stream is opened later... on the first feed_headers",
// mirrored on the receive side: the pushed stream's first bytes name
// which promise it fulfils).
type pushStreamPrefix struct {
	buf []byte
}

func (p *pushStreamPrefix) feed(data []byte) (pushID uint64, rest []byte, ok bool) {
	p.buf = append(p.buf, data...)
	id, n, err := varint.Append(p.buf)
	if err != nil {
		return 0, nil, false
	}
	return id, p.buf[n:], true
}

// Recv applies one incoming datagram: feeds it to the transport, accepts
// any newly peer-opened streams, drains newly-arrived stream byte ranges
// into each stream's reassembler, and reconciles the two transport
// timers (spec §4.3 stage 1, §4.6). This is the Go-native shape of the
// abstract session_recv operation (spec §6): the host passes the packet
// bytes directly rather than the engine pulling them through a recv
// callback.
func (s *Session) Recv(pkt []byte, now time.Time) error {
	if s.closed {
		return herr.New(herr.SessionClosed, "session closed")
	}

	if err := s.transport.ReadPacket(pkt); err != nil {
		if re, ok := err.(interface{ Recoverable() bool }); ok && re.Recoverable() {
			return herr.New(herr.NoMoreData, err.Error())
		}
		return herr.Newf(herr.TransportProtocol, "read_pkt: %v", err)
	}

	for {
		id, ok := s.transport.AcceptStream()
		if !ok {
			break
		}
		s.acceptStream(uint64(id))
	}

	for _, ev := range s.transport.PollStreamData() {
		if err := s.deliverStreamEvent(uint64(ev.ID), ev.Offset, ev.Data, ev.Fin); err != nil {
			if rerr := s.resetOnStreamError(uint64(ev.ID), err); rerr != nil {
				return rerr
			}
		}
	}

	return s.reconcileTimers(now)
}

// deliverStreamEvent routes one newly-arrived stream byte range to the
// right destination: the push relay's raw reassembler for stream 4, a
// pending push-id prefix buffer for a not-yet-resolved promised stream,
// or an ordinary stream.Stream.
func (s *Session) deliverStreamEvent(id, offset uint64, data []byte, fin bool) error {
	if id == pushPromiseStreamID {
		return s.pushRelay.Insert(offset, data, fin)
	}

	st, ok := s.transfers[id]
	if !ok {
		s.acceptStream(id)
	}

	if pending, isPending := s.pendingPushStreams[id]; isPending {
		pushID, rest, resolved := pending.feed(data)
		if !resolved {
			return nil
		}
		delete(s.pendingPushStreams, id)
		st = s.resolvePushStream(id, pushID)
		if st == nil || len(rest) == 0 {
			return nil
		}
		return st.InsertRecv(0, rest, fin)
	}

	if !ok {
		return nil
	}
	return st.InsertRecv(offset, data, fin)
}

// acceptStream registers a newly peer-opened stream. Stream 4 is the
// fixed multicast push-promise relay (already wired in newSession); any
// other peer-opened unidirectional stream is assumed to be a promised
// response stream whose push id is still to be read off its first bytes
// (spec §4.3's stream-4 special case covers the relay; ordinary promised
// streams carry their own push-id prefix per spec §4.4).
func (s *Session) acceptStream(id uint64) {
	if id == pushPromiseStreamID {
		return
	}
	if _, ok := s.transfers[id]; ok {
		return
	}
	if s.pendingPushStreams == nil {
		s.pendingPushStreams = make(map[uint64]*pushStreamPrefix)
	}
	if _, ok := s.pendingPushStreams[id]; !ok {
		s.pendingPushStreams[id] = &pushStreamPrefix{}
	}
}

// resolvePushStream finishes wiring a promised response stream once its
// leading push id has been read, matching it against the promises table.
func (s *Session) resolvePushStream(id, pushID uint64) *stream.Stream {
	p, ok := s.promises[pushID]
	if !ok {
		return nil
	}
	st := stream.New(s.headerAdapter, s.onHeadersFor(id), s.onDataFor(id))
	st.UserData = p.promised
	s.registerStream(id, st)
	s.userDataStream[p.promised] = id
	sid := id
	p.streamID = &sid
	p.started = true
	return st
}

func (s *Session) resetOnStreamError(id uint64, err error) error {
	he, ok := err.(*herr.Error)
	if !ok {
		return herr.Newf(herr.InternalError, "stream %d: %v", id, err)
	}
	if he.IsFatal() {
		return he
	}
	if shutdownErr := s.transport.ShutdownStream(streamIDOf(id), uint64(he.Code)); shutdownErr != nil {
		streamErr := &herr.StreamError{StreamID: id, Code: he.Code}
		s.logger.Errorf("%s: %v", streamErr, shutdownErr)
	}
	if st, ok := s.transfers[id]; ok && s.callbacks.OnRequestClose != nil {
		s.callbacks.OnRequestClose(st.UserData, he.Code)
	}
	delete(s.transfers, id)
	return nil
}
