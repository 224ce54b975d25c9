package session

import (
	"sort"

	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/stream"
	"github.com/saitolume/hqmcast/transport"
)

// SubmitRequest opens a bidirectional stream, queues a HEADERS frame, and
// optionally DATA and a fin (spec §4.4 submit_request, client only).
func (s *Session) SubmitRequest(fields []headers.Field, body []byte, final bool, userData any) error {
	if s.role != RoleClient {
		return herr.New(herr.BadUserData, "submit_request is client-only")
	}
	if s.settings.maxConcurrentRequests > 0 && s.concurrentRequests >= s.settings.maxConcurrentRequests {
		return herr.New(herr.PushLimitReached, "max_concurrent_requests reached")
	}

	id, err := s.transport.OpenBidiStream()
	if err != nil {
		return herr.Newf(herr.TransportError, "open_bidi_stream: %v", err)
	}

	st := stream.New(s.headerAdapter, s.onHeadersFor(uint64(id)), s.onDataFor(uint64(id)))
	st.UserData = userData
	s.registerStream(uint64(id), st)
	s.userDataStream[userData] = uint64(id)
	s.concurrentRequests++

	hasBody := len(body) > 0
	if err := st.AdvanceSendHeaders(headers.HasTrailerField(fields)); err != nil {
		return err
	}
	compressed, err := s.headerAdapter.Compress(fields)
	if err != nil {
		return herr.Newf(herr.HeaderCompressFailure, "submit_request: %v", err)
	}
	st.QueueSend(frame.EncodeHeaders(compressed), final && !hasBody)

	if hasBody {
		if err := st.AdvanceSendData(); err != nil {
			return err
		}
		st.QueueSend(frame.EncodeData(body), final)
	}
	if final {
		st.FinishSend()
	}
	return nil
}

// FeedHeaders resolves user_data to a stream (opening the promised
// stream on first use), advances the send state machine, and queues a
// HEADERS frame (spec §4.4 feed_headers).
func (s *Session) FeedHeaders(userData any, fields []headers.Field, final bool) error {
	st, err := s.streamForSend(userData)
	if err != nil {
		return err
	}

	if err := st.AdvanceSendHeaders(headers.HasTrailerField(fields)); err != nil {
		return err
	}
	compressed, err := s.headerAdapter.Compress(fields)
	if err != nil {
		return herr.Newf(herr.HeaderCompressFailure, "feed_headers: %v", err)
	}
	st.QueueSend(frame.EncodeHeaders(compressed), final)
	if final {
		st.FinishSend()
	}
	return nil
}

// FeedPayloadData encodes and queues a DATA frame (spec §4.4
// feed_payload_data), returning the number of bytes accepted.
func (s *Session) FeedPayloadData(userData any, data []byte, final bool) (int, error) {
	st, err := s.streamForSend(userData)
	if err != nil {
		return 0, err
	}
	if err := st.AdvanceSendData(); err != nil {
		return 0, err
	}
	st.QueueSend(frame.EncodeData(data), final)
	if final {
		st.FinishSend()
	}
	return len(data), nil
}

func (s *Session) streamForSend(userData any) (*stream.Stream, error) {
	id, ok := s.userDataStream[userData]
	if !ok {
		if _, pending := s.pendingPromise[userData]; pending {
			opened, err := s.beginPromisedStream(userData)
			if err != nil {
				return nil, err
			}
			id = opened
		} else {
			return nil, herr.New(herr.BadUserData, "unknown user_data")
		}
	}
	st, ok := s.transfers[id]
	if !ok {
		return nil, herr.New(herr.BadUserData, "stream for user_data no longer exists")
	}
	return st, nil
}

// EndRequest either shuts a started stream down with HTTP_NO_ERROR, or,
// if user_data names a not-yet-started push promise, emits CANCEL_PUSH on
// the control stream (spec §5 "Cancellation/timeouts").
func (s *Session) EndRequest(userData any) error {
	if id, ok := s.userDataStream[userData]; ok {
		if _, started := s.transfers[id]; started {
			if err := s.transport.ShutdownStream(transport.StreamID(id), uint64(herr.OK)); err != nil {
				return herr.Newf(herr.TransportError, "end_request shutdown: %v", err)
			}
			return nil
		}
	}
	if pushID, pending := s.pendingPromise[userData]; pending {
		return s.cancelPush(pushID)
	}
	return herr.New(herr.BadUserData, "end_request: unknown user_data")
}

// Send drains queued send buffers across all streams, in ascending
// stream-id order (spec §4.4, §9 fairness note: "the send scheduler
// currently services lower stream ids first").
func (s *Session) Send() error {
	ids := make([]uint64, 0, len(s.transfers))
	for id, st := range s.transfers {
		if len(st.SendQueue) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := s.sendStream(id); err != nil {
			return err
		}
	}

	if s.mode == ModeMulticast && s.role == RoleServer && s.fakeACK != nil {
		if err := s.generateFakeACK(); err != nil {
			return err
		}
	}
	return nil
}

// plannedSend is one buffer's tentative contribution to a packed chunk,
// recorded before the transport is asked to accept it so Step 4 can
// reconcile actual progress against what it reports consumed.
type plannedSend struct {
	buf  *stream.SendBuffer
	take int
}

func (s *Session) sendStream(id uint64) error {
	st := s.transfers[id]

	for len(st.SendQueue) > 0 {
		// Step 1: backpressure check, independent of any prior return
		// value (SPEC_FULL §5.5 / spec §9: the "rv == NGHQ_NO_MORE_DATA"
		// early-return bug is not reproduced here — this check alone
		// decides whether we yield).
		if s.transport.BytesInFlight() >= MaxBytesInFlight {
			return herr.New(herr.SessionBlocked, "bytes in flight over budget")
		}

		// Step 2: pack consecutive buffers up to the packet budget,
		// without advancing SendPos yet — the transport may only accept
		// a prefix of what was packed.
		budget := defaultMaxPacketSize - MinStreamPacketOverhead
		packed := make([]byte, 0, budget)
		var plan []plannedSend
		wouldFin := false
		preDrained := 0
		for _, buf := range st.SendQueue {
			remaining := buf.Remaining()
			if remaining == 0 {
				preDrained++
				continue
			}
			room := budget - len(packed)
			if room <= 0 {
				break
			}
			take := remaining
			if take > room {
				take = room
			}
			packed = append(packed, buf.Buf[buf.SendPos:buf.SendPos+take]...)
			plan = append(plan, plannedSend{buf: buf, take: take})
			if take == remaining && buf.Fin {
				wouldFin = true
			}
			if take < remaining {
				break
			}
		}
		if len(packed) == 0 && preDrained == 0 {
			return nil
		}

		drained := preDrained
		fin := false
		if len(packed) > 0 {
			// Step 3: hand the packed chunk to the transport.
			_, consumed, err := s.transport.WriteStream(transport.StreamID(id), packed, wouldFin)
			if err != nil {
				if re, ok := err.(transport.RecoverableError); ok && re.Recoverable() {
					return herr.New(herr.SessionBlocked, err.Error())
				}
				return herr.Newf(herr.TransportError, "write_stream: %v", err)
			}

			// Step 4: advance each planned buffer by only what the
			// transport actually consumed, not the full packed length —
			// a short write must not silently drop or duplicate stream
			// bytes.
			remainingConsumed := consumed
			for _, p := range plan {
				if remainingConsumed <= 0 {
					break
				}
				advance := p.take
				if advance > remainingConsumed {
					advance = remainingConsumed
				}
				p.buf.SendPos += advance
				remainingConsumed -= advance
				if p.buf.SendPos >= len(p.buf.Buf) {
					drained++
					if p.buf.Fin {
						fin = true
					}
				}
			}
		}

		// Pop fully-drained buffers.
		for drained > 0 && len(st.SendQueue) > 0 && st.SendQueue[0].Done() {
			st.PopSendBuffer()
			drained--
		}

		// Step 5: on the final buffer with fin set, close the request.
		if fin {
			st.FinishSend()
			if s.callbacks.OnRequestClose != nil {
				s.callbacks.OnRequestClose(st.UserData, herr.OK)
			}
			return nil
		}
	}
	return nil
}
