package session

import (
	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/stream"
)

// goawayHeaders are the sentinel PUSH_PROMISE headers
// the multicast profile's goaway uses (spec §4.7: ":method GET, :scheme
// http, :path goaway, connection close").
var goawayHeaders = []headers.Field{
	{Name: headers.PseudoMethod, Value: "GET"},
	{Name: headers.PseudoScheme, Value: "http"},
	{Name: headers.PseudoPath, Value: "goaway"},
	{Name: "connection", Value: "close"},
}

// Close implements spec §4.7: shuts down every stream from id 4 upward and
// reports REQUEST_CLOSED for each (herr has no separate cancellation
// code); in multicast server mode additionally submits the
// goaway push-promise and a matching response; in unicast mode asks the
// transport for a CONNECTION_CLOSE packet.
func (s *Session) Close(reason herr.Code) error {
	if s.closed {
		return nil
	}
	s.closed = true

	for id, st := range s.transfers {
		if id < 4 {
			continue
		}
		if err := s.transport.ShutdownStream(streamIDOf(id), uint64(herr.RequestClosed)); err != nil {
			s.logger.Errorf("close: shutdown stream %d: %v", id, err)
		}
		if s.callbacks.OnRequestClose != nil {
			s.callbacks.OnRequestClose(st.UserData, herr.RequestClosed)
		}
	}

	if s.mode == ModeMulticast && s.role == RoleServer {
		if err := s.sendGoawayPush(); err != nil {
			s.logger.Errorf("close: goaway push: %v", err)
		}
	}

	s.timers.CancelAll()

	if s.mode == ModeUnicast {
		if err := s.transport.Close(uint64(reason), reason.String()); err != nil {
			s.logger.Errorf("close: connection_close: %v", err)
		}
	}

	return nil
}

// goawayUserData is a private sentinel type so the goaway promise's
// user_data can never collide with a real application handle.
type goawayUserData struct{}

// sendGoawayPush directly constructs and queues the multicast goaway
// PUSH_PROMISE plus its matching response (spec §4.7), bypassing the
// ordinary SubmitPushPromise/FeedHeaders user_data bookkeeping since the
// goaway promise has no real initiating request behind it.
func (s *Session) sendGoawayPush() error {
	ctrl, ok := s.controlStream()
	if !ok {
		return herr.New(herr.InternalError, "no control stream for goaway push")
	}
	compressed, err := s.headerAdapter.Compress(goawayHeaders)
	if err != nil {
		return err
	}
	pushID := s.nextPushID
	s.nextPushID++
	ctrl.QueueSend(frame.EncodePushPromise(pushID, compressed), false)

	id, err := s.transport.OpenUniStream()
	if err != nil {
		return err
	}
	st := stream.New(s.headerAdapter, s.onHeadersFor(uint64(id)), s.onDataFor(uint64(id)))
	st.UserData = goawayUserData{}
	s.registerStream(uint64(id), st)

	var prefix []byte
	prefix = appendVarint(prefix, pushID)
	st.QueueSend(prefix, false)

	if err := st.AdvanceSendHeaders(false); err != nil {
		return err
	}
	st.QueueSend(frame.EncodeHeaders(compressed), true)
	st.FinishSend()
	return nil
}

// scheduleClose is invoked when the client's reassembler detects a
// multicast goaway push (spec §8 scenario 6). It closes the session, after
// which Recv returns SESSION_CLOSED; bytes already buffered in stream
// reassemblers are left in place, not flushed.
func (s *Session) scheduleClose(reason herr.Code) {
	_ = s.Close(reason)
}
