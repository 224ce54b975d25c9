package session

import (
	"bytes"

	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/stream"
	"github.com/saitolume/hqmcast/varint"
)

func appendVarint(b []byte, v uint64) []byte {
	var buf bytes.Buffer
	varint.Write(&buf, v)
	return append(b, buf.Bytes()...)
}

// dispatchPushPromise decodes a PUSH_PROMISE frame body, matches it
// against GOAWAY-pushed sentinel headers, and invokes OnBeginPromise
// (spec §4.4 submit_push_promise / spec §6 on_begin_promise).
func (s *Session) dispatchPushPromise(pushID uint64, compressed []byte) error {
	fields, err := s.headerAdapter.Decompress(compressed)
	if err != nil {
		return herr.Newf(herr.HeaderCompressFailure, "push promise %d: %v", pushID, err)
	}
	if isGoawayPush(fields) {
		s.scheduleClose(herr.OK)
		return nil
	}
	if s.callbacks.OnBeginPromise == nil {
		return nil
	}
	promisedUser, err := s.callbacks.OnBeginPromise(nil, pushID, fields)
	if err != nil {
		return err
	}
	s.promises[pushID] = &promise{pushID: pushID, promised: promisedUser}
	return nil
}

func isGoawayPush(fields []headers.Field) bool {
	var path, conn string
	for _, f := range fields {
		switch f.Name {
		case headers.PseudoPath:
			path = f.Value
		case "connection":
			conn = f.Value
		}
	}
	return path == "goaway" && conn == "close"
}

// SubmitPushPromise allocates the next push id, records a promise, and
// queues a PUSH_PROMISE frame on the initiating stream's send buffer
// (spec §4.4 submit_push_promise, server only).
func (s *Session) SubmitPushPromise(initUserData any, fields []headers.Field, promisedUserData any) (pushID uint64, err error) {
	if s.role != RoleServer {
		return 0, herr.New(herr.BadUserData, "submit_push_promise is server-only")
	}
	if s.nextPushID >= s.maxPushPromise {
		return 0, herr.New(herr.PushLimitReached, "push id ceiling reached")
	}
	initID, ok := s.userDataStream[initUserData]
	if !ok {
		return 0, herr.New(herr.BadUserData, "unknown init_user_data")
	}
	initStream, ok := s.transfers[initID]
	if !ok {
		return 0, herr.New(herr.BadUserData, "unknown initiating stream")
	}

	compressed, err := s.headerAdapter.Compress(fields)
	if err != nil {
		return 0, herr.Newf(herr.HeaderCompressFailure, "submit_push_promise: %v", err)
	}

	pushID = s.nextPushID
	s.nextPushID++
	s.promises[pushID] = &promise{pushID: pushID, initUser: initUserData, promised: promisedUserData}
	s.pendingPromise[promisedUserData] = pushID

	initStream.QueueSend(frame.EncodePushPromise(pushID, compressed), false)
	return pushID, nil
}

// beginPromisedStream opens the unidirectional stream for a promise once
// the server starts feeding it headers (spec §4.4: "The promised stream
// is opened later, on the first feed_headers addressed at the promised
// user_data").
func (s *Session) beginPromisedStream(promisedUserData any) (uint64, error) {
	pushID, ok := s.pendingPromise[promisedUserData]
	if !ok {
		return 0, herr.New(herr.BadUserData, "no pending promise for user_data")
	}
	id, err := s.transport.OpenUniStream()
	if err != nil {
		return 0, herr.Newf(herr.TransportError, "open promised stream: %v", err)
	}
	st := stream.New(s.headerAdapter, s.onHeadersFor(uint64(id)), s.onDataFor(uint64(id)))
	st.UserData = promisedUserData
	s.registerStream(uint64(id), st)
	s.userDataStream[promisedUserData] = uint64(id)
	delete(s.pendingPromise, promisedUserData)

	var prefix []byte
	prefix = appendVarint(prefix, pushID)
	st.QueueSend(prefix, false)

	if p, ok := s.promises[pushID]; ok {
		sid := uint64(id)
		p.streamID = &sid
		p.started = true
	}
	return uint64(id), nil
}

// cancelPush emits a CANCEL_PUSH frame for a promise (spec §6 on_push_cancel,
// SPEC_FULL §6 supplemented "end_request on a not-yet-started promise").
func (s *Session) cancelPush(pushID uint64) error {
	p, ok := s.promises[pushID]
	if !ok {
		return herr.Newf(herr.BadUserData, "unknown push id %d", pushID)
	}
	if p.canceled {
		return nil
	}
	p.canceled = true
	ctrl, ok := s.controlStream()
	if !ok {
		return herr.New(herr.InternalError, "no control stream for CANCEL_PUSH")
	}
	ctrl.QueueSend(frame.EncodeCancelPush(pushID), false)
	if s.callbacks.OnPushCancel != nil {
		s.callbacks.OnPushCancel(pushID)
	}
	return nil
}

func (s *Session) controlStream() (*stream.Stream, bool) {
	var id uint64
	if s.role == RoleServer {
		id = serverControlStreamID
	} else {
		id = clientControlStreamID
	}
	st, ok := s.transfers[id]
	return st, ok
}
