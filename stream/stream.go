package stream

import (
	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/reassemble"
)

// SendBuffer is one queued outbound chunk (spec §3 "I/O buffer", send
// side). SendPos advances as the transport accepts bytes; Remaining is
// len(Buf) - SendPos.
type SendBuffer struct {
	Buf     []byte
	SendPos int
	Fin     bool
}

// Remaining reports the unconsumed tail of this send buffer.
func (b *SendBuffer) Remaining() int { return len(b.Buf) - b.SendPos }

// Done reports whether this send buffer has been fully drained.
func (b *SendBuffer) Done() bool { return b.SendPos >= len(b.Buf) }

// Stream is the per-transfer entity from spec §3. StreamID and PushID are
// pointers so they can represent "optional until the transport assigns
// one" without a magic sentinel value.
type Stream struct {
	StreamID *uint64
	PushID   *uint64

	RecvState State
	SendState State
	Flags     Flags

	// HeadersStarted reports whether the first HEADERS frame has been
	// delivered (spec §6 on_begin_headers fires exactly once, before the
	// first on_headers).
	HeadersStarted bool

	// UserData is the opaque application handle (spec §3).
	UserData any

	// Status is the terminal error code reported on close.
	Status herr.Code

	SendQueue []*SendBuffer

	reassembler *reassemble.Reassembler

	// headerAdapter is shared with the owning Session in the real
	// wiring; Stream keeps a reference so FeedHeaders/onHeaders can
	// compress/decompress without the caller threading it through every
	// call.
	headerAdapter *headers.Adapter

	trailerPromised bool
	pendingErr      error
}

// New constructs a Stream with fresh send/recv state machines, wiring its
// reassembler to dispatch back into this Stream's own state-machine
// transitions (dispatchFrame/advanceRecvOnData below), exactly the shape spec
// §4.3's "dispatches to handlers" describes.
func New(adapter *headers.Adapter, onHeaders func(fields []headers.Field, fin bool) error, onData func(bodyOffset uint64, data []byte, fin bool)) *Stream {
	s := &Stream{headerAdapter: adapter}
	s.reassembler = reassemble.New(reassemble.Handlers{
		OnData: func(bodyOffset uint64, data []byte, fin bool) {
			if err := s.advanceRecvOnData(); err != nil {
				s.pendingErr = err
				return
			}
			onData(bodyOffset, data, fin)
			if fin {
				s.RecvState = onFin(s.RecvState)
			}
		},
		OnFrame: func(typ frame.Type, payload []byte, fin bool) error {
			return s.dispatchFrame(typ, payload, fin, onHeaders)
		},
	})
	return s
}

// NewStreamFour is like New but uses the stream-4 earliest-offset
// extraction mode (spec §4.3's special case for the multicast
// push-promise stream).
func NewStreamFour(adapter *headers.Adapter, onHeaders func(fields []headers.Field, fin bool) error, onData func(bodyOffset uint64, data []byte, fin bool)) *Stream {
	s := New(adapter, onHeaders, onData)
	s.reassembler = reassemble.NewStreamFour(reassemble.Handlers{
		OnData: func(bodyOffset uint64, data []byte, fin bool) {
			onData(bodyOffset, data, fin)
		},
		OnFrame: func(typ frame.Type, payload []byte, fin bool) error {
			return s.dispatchFrame(typ, payload, fin, onHeaders)
		},
	})
	return s
}

func (s *Stream) advanceRecvOnData() error {
	next, err := onData(s.RecvState)
	if err != nil {
		return err
	}
	s.RecvState = next
	return nil
}

func (s *Stream) dispatchFrame(typ frame.Type, payload []byte, fin bool, deliver func(fields []headers.Field, fin bool) error) error {
	switch typ {
	case frame.TypeHeaders:
		trailerPromised := s.Flags&FlagTrailersPromised != 0
		next, serr := onHeaders(s.RecvState, trailerPromised)
		if serr != nil {
			return serr
		}
		s.RecvState = next
		fields, err := s.headerAdapter.Decompress(payload)
		if err != nil {
			return herr.New(herr.HeaderCompressFailure, err.Error())
		}
		if headers.HasTrailerField(fields) {
			s.Flags |= FlagTrailersPromised
			s.trailerPromised = true
		}
		if cberr := deliver(fields, fin); cberr != nil {
			return cberr
		}
		s.HeadersStarted = true
		if fin {
			s.RecvState = onFin(s.RecvState)
		}
		return nil
	default:
		// PRIORITY, SETTINGS, GOAWAY, MAX_PUSH_ID, CANCEL_PUSH are
		// connection/control-stream frames; on a request stream they are
		// surfaced as malformed (spec §4.1: unknown types ⇒
		// INTERNAL_ERROR; known-but-misplaced types ⇒ malformed frame).
		typeErr := &herr.FrameTypeError{Want: uint64(frame.TypeHeaders), Type: uint64(typ)}
		return herr.New(herr.HTTPMalformedFrame, typeErr.Error())
	}
}

// InsertRecv feeds received bytes into this stream's reassembler
// (spec §4.3's insert_recv, routed per-stream). A state-machine violation
// surfaced out of the DATA path (which the reassembler's Handlers.OnData
// has no error return for) is captured in pendingErr and returned here.
func (s *Stream) InsertRecv(offset uint64, data []byte, fin bool) error {
	if err := s.reassembler.Insert(offset, data, fin); err != nil {
		return err
	}
	if s.pendingErr != nil {
		err := s.pendingErr
		s.pendingErr = nil
		return err
	}
	return nil
}

// QueueSend appends a send buffer to the stream's outbound queue.
func (s *Stream) QueueSend(buf []byte, fin bool) {
	s.SendQueue = append(s.SendQueue, &SendBuffer{Buf: buf, Fin: fin})
}

// PopSendBuffer removes the head of the send queue once it has been fully
// accepted by the transport.
func (s *Stream) PopSendBuffer() {
	if len(s.SendQueue) == 0 {
		return
	}
	s.SendQueue = s.SendQueue[1:]
}

// AdvanceSendHeaders transitions SendState forward when the application
// calls FeedHeaders (spec §4.4).
func (s *Stream) AdvanceSendHeaders(hasTrailerField bool) error {
	next, err := onHeaders(s.SendState, s.Flags&FlagTrailersPromised != 0)
	if err != nil {
		return err
	}
	s.SendState = next
	if hasTrailerField {
		s.Flags |= FlagTrailersPromised
	}
	return nil
}

// AdvanceSendData transitions SendState forward when the application calls
// FeedPayloadData.
func (s *Stream) AdvanceSendData() error {
	next, err := onData(s.SendState)
	if err != nil {
		return err
	}
	s.SendState = next
	return nil
}

// FinishSend marks the send half DONE. The session calls it as soon as a
// final buffer is queued, so nothing more can be fed on the stream, and
// again once that buffer has drained.
func (s *Stream) FinishSend() {
	s.SendState = onFin(s.SendState)
}
