// Package session implements the top-level orchestration object (spec §3
// "Session", §4.4, §4.7, §6, §7): stream/promise tables, the send/recv
// loop, push-promise lifecycle, and close behavior, built on top of
// frame, headers, reassemble, stream, transport, mcast, and timeradapter.
package session

import (
	"fmt"

	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/headers"
	"github.com/saitolume/hqmcast/internal/herr"
	"github.com/saitolume/hqmcast/internal/testlog"
	"github.com/saitolume/hqmcast/mcast"
	"github.com/saitolume/hqmcast/reassemble"
	"github.com/saitolume/hqmcast/stream"
	"github.com/saitolume/hqmcast/timeradapter"
	"github.com/saitolume/hqmcast/transport"
)

// Role is client or server (spec §3).
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Mode is unicast or multicast (spec §3).
type Mode int

const (
	ModeUnicast Mode = iota
	ModeMulticast
)

// control-stream identifiers fixed by the multicast profile (spec §6).
const (
	clientControlStreamID uint64 = 2
	serverControlStreamID uint64 = mcast.ServerControlStreamID
	pushPromiseStreamID   uint64 = 4
	initialRequestStreamID uint64 = 0
)

// MaxBytesInFlight is the send pipeline's backpressure ceiling (spec
// §4.4 step 1, ≈14.6kB).
const MaxBytesInFlight = 14600

// MinStreamPacketOverhead is the packing threshold subtracted from
// max_packet_size before concatenating send buffers (spec §4.4 step 2).
const MinStreamPacketOverhead = 27

// defaultMaxPacketSize mirrors the typical QUIC UDP MTU budget; the real
// ceiling is transport-specific, but the engine needs a concrete number
// to size its packing loop against (spec §4.4 step 2's "max_packet_size").
const defaultMaxPacketSize = 1200

// Settings is the session construction options struct (spec §2.3): built
// up via setter methods, mirroring newClient/newConn's
// authority/tlsConf/quicConfig/settings fan-in rather than a parsed
// config file.
type Settings struct {
	maxPushPromise        uint64
	maxConcurrentRequests uint64
	logger                *testlog.Logger
}

// NewSettings returns the default Settings: no pushes allowed, no
// concurrency cap, and a no-op logger, each overridable via the setter
// methods below.
func NewSettings() Settings {
	return Settings{
		maxPushPromise:        0,
		maxConcurrentRequests: 0,
		logger:                testlog.NopLogger(),
	}
}

// MaxPushPromise sets the push-id ceiling (spec §6 set_max_promises).
func (s Settings) MaxPushPromise(n uint64) Settings {
	s.maxPushPromise = n
	return s
}

// MaxConcurrentRequests sets the supplemented client-request concurrency
// cap (SPEC_FULL §6: nghq_set_max_client_requests wired for real).
func (s Settings) MaxConcurrentRequests(n uint64) Settings {
	s.maxConcurrentRequests = n
	return s
}

// Logger overrides the session's logger (spec §2.1).
func (s Settings) Logger(l *testlog.Logger) Settings {
	s.logger = l
	return s
}

// Callbacks are the host-provided callbacks named in spec §6: on_begin_headers,
// on_headers, on_data_recv, on_begin_promise, on_push_cancel,
// on_request_close, plus the three timer primitives (set_timer,
// reset_timer, cancel_timer). recv/send are not modeled as callbacks here
// (Go-native adjustment): the host drives Recv(pkt)/Send() directly
// instead of the engine pulling/pushing through a socket callback.
type Callbacks struct {
	OnBeginHeaders func(userData any) error
	OnHeaders      func(userData any, fields []headers.Field, fin bool) error
	OnDataRecv     func(userData any, bodyOffset uint64, data []byte, fin bool)
	OnBeginPromise func(initUserData any, pushID uint64, fields []headers.Field) (promisedUserData any, err error)
	OnPushCancel   func(pushID uint64)
	OnRequestClose func(userData any, status herr.Code)

	timeradapter.Callbacks
}

// promise is one entry of the "promises" table (spec §3).
type promise struct {
	pushID      uint64
	initUser    any
	promised    any
	streamID    *uint64
	started     bool
	canceled    bool
}

// Session is the top-level object (spec §3). Field grouping follows the
// invariants list directly: two stream tables, one header-compression
// context, two timer handles (via timeradapter.Adapter), and the
// negotiated-transport-parameter counters.
type Session struct {
	role Role
	mode Mode

	transport transport.Transport
	settings  Settings
	callbacks Callbacks
	logger    *testlog.Logger

	sessionID []byte

	headerAdapter *headers.Adapter

	// transfers is keyed by stream id (spec invariant 1: always
	// contains stream 0 from session creation).
	transfers map[uint64]*stream.Stream
	// promises is keyed by push id (spec §3).
	promises map[uint64]*promise
	// userDataStream resolves an opaque user_data handle back to its
	// stream id, the way feed_headers/feed_payload_data address a
	// transfer that may not have a transport-assigned id yet.
	userDataStream map[any]uint64
	pendingPromise map[any]uint64 // userData -> pushID, for not-yet-opened promised streams
	pendingPushStreams map[uint64]*pushStreamPrefix

	highestBidiStreamID uint64
	highestUniStreamID  uint64
	nextPushID          uint64
	maxPushPromise      uint64

	concurrentRequests uint64

	timers *timeradapter.Adapter

	fakeACK *mcast.FakeACKGenerator

	// pushRelay is the raw reassembler for the fixed push-promise relay
	// stream (id 4): it carries only PUSH_PROMISE frames, never HEADERS
	// or DATA, so it is driven directly rather than through a
	// stream.Stream (spec §4.3's stream-4 special case).
	pushRelay *reassemble.Reassembler

	closed bool
}

// ClientNew constructs a client-role Session (spec §6 client_new). In
// multicast mode it immediately runs the client-receiver fake handshake
// (spec §4.5) and wires stream 0 as the initial request stream.
func ClientNew(t transport.Transport, mode Mode, settings Settings, cb Callbacks) (*Session, error) {
	s := newSession(RoleClient, mode, t, settings, cb)

	if mode == ModeMulticast {
		id, err := mcast.ClientReceiverHandshake(t)
		if err != nil {
			return nil, fmt.Errorf("session: client multicast handshake: %w", err)
		}
		if uint64(id) != initialRequestStreamID {
			return nil, herr.New(herr.InternalError, "client receiver stream 0 mismatch")
		}
		s.registerStream(initialRequestStreamID, stream.New(s.headerAdapter, s.onHeadersFor(initialRequestStreamID), s.onDataFor(initialRequestStreamID)))
	}
	return s, nil
}

// ServerNew constructs a server-role Session (spec §6 server_new). In
// multicast mode it runs the server-sender fake handshake and opens the
// fixed-id server control stream.
func ServerNew(t transport.Transport, mode Mode, settings Settings, cb Callbacks) (*Session, error) {
	s := newSession(RoleServer, mode, t, settings, cb)

	if mode == ModeMulticast {
		id, err := mcast.ServerSenderHandshake(t)
		if err != nil {
			return nil, fmt.Errorf("session: server multicast handshake: %w", err)
		}
		if uint64(id) != serverControlStreamID {
			return nil, herr.New(herr.InternalError, "server control stream id mismatch")
		}
		s.registerStream(serverControlStreamID, stream.New(s.headerAdapter, s.onHeadersFor(serverControlStreamID), s.onDataFor(serverControlStreamID)))
		s.fakeACK = mcast.NewFakeACKGenerator()
	}
	return s, nil
}

func newSession(role Role, mode Mode, t transport.Transport, settings Settings, cb Callbacks) *Session {
	logger := settings.logger
	if logger == nil {
		logger = testlog.NopLogger()
	}
	s := &Session{
		role:           role,
		mode:           mode,
		transport:      t,
		settings:       settings,
		callbacks:      cb,
		logger:         logger,
		headerAdapter:  headers.New(),
		transfers:      make(map[uint64]*stream.Stream),
		promises:       make(map[uint64]*promise),
		userDataStream: make(map[any]uint64),
		pendingPromise: make(map[any]uint64),
		maxPushPromise: settings.maxPushPromise,
	}
	s.timers = timeradapter.New(cb.Callbacks, s.onLossDetectionTimer, s.onAckTimeout)
	s.pushRelay = reassemble.NewStreamFour(reassemble.Handlers{
		OnData: func(uint64, []byte, bool) {},
		OnFrame: func(typ frame.Type, payload []byte, fin bool) error {
			if typ != frame.TypePushPromise {
				return herr.Newf(herr.HTTPMalformedFrame, "unexpected %s frame on push relay stream", typ)
			}
			pushID, compressed, err := frame.DecodePushPromise(payload)
			if err != nil {
				return herr.Newf(herr.HTTPMalformedFrame, "decode push promise: %v", err)
			}
			return s.dispatchPushPromise(pushID, compressed)
		},
	})
	// Stream 0 always exists in the transfers table from session
	// creation (spec invariant 1), even where nothing is opened on it yet;
	// ClientNew replaces it with the handshake-opened stream 0 in
	// multicast mode.
	if _, ok := s.transfers[initialRequestStreamID]; !ok {
		s.transfers[initialRequestStreamID] = stream.New(s.headerAdapter, s.onHeadersFor(initialRequestStreamID), s.onDataFor(initialRequestStreamID))
	}
	return s
}

func (s *Session) registerStream(id uint64, st *stream.Stream) {
	s.transfers[id] = st
	if id > s.highestBidiStreamID && id%4 < 2 {
		s.highestBidiStreamID = id
	}
	if id > s.highestUniStreamID && id%4 >= 2 {
		s.highestUniStreamID = id
	}
}

func (s *Session) onHeadersFor(id uint64) func([]headers.Field, bool) error {
	return func(fields []headers.Field, fin bool) error {
		st := s.transfers[id]
		if !st.HeadersStarted && s.callbacks.OnBeginHeaders != nil {
			if err := s.callbacks.OnBeginHeaders(st.UserData); err != nil {
				return err
			}
		}
		if s.callbacks.OnHeaders != nil {
			return s.callbacks.OnHeaders(st.UserData, fields, fin)
		}
		return nil
	}
}

func (s *Session) onDataFor(id uint64) func(uint64, []byte, bool) {
	return func(bodyOffset uint64, data []byte, fin bool) {
		if s.callbacks.OnDataRecv != nil {
			s.callbacks.OnDataRecv(s.transfers[id].UserData, bodyOffset, data, fin)
		}
	}
}

// GetTransportParams/FeedTransportParams round-trip the negotiated QUIC
// transport parameters through the Transport boundary (spec §6).
func (s *Session) GetTransportParams() ([]byte, error) {
	return s.transport.GetTransportParams()
}

func (s *Session) FeedTransportParams(b []byte) error {
	return s.transport.FeedTransportParams(b)
}

// SetMaxPromises updates the push-id ceiling (spec §6 set_max_promises,
// spec invariant 5: next_push_promise <= max_push_promise).
func (s *Session) SetMaxPromises(n uint64) { s.maxPushPromise = n }

// MaxPromises returns the current push-id ceiling.
func (s *Session) MaxPromises() uint64 { return s.maxPushPromise }

// NextPushID returns the next push id that would be allocated.
func (s *Session) NextPushID() uint64 { return s.nextPushID }

// Free releases the session. Go's GC owns the memory; Free exists to
// mirror the abstract session_free operation (spec §6) and is the point
// at which a host should drop its last reference.
func (s *Session) Free() {
	s.transfers = nil
	s.promises = nil
}
