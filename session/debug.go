package session

import (
	"github.com/francoispqt/gojay"

	"github.com/saitolume/hqmcast/alpn"
)

// debugSnapshot is the JSON-able view of a session's negotiated state
// (SPEC_FULL §6 supplemented feature: "Debug JSON dump of negotiated
// settings", not in the distilled spec but a natural home for the
// teacher's gojay dependency).
type debugSnapshot struct {
	role                  string
	mode                  string
	sessionID             string
	highestBidiStreamID   uint64
	highestUniStreamID    uint64
	nextPushID            uint64
	maxPushPromise        uint64
	concurrentRequests    uint64
	maxConcurrentRequests uint64
	openStreams           int
	openPromises          int
}

// MarshalJSONObject implements gojay.MarshalerJSONObject, the streaming
// alternative to encoding/json this corpus uses wherever introspection
// output is on a hot path (SPEC_FULL §3 domain stack).
func (d *debugSnapshot) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("role", d.role)
	enc.StringKey("mode", d.mode)
	enc.StringKey("session_id", d.sessionID)
	enc.Uint64Key("highest_bidi_stream_id", d.highestBidiStreamID)
	enc.Uint64Key("highest_uni_stream_id", d.highestUniStreamID)
	enc.Uint64Key("next_push_id", d.nextPushID)
	enc.Uint64Key("max_push_promise", d.maxPushPromise)
	enc.Uint64Key("concurrent_requests", d.concurrentRequests)
	enc.Uint64Key("max_concurrent_requests", d.maxConcurrentRequests)
	enc.IntKey("open_streams", d.openStreams)
	enc.IntKey("open_promises", d.openPromises)
}

// IsNil implements gojay.MarshalerJSONObject.
func (d *debugSnapshot) IsNil() bool { return d == nil }

// roleString/modeString render the Role/Mode enums for the debug dump.
func (s *Session) roleString() string {
	if s.role == RoleServer {
		return "server"
	}
	return "client"
}

func (s *Session) modeString() string {
	if s.mode == ModeMulticast {
		return "multicast"
	}
	return "unicast"
}

// DebugJSON renders a point-in-time snapshot of the session's negotiated
// state as JSON, using gojay's streaming encoder rather than
// encoding/json (SPEC_FULL §6).
func (s *Session) DebugJSON() ([]byte, error) {
	snap := &debugSnapshot{
		role:                  s.roleString(),
		mode:                  s.modeString(),
		sessionID:             alpn.EncodeSessionID(s.sessionID),
		highestBidiStreamID:   s.highestBidiStreamID,
		highestUniStreamID:    s.highestUniStreamID,
		nextPushID:            s.nextPushID,
		maxPushPromise:        s.maxPushPromise,
		concurrentRequests:    s.concurrentRequests,
		maxConcurrentRequests: s.settings.maxConcurrentRequests,
		openStreams:           len(s.transfers),
		openPromises:          len(s.promises),
	}
	return gojay.Marshal(snap)
}
