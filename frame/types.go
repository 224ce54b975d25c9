package frame

// Type is an HTTP/QUIC frame type, per spec §4.1.
type Type uint64

const (
	TypeData        Type = 0x0
	TypeHeaders     Type = 0x1
	TypePriority    Type = 0x2
	TypeCancelPush  Type = 0x3
	TypeSettings    Type = 0x4
	TypePushPromise Type = 0x5
	TypeGoaway      Type = 0x7
	TypeMaxPushID   Type = 0xd
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeHeaders:
		return "HEADERS"
	case TypePriority:
		return "PRIORITY"
	case TypeCancelPush:
		return "CANCEL_PUSH"
	case TypeSettings:
		return "SETTINGS"
	case TypePushPromise:
		return "PUSH_PROMISE"
	case TypeGoaway:
		return "GOAWAY"
	case TypeMaxPushID:
		return "MAX_PUSH_ID"
	default:
		return "UNKNOWN"
	}
}

// Known reports whether t is one of the recognised frame types. An
// unrecognised type causes the receiving stream to surface INTERNAL_ERROR
// per spec §4.1.
func (t Type) Known() bool {
	switch t {
	case TypeData, TypeHeaders, TypePriority, TypeCancelPush, TypeSettings, TypePushPromise, TypeGoaway, TypeMaxPushID:
		return true
	default:
		return false
	}
}
