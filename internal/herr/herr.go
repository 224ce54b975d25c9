// Package herr is the error taxonomy shared across the engine.
//
// It mirrors the shape of saitolume-quic-go/http3/errors.go: a typed code
// with a String() method, plus dedicated struct types for errors that need
// to carry a value (the offending frame type, the stream id) alongside the
// code.
package herr

import "fmt"

// Code is a session- or stream-level outcome reported to the host.
type Code int

const (
	OK Code = iota
	NoMoreData
	SessionBlocked
	SessionClosed
	OutOfMemory
	TransportError
	TransportProtocol
	CryptoError
	HTTPMalformedFrame
	HTTPWrongStream
	HeaderCompressFailure
	PushLimitReached
	PushAlreadyInCache
	NotInterested
	BadUserData
	RequestClosed
	InternalError
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case NoMoreData:
		return "NO_MORE_DATA"
	case SessionBlocked:
		return "SESSION_BLOCKED"
	case SessionClosed:
		return "SESSION_CLOSED"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case TransportError:
		return "TRANSPORT_ERROR"
	case TransportProtocol:
		return "TRANSPORT_PROTOCOL"
	case CryptoError:
		return "CRYPTO_ERROR"
	case HTTPMalformedFrame:
		return "HTTP_MALFORMED_FRAME"
	case HTTPWrongStream:
		return "HTTP_WRONG_STREAM"
	case HeaderCompressFailure:
		return "HDR_COMPRESS_FAILURE"
	case PushLimitReached:
		return "PUSH_LIMIT_REACHED"
	case PushAlreadyInCache:
		return "PUSH_ALREADY_IN_CACHE"
	case NotInterested:
		return "NOT_INTERESTED"
	case BadUserData:
		return "BAD_USER_DATA"
	case RequestClosed:
		return "REQUEST_CLOSED"
	case InternalError:
		return "INTERNAL_ERROR"
	default:
		return fmt.Sprintf("unknown error code: %d", int(c))
	}
}

// Error wraps a Code with a human-readable message.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New builds an *Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether a session must be freed after this error.
func (e *Error) IsFatal() bool {
	switch e.Code {
	case SessionClosed, TransportError, TransportProtocol, CryptoError, InternalError:
		return true
	default:
		return false
	}
}

// FrameTypeError is returned when an unexpected frame is read on a stream.
// Want is the frame type that was expected, Type the one actually read.
type FrameTypeError struct {
	Want uint64
	Type uint64
}

func (e *FrameTypeError) Error() string {
	return fmt.Sprintf("unexpected frame type %#x, expected %#x", e.Type, e.Want)
}

// FrameLengthError is returned when a frame's declared length exceeds a limit.
type FrameLengthError struct {
	Type uint64
	Len  uint64
	Max  uint64
}

func (e *FrameLengthError) Error() string {
	return fmt.Sprintf("frame type %#x too large: %d bytes (max %d)", e.Type, e.Len, e.Max)
}

// StreamError reports that a stream was reset with a given code.
type StreamError struct {
	StreamID uint64
	Code     Code
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %d reset: %s", e.StreamID, e.Code)
}
