// Package stream implements the per-stream send/recv state machines (spec
// §4.2) and the Stream entity itself (spec §3).
package stream

import "github.com/saitolume/hqmcast/internal/herr"

// State is one half (send or recv) of a stream's lifecycle (spec §4.2):
//
//	OPEN -> HDRS -> BODY -> TRAILERS -> DONE
//	          \\_____ skip if no body _____/
//
// States are monotone: no backward transitions except into DONE (spec §3
// invariant 4).
type State int

const (
	StateOpen State = iota
	StateHeaders
	StateBody
	StateTrailers
	StateDone
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHeaders:
		return "HDRS"
	case StateBody:
		return "BODY"
	case StateTrailers:
		return "TRAILERS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Flags is the per-stream bitset named in spec §3.
type Flags uint32

const (
	FlagStarted Flags = 1 << iota
	FlagTrailersPromised
)

// onHeaders advances recv state when a HEADERS frame arrives. trailerPromised
// reports whether the earlier HEADERS declared a "trailer" field
// (spec §4.2: "HEADERS in BODY ⇒ TRAILERS only if the earlier headers
// declared a trailer field").
func onHeaders(cur State, trailerPromised bool) (next State, err *herr.Error) {
	switch cur {
	case StateOpen:
		return StateHeaders, nil
	case StateBody:
		if !trailerPromised {
			return cur, herr.New(herr.HTTPMalformedFrame, "TRAILERS_NOT_PROMISED")
		}
		return StateTrailers, nil
	default:
		return cur, herr.Newf(herr.HTTPMalformedFrame, "unexpected HEADERS in state %s", cur)
	}
}

// onData advances recv state when a DATA frame arrives (spec §4.2: "DATA
// received in HDRS ⇒ BODY. DATA in TRAILERS or DONE ⇒ error.").
func onData(cur State) (next State, err *herr.Error) {
	switch cur {
	case StateHeaders:
		return StateBody, nil
	case StateBody:
		return cur, nil
	default:
		return cur, herr.Newf(herr.HTTPMalformedFrame, "unexpected DATA in state %s", cur)
	}
}

// onFin forces a state to DONE, the terminal state regardless of origin
// (spec §4.2: "End-of-stream fin bit on the last frame ⇒ DONE").
func onFin(State) State {
	return StateDone
}
