// Package reassemble implements the per-stream receive reassembler (spec
// §4.3): stage 1 byte assembly (BufferChain, in buffer.go/recvbuffer_list.go),
// and stages 2-4 (frame extraction, payload filling, ordered delivery) here.
package reassemble

import (
	"github.com/saitolume/hqmcast/frame"
	"github.com/saitolume/hqmcast/internal/herr"
)

// MaxControlFrameLength bounds a non-DATA frame's declared payload length.
// DATA frames stream straight through and never buffer (see streamData),
// but every other frame type is materialised whole into ActiveFrame.Payload,
// so an attacker-declared length here is a direct allocation-size knob.
const MaxControlFrameLength = 1 << 20

// ActiveFrame is a frame currently under reassembly (spec §3
// "Stream-frame"): header already decoded, payload not yet complete.
type ActiveFrame struct {
	Type   frame.Type
	Offset uint64 // stream offset of the frame's header
	// headerLen is the size in bytes of the type+length varint prefix.
	headerLen int
	Length    uint64 // declared payload length
	Gaps      GapList

	// Payload aggregates the body for non-DATA frames. DATA frames are
	// streamed directly to the callback and never populate this (spec
	// §4.3 stage 3: "DATA frames do not store").
	Payload []byte

	// EndHeaderOffset and DataOffsetAdjust only apply to DATA frames
	// (spec §4.3 stage 2).
	EndHeaderOffset  uint64
	DataOffsetAdjust uint64

	delivered    bool
	dataConsumed uint64 // bytes already streamed out of this DATA frame
}

func (f *ActiveFrame) bodyStart() uint64 { return f.Offset + uint64(f.headerLen) }
func (f *ActiveFrame) bodyEnd() uint64   { return f.bodyStart() + f.Length }

// Handlers are the callbacks the reassembler dispatches into. They
// correspond to the host callbacks named in spec §6 (on_data_recv,
// on_headers/on_begin_promise/etc. — the latter are folded into one
// OnFrame dispatch and split further upstream by the Session/Stream
// layer, which knows the stream's role and current state).
type Handlers struct {
	// OnData delivers a contiguous run of HTTP body bytes. bodyOffset is
	// already re-indexed from the stream offset per spec §4.3 ("data
	// offset adjust").
	OnData func(bodyOffset uint64, data []byte, fin bool)

	// OnFrame dispatches a fully-reassembled non-DATA frame. Returning a
	// non-nil error resets the stream (spec §7: HTTP_MALFORMED_FRAME).
	OnFrame func(typ frame.Type, payload []byte, fin bool) error
}

// Reassembler drives stages 2-4 for one stream's receive half.
type Reassembler struct {
	chain  BufferChain
	active []*ActiveFrame

	// nextRecvOffset is the stream byte offset at which the next frame
	// header is expected (spec §3).
	nextRecvOffset uint64

	// dataFramesTotal is the running sum of DATA payload bytes already
	// accounted for (spec §3), used to translate stream offset -> HTTP
	// body offset.
	dataFramesTotal uint64

	// earliestOffsetMode implements the stream-4 special case (spec
	// §4.3): extraction starts from whatever is earliest available
	// rather than strictly at nextRecvOffset, because the multicast
	// push-promise stream is an unbounded sender-driven sequence.
	earliestOffsetMode bool

	handlers Handlers
}

// New constructs a reassembler starting at stream offset 0.
func New(h Handlers) *Reassembler {
	return &Reassembler{handlers: h}
}

// NewStreamFour constructs a reassembler in the stream-4 earliest-offset
// extraction mode (spec §4.3's special case for the initial push-promise
// stream).
func NewStreamFour(h Handlers) *Reassembler {
	r := New(h)
	r.earliestOffsetMode = true
	return r
}

// Insert feeds newly-arrived (offset, data, fin) bytes through all four
// reassembly stages.
func (r *Reassembler) Insert(offset uint64, data []byte, fin bool) error {
	r.chain.Insert(offset, data, fin)
	if err := r.extract(); err != nil {
		return err
	}
	if err := r.fillAndDeliver(); err != nil {
		return err
	}
	return nil
}

// extract is stage 2: decode as many frame headers as are contiguously
// available starting at the extraction cursor, creating an ActiveFrame per
// header with a single initial gap spanning its whole payload.
func (r *Reassembler) extract() error {
	for {
		cursor := r.nextRecvOffset
		if r.earliestOffsetMode {
			off, ok := r.chain.EarliestOffset()
			if !ok {
				return nil
			}
			if off > cursor {
				cursor = off
			}
		}
		available := r.chain.ContiguousFrom(cursor)
		if len(available) == 0 {
			return nil
		}
		hdr, hdrLen, err := frame.ParseHeader(available)
		if err != nil {
			// Not enough contiguous bytes yet to know the frame's type
			// and length; wait for more.
			return nil
		}
		if hdr.Type != frame.TypeData && hdr.Length > MaxControlFrameLength {
			lenErr := &herr.FrameLengthError{Type: uint64(hdr.Type), Len: hdr.Length, Max: MaxControlFrameLength}
			return herr.New(herr.HTTPMalformedFrame, lenErr.Error())
		}
		af := &ActiveFrame{
			Type:      hdr.Type,
			Offset:    cursor,
			headerLen: hdrLen,
			Length:    hdr.Length,
			Gaps:      NewGapList(hdr.Length),
		}
		if af.Type == frame.TypeData {
			af.EndHeaderOffset = af.bodyStart()
			af.DataOffsetAdjust = af.EndHeaderOffset - r.dataFramesTotal
		} else {
			af.Payload = make([]byte, hdr.Length)
		}
		r.active = append(r.active, af)
		r.nextRecvOffset = cursor + uint64(hdrLen) + hdr.Length
	}
}

// fillAndDeliver is stages 3 and 4: copy newly-available bytes into every
// active frame's missing ranges, then dispatch whatever has become ready,
// honoring the non-DATA-blocks-later-non-DATA ordering rule (spec §4.3
// stage 4).
func (r *Reassembler) fillAndDeliver() error {
	for _, af := range r.active {
		if af.delivered {
			continue
		}
		r.fill(af)
	}

	nonDataGateOpen := true
	remaining := make([]*ActiveFrame, 0, len(r.active))
	for _, af := range r.active {
		if af.delivered {
			continue
		}
		switch af.Type {
		case frame.TypeData:
			r.streamData(af)
			if !af.Gaps.Empty() || af.dataConsumed < af.Length {
				remaining = append(remaining, af)
			} else {
				af.delivered = true
				r.dataFramesTotal += af.Length
			}
		default:
			if !nonDataGateOpen {
				remaining = append(remaining, af)
				continue
			}
			if !af.Gaps.Empty() {
				remaining = append(remaining, af)
				nonDataGateOpen = false
				continue
			}
			if !af.Type.Known() {
				return herr.New(herr.InternalError, "unknown frame type on stream")
			}
			fin := r.chain.FinAt(af.bodyEnd())
			if err := r.handlers.OnFrame(af.Type, af.Payload, fin); err != nil {
				return err
			}
			af.delivered = true
		}
	}
	r.active = remaining
	return nil
}

// fill copies whatever newly-arrived bytes overlap af's remaining gaps
// into af's storage (non-DATA) and marks those ranges filled. DATA frames
// are filled implicitly by streamData reading straight from the chain, so
// this only materialises payload for non-DATA frames.
func (r *Reassembler) fill(af *ActiveFrame) {
	if af.Type == frame.TypeData {
		return
	}
	for _, gap := range append(GapList(nil), af.Gaps...) {
		absBegin := af.bodyStart() + gap.Begin
		absEnd := af.bodyStart() + gap.End
		for _, rng := range r.chain.CoveredRanges(absBegin, absEnd) {
			data := r.chain.Overlap(rng.Begin, rng.End)
			localBegin := rng.Begin - af.bodyStart()
			localEnd := rng.End - af.bodyStart()
			copy(af.Payload[localBegin:localEnd], data)
			af.Gaps = af.Gaps.Remove(localBegin, localEnd)
		}
	}
}

// streamData delivers newly-contiguous DATA bytes, starting right after
// whatever has already been consumed, directly to OnData -- DATA frames
// never wait for full completion (spec §4.3 stage 3/4).
func (r *Reassembler) streamData(af *ActiveFrame) {
	for {
		absBegin := af.bodyStart() + af.dataConsumed
		if af.dataConsumed >= af.Length {
			return
		}
		absEnd := af.bodyEnd()
		chunk := r.chain.ContiguousFrom(absBegin)
		if len(chunk) == 0 {
			return
		}
		if uint64(len(chunk)) > absEnd-absBegin {
			chunk = chunk[:absEnd-absBegin]
		}
		bodyOffset := absBegin - af.DataOffsetAdjust
		af.dataConsumed += uint64(len(chunk))
		af.Gaps = af.Gaps.Remove(absBegin-af.bodyStart(), absBegin-af.bodyStart()+uint64(len(chunk)))
		fin := af.dataConsumed == af.Length && r.chain.FinAt(af.bodyEnd())
		r.handlers.OnData(bodyOffset, chunk, fin)
	}
}

// NextRecvOffset reports the stream offset at which the next frame header
// is expected.
func (r *Reassembler) NextRecvOffset() uint64 { return r.nextRecvOffset }

// DataFramesTotal reports the running count of delivered DATA payload
// bytes.
func (r *Reassembler) DataFramesTotal() uint64 { return r.dataFramesTotal }

// ActiveFrames exposes the current in-flight frames (read-only), useful
// for invariant checks and debug introspection.
func (r *Reassembler) ActiveFrames() []*ActiveFrame { return r.active }
