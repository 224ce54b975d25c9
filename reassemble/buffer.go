package reassemble

// BufferChain is stage 1 of the receive reassembler (spec §4.3): the
// per-stream sorted, merged chunk list that QUIC's at-most-once-per-byte
// (but possibly out-of-order, possibly retransmitted) delivery lands in.
type BufferChain struct {
	chunks recvBufferChunkList
}

// Insert places arriving bytes into the chain. Idempotent under retransmit
// and reordering: this is insert_recv from spec §4.3.
func (c *BufferChain) Insert(offset uint64, data []byte, fin bool) {
	c.chunks = c.chunks.insert(offset, data, fin)
}

// Chunks returns the current sorted, non-overlapping chunk list. Callers
// must not retain the returned slice across a subsequent Insert.
func (c *BufferChain) Chunks() []RecvBuffer {
	return c.chunks
}

// Pop drops the earliest chunk once the reassembler has fully consumed it.
func (c *BufferChain) Pop() {
	if len(c.chunks) == 0 {
		return
	}
	c.chunks = c.chunks[1:]
}

// Overlap returns the slice of data from any chunk(s) covering
// [begin, end), concatenated in offset order. Used by stage 3 to copy the
// overlap between a received chunk and an active frame's missing range.
func (c *BufferChain) Overlap(begin, end uint64) []byte {
	if begin >= end {
		return nil
	}
	out := make([]byte, 0, end-begin)
	for _, chunk := range c.chunks {
		lo := max64(begin, chunk.Offset)
		hi := min64(end, chunk.End())
		if lo >= hi {
			continue
		}
		out = append(out, chunk.Data[lo-chunk.Offset:hi-chunk.Offset]...)
	}
	return out
}

// EarliestOffset returns the offset of the first available chunk and
// whether one exists — used by the stream-4 (initial push-promise stream)
// special case in spec §4.3, which extracts frames starting from whatever
// is earliest available rather than a strict next_recv_offset.
func (c *BufferChain) EarliestOffset() (uint64, bool) {
	if len(c.chunks) == 0 {
		return 0, false
	}
	return c.chunks[0].Offset, true
}

// Range is a half-open byte interval.
type Range struct {
	Begin, End uint64
}

// CoveredRanges returns the sub-ranges of [begin, end) that are actually
// present in the chain, in ascending order.
func (c *BufferChain) CoveredRanges(begin, end uint64) []Range {
	if begin >= end {
		return nil
	}
	var out []Range
	for _, chunk := range c.chunks {
		lo := max64(begin, chunk.Offset)
		hi := min64(end, chunk.End())
		if lo < hi {
			out = append(out, Range{Begin: lo, End: hi})
		}
	}
	return out
}

// ContiguousFrom returns the longest run of bytes available starting
// exactly at offset, or nil if offset itself has not arrived yet. Used by
// stage 2 to decode the next frame header, which requires the header
// bytes themselves to be contiguous from next_recv_offset.
func (c *BufferChain) ContiguousFrom(offset uint64) []byte {
	for _, chunk := range c.chunks {
		if chunk.Offset <= offset && offset < chunk.End() {
			return chunk.Data[offset-chunk.Offset:]
		}
	}
	return nil
}

// FinAt reports whether a chunk ending exactly at offset carried the fin
// bit, i.e. offset is the first byte past the end of the stream.
func (c *BufferChain) FinAt(offset uint64) bool {
	for _, chunk := range c.chunks {
		if chunk.End() == offset {
			return chunk.Complete
		}
	}
	return false
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
