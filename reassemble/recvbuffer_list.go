// RecvBuffer specialisation of gen.go's ItemChunkList template. The
// RecvBuffer type and the insert/merge methods below are written by hand;
// the template itself declares only the list type.

package reassemble

// RecvBuffer is one chunk of received stream bytes: {buf, offset,
// complete} from spec §3's "I/O buffer" (the send_pos/remaining fields of
// the original C struct collapse naturally into Go slicing: remaining is
// always len(Data), and send_pos never applies to a receive-side chunk).
type RecvBuffer struct {
	Offset   uint64 // stream offset of Data[0]
	Data     []byte
	Complete bool // fin bit observed on or before the end of this chunk
}

// End returns the stream offset just past this chunk.
func (b RecvBuffer) End() uint64 {
	return b.Offset + uint64(len(b.Data))
}

// recvBufferChunkList is the sorted, non-overlapping, seam-merged chunk
// list backing BufferChain (spec §3 invariant 2). Specialised from the
// genny ItemChunkList template for Item=RecvBuffer.
type recvBufferChunkList []RecvBuffer

// insert places data received at [offset, offset+len(data)) into the
// list, discarding any bytes already covered by an existing chunk and
// merging adjacent/overlapping chunks into one, exactly as spec §4.3
// stage 1 describes: "Overlaps with existing buffers are discarded on the
// newcomer's side; adjacent / touching buffers are merged."
func (l recvBufferChunkList) insert(offset uint64, data []byte, fin bool) recvBufferChunkList {
	newEnd := offset + uint64(len(data))

	// Trim away any prefix/suffix of the newcomer already covered by an
	// existing chunk — "Overlaps ... are discarded on the newcomer's side".
	for _, existing := range l {
		if existing.Offset <= offset && offset < existing.End() {
			trim := existing.End() - offset
			if trim >= uint64(len(data)) {
				// Fully covered already; nothing new to add, but the fin
				// bit may still need to be recorded.
				return l.markFinAt(newEnd, fin)
			}
			offset += trim
			data = data[trim:]
		}
	}
	if len(data) == 0 {
		return l.markFinAt(newEnd, fin)
	}

	merged := RecvBuffer{Offset: offset, Data: append([]byte(nil), data...), Complete: fin}
	out := make(recvBufferChunkList, 0, len(l)+1)
	inserted := false
	for _, existing := range l {
		switch {
		case existing.End() < merged.Offset:
			out = append(out, existing)
		case merged.End() < existing.Offset:
			if !inserted {
				out = append(out, merged)
				inserted = true
			}
			out = append(out, existing)
		default:
			// Touching or overlapping: merge into `merged`.
			merged = mergeChunks(merged, existing)
		}
	}
	if !inserted {
		out = append(out, merged)
	}
	return coalesceAdjacent(out)
}

// markFinAt records a fin observed at offset `end` even when the newcomer
// contributed no new bytes (a retransmit of already-seen data that also
// happens to carry fin).
func (l recvBufferChunkList) markFinAt(end uint64, fin bool) recvBufferChunkList {
	if !fin {
		return l
	}
	out := make(recvBufferChunkList, len(l))
	copy(out, l)
	for i := range out {
		if out[i].End() == end {
			out[i].Complete = true
		}
	}
	return out
}

func mergeChunks(a, b RecvBuffer) RecvBuffer {
	start := a.Offset
	if b.Offset < start {
		start = b.Offset
	}
	end := a.End()
	if b.End() > end {
		end = b.End()
	}
	buf := make([]byte, end-start)
	copy(buf[a.Offset-start:], a.Data)
	copy(buf[b.Offset-start:], b.Data)
	return RecvBuffer{Offset: start, Data: buf, Complete: a.Complete || b.Complete}
}

// coalesceAdjacent merges any chunks left touching end-to-end after an
// insert ("no adjacent seams" — spec §3 invariant 2).
func coalesceAdjacent(l recvBufferChunkList) recvBufferChunkList {
	if len(l) < 2 {
		return l
	}
	out := make(recvBufferChunkList, 0, len(l))
	cur := l[0]
	for _, next := range l[1:] {
		if next.Offset <= cur.End() {
			cur = mergeChunks(cur, next)
		} else {
			out = append(out, cur)
			cur = next
		}
	}
	out = append(out, cur)
	return out
}
