package reassemble

// Gap describes a byte interval [Begin, End) still missing inside a frame
// under reassembly (spec §3 "Gap"). An empty GapList means the frame is
// complete.
type Gap struct {
	Begin, End uint64
}

// GapList is the ordered, non-overlapping set of gaps remaining in a
// frame. It starts life as a single gap spanning the whole payload (spec
// §4.3 stage 2) and shrinks as payload bytes are filled in (stage 3).
type GapList []Gap

// NewGapList returns a gap list with a single gap covering [0, length).
func NewGapList(length uint64) GapList {
	if length == 0 {
		return nil
	}
	return GapList{{Begin: 0, End: length}}
}

// Empty reports whether the frame this list belongs to is complete.
func (g GapList) Empty() bool {
	return len(g) == 0
}

// Remove marks [begin, end) as filled, splitting or shrinking the gaps
// that overlap it. This is remove_gap from spec §4.3 stage 3.
func (g GapList) Remove(begin, end uint64) GapList {
	if begin >= end {
		return g
	}
	out := make(GapList, 0, len(g)+1)
	for _, gap := range g {
		if end <= gap.Begin || begin >= gap.End {
			// No overlap with this gap.
			out = append(out, gap)
			continue
		}
		// [begin,end) overlaps [gap.Begin, gap.End); keep the leftover
		// slivers before and after the filled range.
		if gap.Begin < begin {
			out = append(out, Gap{Begin: gap.Begin, End: begin})
		}
		if end < gap.End {
			out = append(out, Gap{Begin: end, End: gap.End})
		}
	}
	return out
}
