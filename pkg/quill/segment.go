package quill

// Segment is a maximal run of text within [start, end) over which the
// combined style mask is constant. Segments are what the renderer draws:
// it never inspects spans directly.
type Segment struct {
	Start  int
	Length int
	Style  StyleMask
}

// End returns the exclusive end offset.
func (s Segment) End() int {
	return s.Start + s.Length
}

// SplitSegments partitions [start, end) into ordered, gap-free segments of
// uniform combined style. Overlapping spans OR their masks together. The
// function is pure: it reads the span list and allocates its result.
func SplitSegments(spans []Span, start, end int) []Segment {
	if end <= start {
		return nil
	}

	// Collect every span edge inside the window as a cut point.
	cuts := make([]int, 0, len(spans)*2+2)
	cuts = append(cuts, start, end)
	for _, s := range spans {
		if s.Start > start && s.Start < end {
			cuts = append(cuts, s.Start)
		}
		if e := s.End(); e > start && e < end {
			cuts = append(cuts, e)
		}
	}
	sortInts(cuts)
	cuts = dedupInts(cuts)

	out := make([]Segment, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		var mask StyleMask
		for _, s := range spans {
			if s.Start <= lo && s.End() >= hi {
				mask |= s.Style
			}
		}
		if n := len(out); n > 0 && out[n-1].Style == mask {
			out[n-1].Length += hi - lo
			continue
		}
		out = append(out, Segment{Start: lo, Length: hi - lo, Style: mask})
	}
	return out
}

func sortInts(a []int) {
	// Insertion sort: cut lists are tens of entries at most.
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

func dedupInts(a []int) []int {
	out := a[:0]
	for i, v := range a {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
