package quill

// Span is a styled run layered over a buffer range. The list a document
// keeps is deliberately unordered: spans may overlap arbitrarily and
// duplicates are allowed. The renderer resolves overlap by OR-ing masks
// (see SplitSegments); the editing engine only ever rewrites spans through
// AdjustInsert and AdjustDelete, which maintain the single invariant that
// every surviving span satisfies 0 <= Start, Length > 0,
// Start+Length <= buffer length.
type Span struct {
	Start  int
	Length int
	Style  StyleMask
}

// End returns the exclusive end offset.
func (s Span) End() int {
	return s.Start + s.Length
}

// AdjustInsert rewrites spans in place after n runes were inserted at pos.
// Spans starting at or after pos shift right. A span that straddles the
// insertion point grows to absorb the new text; typing inside a bold run
// therefore stays bold. Spans ending at or before pos are untouched.
func AdjustInsert(spans []Span, pos, n int) []Span {
	if n <= 0 {
		return spans
	}
	for i := range spans {
		switch {
		case spans[i].Start >= pos:
			spans[i].Start += n
		case spans[i].End() > pos:
			spans[i].Length += n
		}
	}
	return spans
}

// AdjustDelete rewrites spans in place after [pos, pos+n) was deleted.
// Spans ending at or before pos are untouched; spans past the deleted
// range shift left; spans overlapping it are clipped to
// [min(start,pos), max(end-n,pos)) and dropped when that clip is empty.
// The returned slice aliases the input.
func AdjustDelete(spans []Span, pos, n int) []Span {
	if n <= 0 {
		return spans
	}
	out := spans[:0]
	for _, s := range spans {
		switch {
		case s.End() <= pos:
			// Entirely before the deletion.
		case s.Start >= pos+n:
			s.Start -= n
		default:
			newStart := min(s.Start, pos)
			newEnd := max(s.End()-n, pos)
			if newEnd-newStart <= 0 {
				continue
			}
			s.Start = newStart
			s.Length = newEnd - newStart
		}
		out = append(out, s)
	}
	return out
}

// ClipSpans returns the spans overlapping [start, end), each clipped to
// that window and rebased so that start maps to offset zero. This is the
// selection-relative form the clipboard cache stores.
func ClipSpans(spans []Span, start, end int) []Span {
	if end <= start {
		return nil
	}
	var out []Span
	for _, s := range spans {
		lo := max(s.Start, start)
		hi := min(s.End(), end)
		if hi-lo <= 0 {
			continue
		}
		out = append(out, Span{Start: lo - start, Length: hi - lo, Style: s.Style})
	}
	return out
}

// OffsetSpans returns a copy of spans shifted right by base, mapping
// selection-relative spans back into absolute buffer coordinates.
func OffsetSpans(spans []Span, base int) []Span {
	if len(spans) == 0 {
		return nil
	}
	out := make([]Span, len(spans))
	for i, s := range spans {
		out[i] = Span{Start: s.Start + base, Length: s.Length, Style: s.Style}
	}
	return out
}

// StyleCovers reports whether every offset of [start, end) carries flag.
// Overlap is resolved the same way the renderer sees it: a position is
// styled if any span covering it has the bit set.
func StyleCovers(spans []Span, start, end int, flag StyleMask) bool {
	if end <= start {
		return false
	}
	for pos := start; pos < end; {
		advanced := false
		for _, s := range spans {
			if s.Style.Has(flag) && s.Start <= pos && pos < s.End() {
				if s.End() > pos {
					pos = s.End()
					advanced = true
					break
				}
			}
		}
		if !advanced {
			return false
		}
	}
	return true
}

// ToggleStyle applies the host side of a pending style toggle: if the whole
// range already carries flag the bit is removed from it, otherwise a new
// span adds it. Removal rewrites the affected spans, splitting any that
// extend past the range, so unrelated offsets keep their styling.
func ToggleStyle(spans []Span, start, end int, flag StyleMask) []Span {
	if end <= start {
		return spans
	}
	if !StyleCovers(spans, start, end, flag) {
		return append(spans, Span{Start: start, Length: end - start, Style: flag})
	}
	// A split can emit up to three spans per input, so this builds a fresh
	// slice instead of rewriting in place.
	out := make([]Span, 0, len(spans)+2)
	for _, s := range spans {
		if !s.Style.Has(flag) || s.End() <= start || s.Start >= end {
			out = append(out, s)
			continue
		}
		// Keep the styled remainders outside [start, end).
		if s.Start < start {
			out = append(out, Span{Start: s.Start, Length: start - s.Start, Style: s.Style})
		}
		if s.End() > end {
			out = append(out, Span{Start: end, Length: s.End() - end, Style: s.Style})
		}
		// Inside the range the span keeps its other bits, if any.
		if rest := s.Style &^ flag; rest != 0 {
			lo := max(s.Start, start)
			hi := min(s.End(), end)
			out = append(out, Span{Start: lo, Length: hi - lo, Style: rest})
		}
	}
	return out
}

// ValidateSpans reports whether every span respects the bounds invariant
// for a buffer of the given length. Intended for tests and load-time
// sanity checks; the adjustment functions never produce a violation.
func ValidateSpans(spans []Span, bufferLength int) bool {
	for _, s := range spans {
		if s.Start < 0 || s.Length <= 0 || s.End() > bufferLength {
			return false
		}
	}
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
