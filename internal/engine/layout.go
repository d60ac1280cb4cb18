package engine

import "sort"

// Metrics is the font capability the engine consumes: string measurement
// and per-glyph advance at the field's font size. Implementations live
// outside the engine (internal/typeface in this repo, fixed-width fakes in
// tests).
type Metrics interface {
	Measure(text []rune) float64
	Advance(ch rune) float64
}

// Geometry places a text field on screen for hit testing and caret
// placement. Width is the wrap width in pixels; a non-positive width
// disables soft wrapping.
type Geometry struct {
	X          float64
	Y          float64
	Width      float64
	LineHeight float64
}

// VisualLine is one wrapped line: a contiguous buffer range. The line
// sequence produced by WrapLines partitions [0, len] with no gaps and no
// overlaps; a hard newline is counted in the line it terminates.
type VisualLine struct {
	Start  int
	Length int
}

// End returns the exclusive end offset.
func (l VisualLine) End() int {
	return l.Start + l.Length
}

// WrapLines breaks text into visual lines at hard newlines and at soft
// wrap points where the accumulated advance exceeds width. Soft breaks
// prefer the position after the last space on the line; a single run
// wider than the wrap width breaks mid-word. Text ending in a newline
// yields a trailing empty line so the caret can sit below it. Never
// returns an empty slice.
func WrapLines(text []rune, width float64, m Metrics) []VisualLine {
	lines := make([]VisualLine, 0, 8)
	start := 0
	lastBreak := -1
	lineW := 0.0

	for i := 0; i < len(text); {
		ch := text[i]
		if ch == '\n' {
			lines = append(lines, VisualLine{Start: start, Length: i + 1 - start})
			start = i + 1
			lastBreak = -1
			lineW = 0
			i++
			continue
		}
		adv := m.Advance(ch)
		if width > 0 && i > start && lineW+adv > width {
			brk := i
			if lastBreak > start {
				brk = lastBreak
			}
			lines = append(lines, VisualLine{Start: start, Length: brk - start})
			start = brk
			lastBreak = -1
			lineW = 0
			i = brk
			continue
		}
		if ch == ' ' || ch == '\t' {
			lastBreak = i + 1
		}
		lineW += adv
		i++
	}
	lines = append(lines, VisualLine{Start: start, Length: len(text) - start})
	return lines
}

// LineIndexFor maps a buffer offset to its visual line. An offset exactly
// at a line's end boundary stays on that line for a soft wrap but moves to
// the following line when the boundary is a hard newline, so the caret
// lands after the break the user typed.
func LineIndexFor(lines []VisualLine, text []rune, offset int) int {
	if len(lines) == 0 {
		return 0
	}
	i := sort.Search(len(lines), func(i int) bool { return lines[i].End() >= offset })
	if i >= len(lines) {
		return len(lines) - 1
	}
	if offset == lines[i].End() && i < len(lines)-1 &&
		lines[i].Length > 0 && text[lines[i].End()-1] == '\n' {
		return i + 1
	}
	return i
}

// LineOffsetX measures the pixel X of offset within its line. Measured
// fresh every call: font or size may change between frames.
func LineOffsetX(text []rune, line VisualLine, offset int, m Metrics) float64 {
	if offset < line.Start {
		offset = line.Start
	}
	if offset > line.End() {
		offset = line.End()
	}
	return m.Measure(text[line.Start:offset])
}

// OffsetForX finds the column on line nearest to pixel x, using the glyph
// midpoint rule. A trailing newline is not a clickable column.
func OffsetForX(text []rune, line VisualLine, x float64, m Metrics) int {
	end := line.End()
	if line.Length > 0 && text[end-1] == '\n' {
		end--
	}
	w := 0.0
	for p := line.Start; p < end; p++ {
		adv := m.Advance(text[p])
		if x < w+adv/2 {
			return p
		}
		w += adv
	}
	return end
}

// OffsetAtPoint maps a mouse position to a buffer offset given the current
// line partition and field geometry.
func OffsetAtPoint(lines []VisualLine, text []rune, geom Geometry, x, y float64, m Metrics) int {
	if len(lines) == 0 {
		return 0
	}
	row := 0
	if geom.LineHeight > 0 {
		row = int((y - geom.Y) / geom.LineHeight)
	}
	if row < 0 {
		row = 0
	}
	if row >= len(lines) {
		row = len(lines) - 1
	}
	return OffsetForX(text, lines[row], x-geom.X, m)
}
