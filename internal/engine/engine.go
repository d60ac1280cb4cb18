// Package engine drives caret, selection, clipboard, and visual-line state
// for editable text fields. The host translates raw platform input into an
// Input each frame and calls Session.Update per focused field; the engine
// mutates the field's buffer and style spans and reports what happened.
package engine

import "quill/pkg/quill"

// Triple-click detection: a plain click this close in time and screen
// distance to the last double click selects the whole field.
const (
	tripleClickWindow = 0.4
	tripleClickDist2  = 25.0
)

// Input is one frame of translated input for a field. The "pressed" keys
// fire on the transition frame only; the Held flags and chord Down flags
// stay true while the physical keys are down, and the engine does its own
// edge detection on the chords.
type Input struct {
	Frame     uint64
	DeltaTime float64
	Time      float64

	Chars []rune
	Enter bool

	Backspace     bool
	BackspaceHeld bool
	Delete        bool
	DeleteHeld    bool

	Left  bool
	Right bool
	Up    bool
	Down  bool
	Home  bool
	End   bool

	Ctrl  bool
	Shift bool

	SelectAll bool

	CopyDown  bool
	CutDown   bool
	PasteDown bool

	ToggleBold      bool
	ToggleItalic    bool
	ToggleUnderline bool

	MouseX           float64
	MouseY           float64
	MousePressed     bool
	MouseDown        bool
	MouseDoubleClick bool
}

// Options carries per-field behavior switches.
type Options struct {
	// SingleLine fields reject newlines: Enter is ignored and pasted
	// newlines are stripped.
	SingleLine bool
}

// Result tells the host what the frame did to the field.
type Result struct {
	// Changed is true when the buffer or spans were mutated.
	Changed bool

	// NavigatedPastStart and NavigatedPastEnd fire when Up on the first
	// line or Down on the last line had nowhere to go, so the host can
	// move focus to an adjacent field.
	NavigatedPastStart bool
	NavigatedPastEnd   bool

	// StyleToggle holds the style bits whose shortcuts fired over a
	// non-empty selection. The engine does not apply them; the document
	// layer owns span rewriting and undo.
	StyleToggle quill.StyleMask

	// Layout of the post-edit text, for rendering.
	Lines     []VisualLine
	CaretLine int
	CaretX    float64

	// Normalized selection range, or -1/-1 when none.
	SelStart int
	SelEnd   int
}

// Update runs one frame of editing for the field id over buf and spans.
// spans is mutated in place through the pointer; the caller keeps the
// slice header in its field record.
func (s *Session) Update(id WidgetID, buf *quill.Buffer, spans *[]quill.Span, in Input, geom Geometry, m Metrics, opts Options) Result {
	st := s.state(id, buf.Len(), in.Frame)
	st.clampTo(buf.Len())

	var res Result

	lines := WrapLines(buf.Runes(), geom.Width, m)
	dirty := false
	layout := func() []VisualLine {
		if dirty {
			lines = WrapLines(buf.Runes(), geom.Width, m)
			dirty = false
		}
		return lines
	}

	deleteSelection := func() bool {
		lo, hi, ok := st.selectionRange()
		if !ok {
			st.clearSelection()
			return false
		}
		buf.DeleteRange(lo, hi)
		*spans = quill.AdjustDelete(*spans, lo, hi-lo)
		st.Caret = lo
		st.clearSelection()
		res.Changed = true
		dirty = true
		return true
	}

	insertRune := func(ch rune) bool {
		if !buf.InsertRune(st.Caret, ch) {
			return false
		}
		*spans = quill.AdjustInsert(*spans, st.Caret, 1)
		st.Caret++
		res.Changed = true
		dirty = true
		return true
	}

	moveCaret := func(target int, extend bool) {
		if extend {
			if st.SelectionStart < 0 {
				st.SelectionStart = st.Caret
			}
			st.Caret = buf.Clamp(target)
			st.SelectionEnd = st.Caret
			return
		}
		st.Caret = buf.Clamp(target)
		st.clearSelection()
	}

	// Mouse first, so a click repositions the caret before this frame's
	// typing lands.
	switch {
	case in.MouseDoubleClick:
		text := buf.Runes()
		p := OffsetAtPoint(layout(), text, geom, in.MouseX, in.MouseY, m)
		ws, we := quill.WordAt(text, p)
		st.SelectionStart, st.SelectionEnd = ws, we
		st.Caret = we
		st.lastDoubleTime = in.Time
		st.lastDoubleX = in.MouseX
		st.lastDoubleY = in.MouseY
	case in.MousePressed:
		dx := in.MouseX - st.lastDoubleX
		dy := in.MouseY - st.lastDoubleY
		if st.lastDoubleTime >= 0 && in.Time-st.lastDoubleTime <= tripleClickWindow && dx*dx+dy*dy < tripleClickDist2 {
			st.SelectionStart, st.SelectionEnd = 0, buf.Len()
			st.Caret = buf.Len()
			st.lastDoubleTime = -1
		} else {
			p := OffsetAtPoint(layout(), buf.Runes(), geom, in.MouseX, in.MouseY, m)
			if in.Shift {
				moveCaret(p, true)
			} else {
				st.Caret = p
				st.SelectionStart, st.SelectionEnd = p, p
			}
		}
	case in.MouseDown:
		if st.SelectionStart >= 0 {
			p := OffsetAtPoint(layout(), buf.Runes(), geom, in.MouseX, in.MouseY, m)
			st.Caret = p
			st.SelectionEnd = p
		}
	}

	if in.SelectAll {
		st.SelectionStart, st.SelectionEnd = 0, buf.Len()
		st.Caret = buf.Len()
	}

	// Style shortcuts report intent only, and only over a real selection.
	if _, _, ok := st.selectionRange(); ok {
		if in.ToggleBold {
			res.StyleToggle |= quill.StyleBold
		}
		if in.ToggleItalic {
			res.StyleToggle |= quill.StyleItalic
		}
		if in.ToggleUnderline {
			res.StyleToggle |= quill.StyleUnderline
		}
	}

	// Clipboard chords are held-state combos; edge-detect them here so a
	// chord held across frames fires once.
	if in.CopyDown && !st.wasCopyDown {
		s.copySelection(st, buf, *spans)
	}
	if in.CutDown && !st.wasCutDown {
		if s.copySelection(st, buf, *spans) {
			deleteSelection()
		}
	}
	if in.PasteDown && !st.wasPasteDown {
		s.paste(st, buf, spans, opts, deleteSelection, insertRune)
	}
	st.wasCopyDown = in.CopyDown
	st.wasCutDown = in.CutDown
	st.wasPasteDown = in.PasteDown

	for _, ch := range in.Chars {
		if ch == '\r' {
			continue
		}
		deleteSelection()
		insertRune(ch)
	}
	if in.Enter && !opts.SingleLine {
		deleteSelection()
		insertRune('\n')
	}

	backspaceOnce := func() bool {
		if deleteSelection() {
			return true
		}
		if st.Caret <= 0 {
			return false
		}
		start := st.Caret - 1
		if in.Ctrl {
			start = quill.WordBoundaryLeft(buf.Runes(), st.Caret)
		}
		if start >= st.Caret {
			return false
		}
		buf.DeleteRange(start, st.Caret)
		*spans = quill.AdjustDelete(*spans, start, st.Caret-start)
		st.Caret = start
		res.Changed = true
		dirty = true
		return true
	}
	deleteOnce := func() bool {
		if deleteSelection() {
			return true
		}
		if st.Caret >= buf.Len() {
			return false
		}
		end := st.Caret + 1
		if in.Ctrl {
			end = quill.WordBoundaryRight(buf.Runes(), st.Caret)
		}
		if end <= st.Caret {
			return false
		}
		buf.DeleteRange(st.Caret, end)
		*spans = quill.AdjustDelete(*spans, st.Caret, end-st.Caret)
		res.Changed = true
		dirty = true
		return true
	}

	if in.Backspace {
		st.backspaceHeld = 0
		st.backspaceTimer = 0
		backspaceOnce()
	} else if in.BackspaceHeld {
		for n := stepRepeat(&st.backspaceHeld, &st.backspaceTimer, in.DeltaTime); n > 0; n-- {
			if !backspaceOnce() {
				break
			}
		}
	} else {
		st.backspaceHeld = 0
		st.backspaceTimer = 0
	}

	if in.Delete {
		st.deleteHeld = 0
		st.deleteTimer = 0
		deleteOnce()
	} else if in.DeleteHeld {
		for n := stepRepeat(&st.deleteHeld, &st.deleteTimer, in.DeltaTime); n > 0; n-- {
			if !deleteOnce() {
				break
			}
		}
	} else {
		st.deleteHeld = 0
		st.deleteTimer = 0
	}

	if in.Left {
		target := st.Caret - 1
		if in.Ctrl {
			target = quill.WordBoundaryLeft(buf.Runes(), st.Caret)
		}
		moveCaret(target, in.Shift)
	}
	if in.Right {
		target := st.Caret + 1
		if in.Ctrl {
			target = quill.WordBoundaryRight(buf.Runes(), st.Caret)
		}
		moveCaret(target, in.Shift)
	}

	if in.Home {
		ls := layout()
		li := LineIndexFor(ls, buf.Runes(), st.Caret)
		moveCaret(ls[li].Start, in.Shift)
	}
	if in.End {
		ls := layout()
		text := buf.Runes()
		li := LineIndexFor(ls, text, st.Caret)
		end := ls[li].End()
		if ls[li].Length > 0 && text[end-1] == '\n' {
			end--
		}
		moveCaret(end, in.Shift)
	}

	if in.Up {
		ls := layout()
		text := buf.Runes()
		li := LineIndexFor(ls, text, st.Caret)
		if li == 0 {
			res.NavigatedPastStart = true
		} else {
			x := LineOffsetX(text, ls[li], st.Caret, m)
			moveCaret(OffsetForX(text, ls[li-1], x, m), in.Shift)
		}
	}
	if in.Down {
		ls := layout()
		text := buf.Runes()
		li := LineIndexFor(ls, text, st.Caret)
		if li == len(ls)-1 {
			res.NavigatedPastEnd = true
		} else {
			x := LineOffsetX(text, ls[li], st.Caret, m)
			moveCaret(OffsetForX(text, ls[li+1], x, m), in.Shift)
		}
	}

	ls := layout()
	text := buf.Runes()
	res.Lines = ls
	res.CaretLine = LineIndexFor(ls, text, st.Caret)
	res.CaretX = LineOffsetX(text, ls[res.CaretLine], st.Caret, m)
	if lo, hi, ok := st.selectionRange(); ok {
		res.SelStart, res.SelEnd = lo, hi
	} else {
		res.SelStart, res.SelEnd = -1, -1
	}
	return res
}

// copySelection snapshots the selected text and its clipped spans, then
// pushes the text to the clipboard. Clipboard failures degrade to plain
// local copy; the snapshot still works within this process.
func (s *Session) copySelection(st *EditState, buf *quill.Buffer, spans []quill.Span) bool {
	lo, hi, ok := st.selectionRange()
	if !ok {
		return false
	}
	text := buf.Slice(lo, hi)
	s.snap = clipSnapshot{text: text, spans: quill.ClipSpans(spans, lo, hi)}
	_ = s.clip.WriteAll(text)
	return true
}

// paste replaces the selection with the clipboard text, inserting rune by
// rune so span adjustment and the capacity limit both apply. Carriage
// returns are always dropped; newlines are dropped in single-line fields.
// The style snapshot is re-applied only when the clipboard text is exactly
// the text we copied and every rune fit.
func (s *Session) paste(st *EditState, buf *quill.Buffer, spans *[]quill.Span, opts Options, deleteSelection func() bool, insertRune func(rune) bool) {
	text, err := s.clip.ReadAll()
	if err != nil || text == "" {
		return
	}
	deleteSelection()
	base := st.Caret
	total, got := 0, 0
	for _, ch := range text {
		total++
		if ch == '\r' {
			continue
		}
		if ch == '\n' && opts.SingleLine {
			continue
		}
		if insertRune(ch) {
			got++
		}
	}
	// Stripped or dropped runes would shift the snapshot offsets, so the
	// styles come back only for a complete verbatim insert.
	if got == total && got > 0 && text == s.snap.text {
		*spans = append(*spans, quill.OffsetSpans(s.snap.spans, base)...)
	}
}
