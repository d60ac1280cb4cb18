package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/pkg/quill"
)

// gridMetrics is a fixed-advance fake: every glyph is 10px wide, newlines
// take no space. Keeps pixel math in tests exact.
type gridMetrics struct{}

func (gridMetrics) Advance(ch rune) float64 {
	if ch == '\n' {
		return 0
	}
	return 10
}

func (g gridMetrics) Measure(text []rune) float64 {
	w := 0.0
	for _, ch := range text {
		w += g.Advance(ch)
	}
	return w
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) ReadAll() (string, error) {
	return f.text, f.err
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func wideGeom() Geometry {
	return Geometry{X: 0, Y: 0, Width: 0, LineHeight: 20}
}

func TestTypingInsertsAtCaretAndGrowsSpan(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("bold", 0)
	spans := []quill.Span{{Start: 0, Length: 4, Style: quill.StyleBold}}
	s.SetState(1, EditState{Caret: 2, SelectionStart: -1, SelectionEnd: -1})

	res := s.Update(1, buf, &spans, Input{Chars: []rune("xy")}, wideGeom(), gridMetrics{}, Options{})
	if !res.Changed {
		t.Fatalf("typing should report a change")
	}
	if got := buf.String(); got != "boxyld" {
		t.Fatalf("unexpected buffer: %q", got)
	}
	want := []quill.Span{{Start: 0, Length: 6, Style: quill.StyleBold}}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Fatalf("span mismatch (-want +got):\n%s", diff)
	}
	st, _ := s.State(1)
	if st.Caret != 4 {
		t.Fatalf("caret should sit after the inserted runes, got %d", st.Caret)
	}
}

func TestTypingReplacesSelection(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("hello world", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 5, SelectionStart: 0, SelectionEnd: 5})

	s.Update(1, buf, &spans, Input{Chars: []rune("Hi")}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "Hi world" {
		t.Fatalf("unexpected buffer: %q", got)
	}
	st, _ := s.State(1)
	if st.Caret != 2 || st.SelectionStart >= 0 {
		t.Fatalf("selection should collapse to the caret: %+v", st)
	}
}

func TestEnterIgnoredInSingleLineField(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("title", 0)
	var spans []quill.Span
	s.Update(1, buf, &spans, Input{Enter: true}, wideGeom(), gridMetrics{}, Options{SingleLine: true})
	if got := buf.String(); got != "title" {
		t.Fatalf("single-line field accepted a newline: %q", got)
	}
	s.Update(1, buf, &spans, Input{Enter: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "title\n" {
		t.Fatalf("multi-line field should accept Enter: %q", got)
	}
}

func TestBackspaceWordDeletesToBoundary(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("hello brave world", 0)
	var spans []quill.Span
	// State is created lazily with the caret at the end of the text.
	s.Update(1, buf, &spans, Input{Backspace: true, Ctrl: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "hello brave " {
		t.Fatalf("unexpected buffer: %q", got)
	}
	st, _ := s.State(1)
	if st.Caret != 12 {
		t.Fatalf("caret should land at the word start, got %d", st.Caret)
	}
}

func TestDeleteForwardAndAtEndNoop(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("ab", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 1, SelectionStart: -1, SelectionEnd: -1})
	s.Update(1, buf, &spans, Input{Delete: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "a" {
		t.Fatalf("unexpected buffer: %q", got)
	}
	res := s.Update(1, buf, &spans, Input{Delete: true}, wideGeom(), gridMetrics{}, Options{})
	if res.Changed || buf.String() != "a" {
		t.Fatalf("delete at end of buffer should be a no-op")
	}
}

func TestBackspaceOnEmptyBufferNoop(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("", 0)
	var spans []quill.Span

	res := s.Update(1, buf, &spans, Input{Backspace: true}, wideGeom(), gridMetrics{}, Options{})
	if res.Changed {
		t.Fatalf("backspace on an empty buffer must not report a change")
	}
	st, _ := s.State(1)
	if st.Caret != 0 || buf.Len() != 0 {
		t.Fatalf("empty-buffer backspace moved state: caret %d, len %d", st.Caret, buf.Len())
	}
}

func TestShiftArrowsExtendSelection(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("abcdef", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 2, SelectionStart: -1, SelectionEnd: -1})

	res := s.Update(1, buf, &spans, Input{Right: true, Shift: true}, wideGeom(), gridMetrics{}, Options{})
	if res.SelStart != 2 || res.SelEnd != 3 {
		t.Fatalf("unexpected selection [%d,%d)", res.SelStart, res.SelEnd)
	}
	res = s.Update(1, buf, &spans, Input{Right: true, Shift: true}, wideGeom(), gridMetrics{}, Options{})
	if res.SelStart != 2 || res.SelEnd != 4 {
		t.Fatalf("selection should keep its anchor: [%d,%d)", res.SelStart, res.SelEnd)
	}
	// A plain arrow clears the selection.
	res = s.Update(1, buf, &spans, Input{Left: true}, wideGeom(), gridMetrics{}, Options{})
	if res.SelStart != -1 {
		t.Fatalf("plain arrow should clear the selection")
	}
}

func TestCtrlArrowsJumpWords(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("foo  bar", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 0, SelectionStart: -1, SelectionEnd: -1})
	s.Update(1, buf, &spans, Input{Right: true, Ctrl: true}, wideGeom(), gridMetrics{}, Options{})
	st, _ := s.State(1)
	if st.Caret != 5 {
		t.Fatalf("right word jump should pass trailing separators, got %d", st.Caret)
	}
	s.Update(1, buf, &spans, Input{Left: true, Ctrl: true}, wideGeom(), gridMetrics{}, Options{})
	st, _ = s.State(1)
	if st.Caret != 0 {
		t.Fatalf("left word jump should land on the word start, got %d", st.Caret)
	}
}

func TestSelectAll(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("abc", 0)
	var spans []quill.Span
	res := s.Update(1, buf, &spans, Input{SelectAll: true}, wideGeom(), gridMetrics{}, Options{})
	if res.SelStart != 0 || res.SelEnd != 3 {
		t.Fatalf("unexpected selection [%d,%d)", res.SelStart, res.SelEnd)
	}
}

func TestVerticalNavigationKeepsColumn(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("abcdef\nxy\nlonger", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 4, SelectionStart: -1, SelectionEnd: -1})

	// Down from column 4 of "abcdef" lands at the end of "xy".
	s.Update(1, buf, &spans, Input{Down: true}, wideGeom(), gridMetrics{}, Options{})
	st, _ := s.State(1)
	if st.Caret != 9 {
		t.Fatalf("down should clamp to the shorter line end, got %d", st.Caret)
	}
	// Down again reaches "longer" at column 2.
	s.Update(1, buf, &spans, Input{Down: true}, wideGeom(), gridMetrics{}, Options{})
	st, _ = s.State(1)
	if st.Caret != 12 {
		t.Fatalf("unexpected caret after second down: %d", st.Caret)
	}
}

func TestVerticalNavigationSignalsPastEdges(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("one\ntwo", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 1, SelectionStart: -1, SelectionEnd: -1})

	res := s.Update(1, buf, &spans, Input{Up: true}, wideGeom(), gridMetrics{}, Options{})
	if !res.NavigatedPastStart {
		t.Fatalf("up on the first line should signal past-start")
	}
	st, _ := s.State(1)
	if st.Caret != 1 {
		t.Fatalf("past-start must not move the caret, got %d", st.Caret)
	}

	s.SetState(1, EditState{Caret: 6, SelectionStart: -1, SelectionEnd: -1})
	res = s.Update(1, buf, &spans, Input{Down: true}, wideGeom(), gridMetrics{}, Options{})
	if !res.NavigatedPastEnd {
		t.Fatalf("down on the last line should signal past-end")
	}
}

func TestHomeEndStopBeforeNewline(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("first\nsecond", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 2, SelectionStart: -1, SelectionEnd: -1})

	s.Update(1, buf, &spans, Input{End: true}, wideGeom(), gridMetrics{}, Options{})
	st, _ := s.State(1)
	if st.Caret != 5 {
		t.Fatalf("end should stop before the newline, got %d", st.Caret)
	}
	s.Update(1, buf, &spans, Input{Home: true}, wideGeom(), gridMetrics{}, Options{})
	st, _ = s.State(1)
	if st.Caret != 0 {
		t.Fatalf("home should land on the line start, got %d", st.Caret)
	}
}

func TestStyleToggleRequiresSelection(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("styled", 0)
	var spans []quill.Span

	res := s.Update(1, buf, &spans, Input{ToggleBold: true}, wideGeom(), gridMetrics{}, Options{})
	if res.StyleToggle != 0 {
		t.Fatalf("toggle without selection should be silent, got %v", res.StyleToggle)
	}

	s.SetState(1, EditState{Caret: 6, SelectionStart: 0, SelectionEnd: 6})
	res = s.Update(1, buf, &spans, Input{ToggleBold: true, ToggleUnderline: true}, wideGeom(), gridMetrics{}, Options{})
	if res.StyleToggle != quill.StyleBold|quill.StyleUnderline {
		t.Fatalf("unexpected toggle mask: %v", res.StyleToggle)
	}
	if res.Changed {
		t.Fatalf("style toggles must not mutate the buffer")
	}
}

func TestDoubleClickSelectsWordAndTripleSelectsAll(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("hello world", 0)
	var spans []quill.Span
	geom := wideGeom()

	// Double click at 85px sits inside "world" (offset 8 on the 10px grid).
	in := Input{MouseDoubleClick: true, MouseX: 85, MouseY: 5, Time: 1.0}
	res := s.Update(1, buf, &spans, in, geom, gridMetrics{}, Options{})
	if res.SelStart != 6 || res.SelEnd != 11 {
		t.Fatalf("double click should select the word: [%d,%d)", res.SelStart, res.SelEnd)
	}

	// A third click nearby inside the window selects the whole field.
	in = Input{MousePressed: true, MouseX: 86, MouseY: 6, Time: 1.3}
	res = s.Update(1, buf, &spans, in, geom, gridMetrics{}, Options{})
	if res.SelStart != 0 || res.SelEnd != 11 {
		t.Fatalf("triple click should select everything: [%d,%d)", res.SelStart, res.SelEnd)
	}

	// Too late for a triple: a plain click just moves the caret.
	in = Input{MousePressed: true, MouseX: 25, MouseY: 5, Time: 2.5}
	res = s.Update(1, buf, &spans, in, geom, gridMetrics{}, Options{})
	if res.SelStart != -1 {
		t.Fatalf("late click should not select: [%d,%d)", res.SelStart, res.SelEnd)
	}
	st, _ := s.State(1)
	if st.Caret != 3 {
		t.Fatalf("unexpected caret from click: %d", st.Caret)
	}
}

func TestFirstClickNearOriginIsPlainClick(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("hello world", 0)
	var spans []quill.Span

	// Early in the clock, close to (0,0): without a prior double click
	// this must position the caret, not select the field.
	in := Input{MousePressed: true, MouseX: 2, MouseY: 2, Time: 0.1}
	res := s.Update(1, buf, &spans, in, wideGeom(), gridMetrics{}, Options{})
	if res.SelStart != -1 {
		t.Fatalf("plain first click selected [%d,%d)", res.SelStart, res.SelEnd)
	}
	st, _ := s.State(1)
	if st.Caret != 0 {
		t.Fatalf("unexpected caret from click: %d", st.Caret)
	}
}

func TestClickDragExtendsSelection(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("abcdef", 0)
	var spans []quill.Span
	geom := wideGeom()

	s.Update(1, buf, &spans, Input{MousePressed: true, MouseDown: true, MouseX: 12, MouseY: 5}, geom, gridMetrics{}, Options{})
	res := s.Update(1, buf, &spans, Input{MouseDown: true, MouseX: 42, MouseY: 5}, geom, gridMetrics{}, Options{})
	if res.SelStart != 1 || res.SelEnd != 4 {
		t.Fatalf("drag should sweep a selection: [%d,%d)", res.SelStart, res.SelEnd)
	}
}

func TestCopyCutPasteRestoresStyles(t *testing.T) {
	clip := &fakeClipboard{}
	s := NewSession(clip)
	buf := quill.NewBuffer("plain bold tail", 0)
	spans := []quill.Span{{Start: 6, Length: 4, Style: quill.StyleBold}}
	s.SetState(1, EditState{Caret: 10, SelectionStart: 6, SelectionEnd: 10})

	s.Update(1, buf, &spans, Input{CutDown: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "plain  tail" {
		t.Fatalf("unexpected buffer after cut: %q", got)
	}
	if clip.text != "bold" {
		t.Fatalf("clipboard should hold the cut text, got %q", clip.text)
	}
	if len(spans) != 0 {
		t.Fatalf("cut should remove the emptied span, got %v", spans)
	}

	// Paste at the end restores the bold span at the new position.
	s.SetState(1, EditState{Caret: 11, SelectionStart: -1, SelectionEnd: -1})
	s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "plain  tailbold" {
		t.Fatalf("unexpected buffer after paste: %q", got)
	}
	want := []quill.Span{{Start: 11, Length: 4, Style: quill.StyleBold}}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Fatalf("span mismatch after paste (-want +got):\n%s", diff)
	}
}

func TestPasteSkipsStylesWhenClipboardChanged(t *testing.T) {
	clip := &fakeClipboard{}
	s := NewSession(clip)
	buf := quill.NewBuffer("bold rest", 0)
	spans := []quill.Span{{Start: 0, Length: 4, Style: quill.StyleBold}}
	s.SetState(1, EditState{Caret: 4, SelectionStart: 0, SelectionEnd: 4})

	s.Update(1, buf, &spans, Input{CopyDown: true}, wideGeom(), gridMetrics{}, Options{})

	// Another program replaces the clipboard contents.
	clip.text = "cold"
	s.SetState(1, EditState{Caret: 9, SelectionStart: -1, SelectionEnd: -1})
	s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "bold restcold" {
		t.Fatalf("unexpected buffer: %q", got)
	}
	want := []quill.Span{{Start: 0, Length: 4, Style: quill.StyleBold}}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Fatalf("stale snapshot must not restyle the paste (-want +got):\n%s", diff)
	}
}

func TestPasteStripsCarriageReturnsAndSingleLineNewlines(t *testing.T) {
	clip := &fakeClipboard{text: "one\r\ntwo"}
	s := NewSession(clip)
	buf := quill.NewBuffer("", 0)
	var spans []quill.Span

	s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{SingleLine: true})
	if got := buf.String(); got != "onetwo" {
		t.Fatalf("single-line paste kept a line break: %q", got)
	}

	buf2 := quill.NewBuffer("", 0)
	s.Update(2, buf2, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf2.String(); got != "one\ntwo" {
		t.Fatalf("multi-line paste should keep the newline: %q", got)
	}
}

func TestChordHeldAcrossFramesFiresOnce(t *testing.T) {
	clip := &fakeClipboard{text: "x"}
	s := NewSession(clip)
	buf := quill.NewBuffer("", 0)
	var spans []quill.Span

	s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "x" {
		t.Fatalf("held paste chord should fire once, got %q", got)
	}
	s.Update(1, buf, &spans, Input{}, wideGeom(), gridMetrics{}, Options{})
	s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "xx" {
		t.Fatalf("re-pressed chord should fire again, got %q", got)
	}
}

func TestClipboardErrorDegradesSilently(t *testing.T) {
	clip := &fakeClipboard{err: errors.New("no clipboard")}
	s := NewSession(clip)
	buf := quill.NewBuffer("abc", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 3, SelectionStart: 0, SelectionEnd: 3})

	res := s.Update(1, buf, &spans, Input{CopyDown: true}, wideGeom(), gridMetrics{}, Options{})
	if res.Changed {
		t.Fatalf("failed copy must not report a change")
	}
	res = s.Update(1, buf, &spans, Input{PasteDown: true}, wideGeom(), gridMetrics{}, Options{})
	if res.Changed || buf.String() != "abc" {
		t.Fatalf("failed paste must be a no-op")
	}
}

func TestCapacityOverflowDropsTypedRunes(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("abcd", 5)
	var spans []quill.Span
	res := s.Update(1, buf, &spans, Input{Chars: []rune("xyz")}, wideGeom(), gridMetrics{}, Options{})
	if got := buf.String(); got != "abcdx" {
		t.Fatalf("overflow should drop the excess runes: %q", got)
	}
	if !res.Changed {
		t.Fatalf("the accepted rune still counts as a change")
	}
}
