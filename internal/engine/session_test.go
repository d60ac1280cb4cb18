package engine

import (
	"testing"

	"quill/pkg/quill"
)

func TestStateCreatedLazilyWithCaretAtEnd(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("hello", 0)
	var spans []quill.Span

	if _, ok := s.State(7); ok {
		t.Fatalf("state should not exist before the first update")
	}
	s.Update(7, buf, &spans, Input{Frame: 1}, wideGeom(), gridMetrics{}, Options{})
	st, ok := s.State(7)
	if !ok {
		t.Fatalf("update should create the state")
	}
	if st.Caret != 5 || st.SelectionStart != -1 {
		t.Fatalf("fresh state should sit at the end with no selection: %+v", st)
	}
}

func TestSweepPrunesStaleStates(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("x", 0)
	var spans []quill.Span

	s.Update(1, buf, &spans, Input{Frame: 100}, wideGeom(), gridMetrics{}, Options{})
	s.Update(2, buf, &spans, Input{Frame: 650}, wideGeom(), gridMetrics{}, Options{})

	s.Sweep(700)
	if _, ok := s.State(1); !ok {
		t.Fatalf("state 1 is exactly at the threshold and should survive")
	}
	s.Sweep(701)
	if _, ok := s.State(1); ok {
		t.Fatalf("state 1 should be pruned past the threshold")
	}
	if _, ok := s.State(2); !ok {
		t.Fatalf("state 2 is recent and should survive")
	}
}

func TestSetStateAndRemove(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	s.SetState(3, EditState{Caret: 2, SelectionStart: 0, SelectionEnd: 2})
	st, ok := s.State(3)
	if !ok || st.Caret != 2 || st.SelectionStart != 0 || st.SelectionEnd != 2 {
		t.Fatalf("unexpected state after set: %+v", st)
	}
	s.Remove(3)
	if _, ok := s.State(3); ok {
		t.Fatalf("state should be gone after remove")
	}
}

func TestStateClampedToShrunkenBuffer(t *testing.T) {
	s := NewSession(&fakeClipboard{})
	buf := quill.NewBuffer("abc", 0)
	var spans []quill.Span
	s.SetState(1, EditState{Caret: 99, SelectionStart: 50, SelectionEnd: 80})

	res := s.Update(1, buf, &spans, Input{}, wideGeom(), gridMetrics{}, Options{})
	st, _ := s.State(1)
	if st.Caret != 3 {
		t.Fatalf("caret should clamp to the buffer length, got %d", st.Caret)
	}
	if res.SelStart != -1 {
		t.Fatalf("clamped selection collapsed to a point and should read as none")
	}
}
