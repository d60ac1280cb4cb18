package engine

import "quill/pkg/quill"

// WidgetID identifies one editable text field to the session. The host
// assigns IDs; the engine only compares them.
type WidgetID uint64

// staleFrameThreshold is how many frames a field may go without an Update
// before Sweep discards its edit state.
const staleFrameThreshold = 600

// EditState is the per-field editing record. Caret is a rune offset into
// the field's buffer. SelectionStart below zero means no selection;
// SelectionEnd tracks the caret while a selection is active and may sit
// before SelectionStart for a backward sweep.
type EditState struct {
	Caret          int
	SelectionStart int
	SelectionEnd   int

	lastSeenFrame uint64

	backspaceHeld  float64
	backspaceTimer float64
	deleteHeld     float64
	deleteTimer    float64

	// lastDoubleTime is negative until a double click has happened, so a
	// field's first clicks can never read as a triple.
	lastDoubleTime float64
	lastDoubleX    float64
	lastDoubleY    float64

	wasCopyDown  bool
	wasCutDown   bool
	wasPasteDown bool
}

// selectionRange returns the normalized non-empty selection.
func (st *EditState) selectionRange() (lo, hi int, ok bool) {
	if st.SelectionStart < 0 {
		return 0, 0, false
	}
	lo, hi = st.SelectionStart, st.SelectionEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return 0, 0, false
	}
	return lo, hi, true
}

func (st *EditState) clearSelection() {
	st.SelectionStart = -1
	st.SelectionEnd = -1
}

func (st *EditState) clampTo(length int) {
	if st.Caret < 0 {
		st.Caret = 0
	}
	if st.Caret > length {
		st.Caret = length
	}
	if st.SelectionStart >= 0 {
		if st.SelectionStart > length {
			st.SelectionStart = length
		}
		if st.SelectionEnd < 0 {
			st.SelectionEnd = 0
		}
		if st.SelectionEnd > length {
			st.SelectionEnd = length
		}
	}
}

// clipSnapshot remembers what we last put on the system clipboard, with
// the styles that covered it, rebased to the copied range. The styles are
// restored on paste only while the live clipboard still carries exactly
// this text.
type clipSnapshot struct {
	text  string
	spans []quill.Span
}

// Session owns the edit state of every field the host feeds through
// Update, plus the shared clipboard snapshot. One session per window is
// the expected shape; Session is not safe for concurrent use.
type Session struct {
	states map[WidgetID]*EditState
	clip   Clipboard
	snap   clipSnapshot
}

// NewSession builds a session around the given clipboard. A nil clipboard
// falls back to the system clipboard.
func NewSession(clip Clipboard) *Session {
	if clip == nil {
		clip = SystemClipboard{}
	}
	return &Session{
		states: make(map[WidgetID]*EditState),
		clip:   clip,
	}
}

// state fetches the record for id, lazily creating one with the caret at
// the end of the field's current text.
func (s *Session) state(id WidgetID, length int, frame uint64) *EditState {
	st, ok := s.states[id]
	if !ok {
		st = &EditState{
			Caret:          length,
			SelectionStart: -1,
			SelectionEnd:   -1,
			lastDoubleTime: -1,
		}
		s.states[id] = st
	}
	st.lastSeenFrame = frame
	return st
}

// State returns a copy of the edit state for id.
func (s *Session) State(id WidgetID) (EditState, bool) {
	st, ok := s.states[id]
	if !ok {
		return EditState{}, false
	}
	return *st, true
}

// SetState overwrites the caret and selection for id, creating the record
// if the field has never been updated. Hold timers and clipboard state are
// untouched.
func (s *Session) SetState(id WidgetID, state EditState) {
	st, ok := s.states[id]
	if !ok {
		st = &EditState{SelectionStart: -1, SelectionEnd: -1, lastDoubleTime: -1}
		s.states[id] = st
	}
	st.Caret = state.Caret
	st.SelectionStart = state.SelectionStart
	st.SelectionEnd = state.SelectionEnd
}

// Remove drops the edit state for id.
func (s *Session) Remove(id WidgetID) {
	delete(s.states, id)
}

// Sweep discards edit state for fields that have not been updated within
// staleFrameThreshold frames of now. The host calls this once per frame
// after all fields have run.
func (s *Session) Sweep(now uint64) {
	for id, st := range s.states {
		if now-st.lastSeenFrame > staleFrameThreshold {
			delete(s.states, id)
		}
	}
}
