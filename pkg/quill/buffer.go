package quill

// Buffer is an editable rune sequence with a hard capacity. The storage
// grows on demand up to MaxLength; inserts past the cap are silently
// dropped, matching the interactive no-op policy of the editing engine.
// Runes rather than bytes keep every offset a whole character, so span
// and caret arithmetic never lands inside a code point.
type Buffer struct {
	runes []rune
	max   int
}

// DefaultMaxLength bounds buffers created without an explicit cap.
const DefaultMaxLength = 1 << 16

// NewBuffer creates a buffer holding text, capped at maxLength runes.
// A non-positive maxLength selects DefaultMaxLength. Text beyond the cap
// is cut off.
func NewBuffer(text string, maxLength int) *Buffer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	rs := []rune(text)
	if len(rs) > maxLength {
		rs = rs[:maxLength]
	}
	return &Buffer{runes: rs, max: maxLength}
}

// Len returns the logical length in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// MaxLength returns the capacity bound.
func (b *Buffer) MaxLength() int {
	return b.max
}

// Full reports whether the buffer is at capacity.
func (b *Buffer) Full() bool {
	return len(b.runes) >= b.max
}

// At returns the rune at pos, or 0 when pos is out of range.
func (b *Buffer) At(pos int) rune {
	if pos < 0 || pos >= len(b.runes) {
		return 0
	}
	return b.runes[pos]
}

// Runes exposes the backing slice for measurement and rendering. Callers
// must treat it as read-only; all mutation goes through InsertRune and
// DeleteRange so that span adjustment stays in lockstep.
func (b *Buffer) Runes() []rune {
	return b.runes
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	return string(b.runes)
}

// Slice returns the text of [start, end), both clamped.
func (b *Buffer) Slice(start, end int) string {
	start = b.Clamp(start)
	end = b.Clamp(end)
	if end <= start {
		return ""
	}
	return string(b.runes[start:end])
}

// Clamp forces pos into [0, Len()].
func (b *Buffer) Clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(b.runes) {
		return len(b.runes)
	}
	return pos
}

// InsertRune inserts ch at pos (clamped), shifting the tail right.
// Returns false without touching the buffer when it is at capacity.
func (b *Buffer) InsertRune(pos int, ch rune) bool {
	if len(b.runes) >= b.max {
		return false
	}
	pos = b.Clamp(pos)
	b.runes = append(b.runes, 0)
	copy(b.runes[pos+1:], b.runes[pos:])
	b.runes[pos] = ch
	return true
}

// DeleteRange removes [start, end), shifting the tail left. Bounds are
// clamped; an empty or inverted range is a no-op returning false.
func (b *Buffer) DeleteRange(start, end int) bool {
	start = b.Clamp(start)
	end = b.Clamp(end)
	if end <= start {
		return false
	}
	b.runes = append(b.runes[:start], b.runes[end:]...)
	return true
}
