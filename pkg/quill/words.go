package quill

import "unicode"

// IsWordRune classifies runes for word navigation: letters and digits are
// word characters, everything else is a separator.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// WordBoundaryLeft scans left from pos: first over separators, then over
// word characters, returning the start of the word preceding pos. This is
// what Ctrl+Left and word backspace land on.
func WordBoundaryLeft(text []rune, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	for pos > 0 && !IsWordRune(text[pos-1]) {
		pos--
	}
	for pos > 0 && IsWordRune(text[pos-1]) {
		pos--
	}
	return pos
}

// WordBoundaryRight scans right from pos: first over word characters, then
// over the trailing separator run. The asymmetry with WordBoundaryLeft is
// deliberate: jumping right lands past the whitespace after a word, the
// usual editor convention.
func WordBoundaryRight(text []rune, pos int) int {
	if pos < 0 {
		pos = 0
	}
	for pos < len(text) && IsWordRune(text[pos]) {
		pos++
	}
	for pos < len(text) && !IsWordRune(text[pos]) {
		pos++
	}
	return pos
}

// WordAt returns the word range [start, end) containing pos, used by
// double-click selection. pos is clamped into the buffer; on a separator
// character the "word" is that single character. An empty buffer yields
// the degenerate range [0, 0).
func WordAt(text []rune, pos int) (int, int) {
	if len(text) == 0 {
		return 0, 0
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(text)-1 {
		pos = len(text) - 1
	}
	if !IsWordRune(text[pos]) {
		return pos, pos + 1
	}
	start, end := pos, pos+1
	for start > 0 && IsWordRune(text[start-1]) {
		start--
	}
	for end < len(text) && IsWordRune(text[end]) {
		end++
	}
	return start, end
}
