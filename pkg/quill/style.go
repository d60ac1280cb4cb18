package quill

// StyleMask is a combinable set of inline style flags. The bits are
// independent: a range may be bold and underlined at the same time.
type StyleMask uint8

const (
	StyleBold StyleMask = 1 << iota
	StyleItalic
	StyleUnderline
	StyleStrikethrough
	StyleCode
	StyleHighlight
)

// Has reports whether every bit of flag is set in m.
func (m StyleMask) Has(flag StyleMask) bool {
	return m&flag == flag
}

func (m StyleMask) String() string {
	if m == 0 {
		return "plain"
	}
	names := []struct {
		bit  StyleMask
		name string
	}{
		{StyleBold, "bold"},
		{StyleItalic, "italic"},
		{StyleUnderline, "underline"},
		{StyleStrikethrough, "strikethrough"},
		{StyleCode, "code"},
		{StyleHighlight, "highlight"},
	}
	out := ""
	for _, n := range names {
		if m&n.bit == 0 {
			continue
		}
		if out != "" {
			out += "+"
		}
		out += n.name
	}
	return out
}
