// Package typeface owns font parsing, face caching, and text measurement.
// It backs both UI chrome text and the editor's metrics needs.
package typeface

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type faceKey struct {
	size   int
	bold   bool
	italic bool
	scale  int
}

// Bank parses the four Go font variants once and hands out cached faces
// per size, style, and UI scale. A parse failure leaves the slot nil and
// Face falls back to the basicfont bitmap face, so the editor stays usable.
type Bank struct {
	regular    *opentype.Font
	bold       *opentype.Font
	italic     *opentype.Font
	boldItalic *opentype.Font
	cache      map[faceKey]font.Face
}

func NewBank() *Bank {
	b := &Bank{cache: map[faceKey]font.Face{}}
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		b.regular = f
	}
	if f, err := opentype.Parse(gobold.TTF); err == nil {
		b.bold = f
	}
	if f, err := opentype.Parse(goitalic.TTF); err == nil {
		b.italic = f
	}
	if f, err := opentype.Parse(gobolditalic.TTF); err == nil {
		b.boldItalic = f
	}
	return b
}

// Face returns a cached face for the given point size, style, and UI scale.
func (b *Bank) Face(size int, bold, italic bool, scale float32) font.Face {
	if scale <= 0 {
		scale = 1
	}
	key := faceKey{size: size, bold: bold, italic: italic, scale: int(math.Round(float64(scale) * 1000))}
	if f, ok := b.cache[key]; ok {
		return f
	}
	var base *opentype.Font
	switch {
	case bold && italic:
		base = b.boldItalic
	case bold:
		base = b.bold
	case italic:
		base = b.italic
	default:
		base = b.regular
	}
	if base == nil {
		return basicfont.Face7x13
	}
	opts := &opentype.FaceOptions{Size: float64(size) * float64(scale), DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(base, opts)
	if err != nil {
		return basicfont.Face7x13
	}
	b.cache[key] = face
	return face
}

// MeasureString returns the pixel advance of s under face, rounded to the
// nearest pixel from 26.6 fixed point.
func MeasureString(face font.Face, s string) int {
	if face == nil || s == "" {
		return 0
	}
	adv := font.MeasureString(face, s)
	px := (int(adv) + 32) >> 6
	if px < 0 {
		px = 0
	}
	return px
}

// LineHeight returns the face's line spacing in pixels.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Round()
}

// Metrics adapts a face to the editor's measurement interface. Newlines
// report zero advance so caret math never counts them.
type Metrics struct {
	face font.Face
}

func NewMetrics(face font.Face) Metrics {
	return Metrics{face: face}
}

func (m Metrics) Measure(text []rune) float64 {
	w := 0.0
	for _, ch := range text {
		w += m.Advance(ch)
	}
	return w
}

func (m Metrics) Advance(ch rune) float64 {
	if ch == '\n' || m.face == nil {
		return 0
	}
	adv, ok := m.face.GlyphAdvance(ch)
	if !ok {
		adv, _ = m.face.GlyphAdvance('?')
	}
	return float64(adv) / 64
}
