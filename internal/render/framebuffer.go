// Package render holds the software framebuffer the shell chrome and the
// field decorations are composed into before being pushed to the GPU once
// per frame.
package render

import "image/color"

// FrameBuffer is an RGBA pixel grid with a horizontal clip band. Chrome
// draws over the full height; before the per-field decorations (selection,
// highlight, caret) the app narrows the band to the page content rows so
// scrolled content cannot bleed into the bars above and below the page.
type FrameBuffer struct {
	W      int
	H      int
	Pixels []uint8

	clipTop    int
	clipBottom int
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &FrameBuffer{W: w, H: h, Pixels: make([]uint8, w*h*4), clipBottom: h}
}

// SetClipBand restricts subsequent fills to rows [top, bottom), clamped to
// the buffer height.
func (fb *FrameBuffer) SetClipBand(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom > fb.H {
		bottom = fb.H
	}
	if bottom < top {
		bottom = top
	}
	fb.clipTop, fb.clipBottom = top, bottom
}

// ResetClip restores full-height drawing.
func (fb *FrameBuffer) ResetClip() {
	fb.clipTop, fb.clipBottom = 0, fb.H
}

// Clear floods every pixel, ignoring the clip band.
func (fb *FrameBuffer) Clear(c color.RGBA) {
	for i := 0; i < len(fb.Pixels); i += 4 {
		fb.Pixels[i+0] = c.R
		fb.Pixels[i+1] = c.G
		fb.Pixels[i+2] = c.B
		fb.Pixels[i+3] = c.A
	}
}

// FillRect fills [x, x+w) x [y, y+h), clipped to the buffer bounds and the
// active clip band.
func (fb *FrameBuffer) FillRect(x, y, w, h int, c color.RGBA) {
	x0, x1 := x, x+w
	y0, y1 := y, y+h
	if x0 < 0 {
		x0 = 0
	}
	if x1 > fb.W {
		x1 = fb.W
	}
	if y0 < fb.clipTop {
		y0 = fb.clipTop
	}
	if y1 > fb.clipBottom {
		y1 = fb.clipBottom
	}
	for row := y0; row < y1; row++ {
		fb.fillSpan(row, x0, x1, c)
	}
}

// StrokeRect outlines the rectangle with a border of the given thickness,
// drawn inward.
func (fb *FrameBuffer) StrokeRect(x, y, w, h, line int, c color.RGBA) {
	if line <= 0 {
		line = 1
	}
	fb.FillRect(x, y, w, line, c)
	fb.FillRect(x, y+h-line, w, line, c)
	fb.FillRect(x, y+line, line, h-2*line, c)
	fb.FillRect(x+w-line, y+line, line, h-2*line, c)
}

// fillSpan writes one horizontal run. Callers pass pre-clipped bounds.
func (fb *FrameBuffer) fillSpan(y, x0, x1 int, c color.RGBA) {
	idx := (y*fb.W + x0) * 4
	for x := x0; x < x1; x++ {
		fb.Pixels[idx+0] = c.R
		fb.Pixels[idx+1] = c.G
		fb.Pixels[idx+2] = c.B
		fb.Pixels[idx+3] = c.A
		idx += 4
	}
}
