package ui

import "quill/internal/render"

// Layout is the pixel placement of the shell bands and the centered page
// for one frame. Content coordinates are where field text goes.
type Layout struct {
	MenuH    int
	ToolbarH int
	StatusH  int
	CanvasY  int
	CanvasH  int
	PageX    int
	PageY    int
	PageW    int
	PageH    int
	ContentX int
	ContentY int
	ContentW int
	ContentH int
	StatusY  int
}

func ComputeLayout(w, h int, theme Theme, scale float32) Layout {
	if scale <= 0 {
		scale = 1
	}
	dp := func(v int) int { return int(float32(v) * scale) }

	menuH := dp(theme.MenuHeightDp)
	toolbarH := dp(theme.ToolbarHeightDp)
	statusH := dp(theme.StatusHeightDp)
	margin := dp(theme.PageMarginDp)

	canvasY := menuH + toolbarH
	canvasH := h - canvasY - statusH
	if canvasH < 0 {
		canvasH = 0
	}

	pageW := w - margin*2
	pageH := canvasH - margin*2
	if pageW > dp(860) {
		pageW = dp(860)
	}
	if pageW < dp(320) {
		pageW = dp(320)
	}
	if pageH < dp(200) {
		pageH = dp(200)
	}
	pageX := (w - pageW) / 2
	pageY := canvasY + margin
	pad := dp(20)

	contentW := pageW - pad*2
	contentH := pageH - pad*2
	if contentW < dp(100) {
		contentW = dp(100)
	}
	if contentH < dp(100) {
		contentH = dp(100)
	}

	return Layout{
		MenuH:    menuH,
		ToolbarH: toolbarH,
		StatusH:  statusH,
		CanvasY:  canvasY,
		CanvasH:  canvasH,
		PageX:    pageX,
		PageY:    pageY,
		PageW:    pageW,
		PageH:    pageH,
		ContentX: pageX + pad,
		ContentY: pageY + pad,
		ContentW: contentW,
		ContentH: contentH,
		StatusY:  h - statusH,
	}
}

// DrawShell paints the fixed chrome: top bar, toolbar, canvas, the page
// with its drop shadow and accent rule, and the status bar. Text labels
// are drawn later by the app on top of the GPU image.
func DrawShell(fb *render.FrameBuffer, theme Theme, scale float32) Layout {
	layout := ComputeLayout(fb.W, fb.H, theme, scale)

	fb.Clear(theme.AppBackground)

	fb.FillRect(0, 0, fb.W, layout.MenuH, theme.TopBar)
	fb.FillRect(0, layout.MenuH, fb.W, layout.ToolbarH, theme.Toolbar)
	fb.StrokeRect(0, 0, fb.W, layout.MenuH+layout.ToolbarH, 1, theme.Border)

	fb.FillRect(0, layout.CanvasY, fb.W, layout.CanvasH, theme.Canvas)

	fb.FillRect(layout.PageX+2, layout.PageY+2, layout.PageW, layout.PageH, theme.Shadow)
	fb.FillRect(layout.PageX, layout.PageY, layout.PageW, layout.PageH, theme.Page)
	fb.StrokeRect(layout.PageX, layout.PageY, layout.PageW, layout.PageH, 1, theme.Border)

	accentH := int(3 * scale)
	if accentH < 1 {
		accentH = 1
	}
	fb.FillRect(layout.PageX, layout.PageY, layout.PageW, accentH, theme.Accent)

	fb.FillRect(0, layout.StatusY, fb.W, layout.StatusH, theme.StatusBar)
	fb.StrokeRect(0, layout.StatusY, fb.W, layout.StatusH, 1, theme.Border)

	return layout
}
