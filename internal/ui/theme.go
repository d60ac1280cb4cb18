package ui

import "image/color"

// Theme collects the shell palette and the dp sizes of the fixed chrome
// bands. Dp values are scaled by the UI scale before use.
type Theme struct {
	AppBackground color.RGBA
	TopBar        color.RGBA
	Toolbar       color.RGBA
	Canvas        color.RGBA
	Page          color.RGBA
	Border        color.RGBA
	StatusBar     color.RGBA
	Accent        color.RGBA
	Shadow        color.RGBA

	Ink       color.RGBA
	InkFaint  color.RGBA
	Selection color.RGBA
	Caret     color.RGBA
	Highlight color.RGBA

	MenuHeightDp    int
	ToolbarHeightDp int
	StatusHeightDp  int
	PageMarginDp    int
}

func DefaultTheme() Theme {
	return Theme{
		AppBackground: color.RGBA{0xF4, 0xF4, 0xF1, 0xFF},
		TopBar:        color.RGBA{0x3A, 0x3F, 0x58, 0xFF},
		Toolbar:       color.RGBA{0xFA, 0xF9, 0xF6, 0xFF},
		Canvas:        color.RGBA{0xE6, 0xE5, 0xE0, 0xFF},
		Page:          color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		Border:        color.RGBA{0xC2, 0xC1, 0xBA, 0xFF},
		StatusBar:     color.RGBA{0xEF, 0xEE, 0xEA, 0xFF},
		Accent:        color.RGBA{0x3A, 0x3F, 0x58, 0xFF},
		Shadow:        color.RGBA{0xD0, 0xCF, 0xC8, 0xFF},

		Ink:       color.RGBA{0x22, 0x24, 0x2B, 0xFF},
		InkFaint:  color.RGBA{0x7A, 0x7D, 0x87, 0xFF},
		Selection: color.RGBA{0xBF, 0xD4, 0xF2, 0xFF},
		Caret:     color.RGBA{0x1B, 0x4F, 0xA8, 0xFF},
		Highlight: color.RGBA{0xFB, 0xEE, 0x9B, 0xFF},

		MenuHeightDp:    34,
		ToolbarHeightDp: 42,
		StatusHeightDp:  28,
		PageMarginDp:    24,
	}
}
