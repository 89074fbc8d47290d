package theme

import (
	"image/color"
)

// Theme defines the colour palette for the chart and the window chrome.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background behind the plot
	Foreground color.RGBA // Main text colour

	// Chart
	PlotBackground color.RGBA
	Grid           color.RGBA
	AxisText       color.RGBA
	AxisBackground color.RGBA
	CandleUp       color.RGBA
	CandleDown     color.RGBA

	// Overlay
	Handle       color.RGBA // Fill of selection handles
	HandleBorder color.RGBA
	Preview      color.RGBA // Uncommitted two-click shapes
	NoteText     color.RGBA

	// Toolbar
	ToolbarBackground      color.RGBA
	ButtonBackground       color.RGBA
	ButtonBackgroundHover  color.RGBA
	ButtonBackgroundActive color.RGBA
	ButtonText             color.RGBA
	ButtonBorder           color.RGBA

	// Floating menu and snackbar
	MenuBackground     color.RGBA
	MenuHover          color.RGBA
	MenuText           color.RGBA
	SnackbarBackground color.RGBA
	SnackbarText       color.RGBA
}

// Default returns the hardcoded dark theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:                   "Default",
		Background:             color.RGBA{19, 23, 34, 255},
		Foreground:             color.RGBA{209, 212, 220, 255},
		PlotBackground:         color.RGBA{19, 23, 34, 255},
		Grid:                   color.RGBA{42, 46, 57, 255},
		AxisText:               color.RGBA{178, 181, 190, 255},
		AxisBackground:         color.RGBA{24, 28, 39, 255},
		CandleUp:               color.RGBA{8, 153, 129, 255},
		CandleDown:             color.RGBA{242, 54, 69, 255},
		Handle:                 color.RGBA{255, 255, 255, 255},
		HandleBorder:           color.RGBA{41, 98, 255, 255},
		Preview:                color.RGBA{120, 123, 134, 255},
		NoteText:               color.RGBA{19, 23, 34, 255},
		ToolbarBackground:      color.RGBA{30, 34, 45, 255},
		ButtonBackground:       color.RGBA{42, 46, 57, 255},
		ButtonBackgroundHover:  color.RGBA{54, 58, 69, 255},
		ButtonBackgroundActive: color.RGBA{41, 98, 255, 255},
		ButtonText:             color.RGBA{209, 212, 220, 255},
		ButtonBorder:           color.RGBA{67, 70, 81, 255},
		MenuBackground:         color.RGBA{30, 34, 45, 255},
		MenuHover:              color.RGBA{42, 46, 57, 255},
		MenuText:               color.RGBA{209, 212, 220, 255},
		SnackbarBackground:     color.RGBA{255, 183, 77, 255},
		SnackbarText:           color.RGBA{19, 23, 34, 255},
	}
}
