package appstate

import (
	"image"
	"time"

	"github.com/example/chartink/internal/render"
	"github.com/example/chartink/internal/theme"
)

const snackbarMaxWidth = 420

// snackbar is a transient message shown at the bottom of the chart.
type snackbar struct {
	message string
	until   time.Time
}

func (s *snackbar) Show(msg string, d time.Duration, now time.Time) {
	s.message = msg
	s.until = now.Add(d)
}

func (s *snackbar) Dismiss() { s.until = time.Time{} }

func (s *snackbar) Visible(now time.Time) bool {
	return s.message != "" && now.Before(s.until)
}

// Rect is the snackbar card inside area.
func (s *snackbar) Rect(area image.Rectangle) image.Rectangle {
	lines := render.WrapText(s.message, render.SizeNormal, snackbarMaxWidth)
	w := 0
	for _, l := range lines {
		lw, _, _ := render.MeasureText(l, render.SizeNormal)
		w = max(w, lw)
	}
	_, lh, _ := render.MeasureText("Mg", render.SizeNormal)
	h := len(lines)*lh + 16
	w += 24
	x := area.Min.X + (area.Dx()-w)/2
	y := area.Max.Y - h - 16
	return image.Rect(x, y, x+w, y+h)
}

func (s *snackbar) Draw(dst *image.RGBA, area image.Rectangle, th *theme.Theme, now time.Time) {
	if !s.Visible(now) {
		return
	}
	r := s.Rect(area)
	render.DropShadow(dst, r, render.DefaultShadowOptions())
	render.Card(dst, r, th.SnackbarBackground, th.SnackbarBackground)
	_, lh, _ := render.MeasureText("Mg", render.SizeNormal)
	for i, l := range render.WrapText(s.message, render.SizeNormal, snackbarMaxWidth) {
		render.DrawText(dst, r.Min.X+12, r.Min.Y+8+i*lh, l, th.SnackbarText, render.SizeNormal)
	}
}
