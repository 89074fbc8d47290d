package appstate

import (
	"image"

	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/render"
	"github.com/example/chartink/internal/theme"
)

const (
	toolbarHeight = 32
	statusHeight  = 22
	buttonPadX    = 10
	buttonGap     = 4
)

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StateActive
)

// Button represents an interactive toolbar element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, th *theme.Theme, state ButtonState)
	Label() string
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

type baseButton struct {
	label  string
	rect   image.Rectangle
	action func()
}

func (b *baseButton) Label() string             { return b.label }
func (b *baseButton) Rect() image.Rectangle     { return b.rect }
func (b *baseButton) SetRect(r image.Rectangle) { b.rect = r }

func (b *baseButton) Activate() {
	if b.action != nil {
		b.action()
	}
}

func (b *baseButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	bg := th.ButtonBackground
	switch state {
	case StateHover:
		bg = th.ButtonBackgroundHover
	case StateActive:
		bg = th.ButtonBackgroundActive
	}
	render.FillRect(dst, b.rect, bg)
	render.Rect(dst, b.rect, th.ButtonBorder, 1)
	w, h, _ := render.MeasureText(b.label, render.SizeNormal)
	render.DrawText(dst, b.rect.Min.X+(b.rect.Dx()-w)/2, b.rect.Min.Y+(b.rect.Dy()-h)/2, b.label, th.ButtonText, render.SizeNormal)
}

// ToolButton selects a drawing tool.
type ToolButton struct {
	baseButton
	Tool drawing.Tool
}

// ActionButton runs a one-shot command such as save or clear.
type ActionButton struct {
	baseButton
}

// Toolbar lays out buttons left to right along the top of the window.
type Toolbar struct {
	Buttons []Button
	hover   int
}

func newToolbar(buttons ...Button) *Toolbar {
	return &Toolbar{Buttons: buttons, hover: -1}
}

// Layout assigns button rectangles for a window of the given width. Buttons
// that do not fit get an empty rectangle.
func (tb *Toolbar) Layout(width int) {
	x := buttonGap
	for _, b := range tb.Buttons {
		w, _, _ := render.MeasureText(b.Label(), render.SizeNormal)
		w += 2 * buttonPadX
		if x+w > width {
			b.SetRect(image.Rectangle{})
			continue
		}
		b.SetRect(image.Rect(x, buttonGap, x+w, toolbarHeight-buttonGap))
		x += w + buttonGap
	}
}

// At returns the index of the button under p.
func (tb *Toolbar) At(p image.Point) (int, bool) {
	for i, b := range tb.Buttons {
		if p.In(b.Rect()) {
			return i, true
		}
	}
	return -1, false
}

// Hover records the hovered button and reports whether it changed.
func (tb *Toolbar) Hover(p image.Point) bool {
	i, _ := tb.At(p)
	if i == tb.hover {
		return false
	}
	tb.hover = i
	return true
}

// Draw paints the toolbar across the top of dst. The button for active is
// highlighted.
func (tb *Toolbar) Draw(dst *image.RGBA, th *theme.Theme, active drawing.Tool) {
	bar := image.Rect(0, 0, dst.Bounds().Dx(), toolbarHeight)
	render.FillRect(dst, bar, th.ToolbarBackground)
	for i, b := range tb.Buttons {
		if b.Rect().Empty() {
			continue
		}
		state := StateDefault
		if t, ok := b.(*ToolButton); ok && t.Tool == active {
			state = StateActive
		} else if i == tb.hover {
			state = StateHover
		}
		b.Draw(dst, th, state)
	}
}
