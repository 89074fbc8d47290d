package overlay

import (
	"image"

	"github.com/example/chartink/internal/render"
	"github.com/example/chartink/internal/theme"
)

// MenuItem is an entry of the floating menu.
type MenuItem int

const (
	MenuDelete MenuItem = iota
	MenuSendToChat
	MenuEditText
)

func (m MenuItem) String() string {
	switch m {
	case MenuDelete:
		return "Delete"
	case MenuSendToChat:
		return "Send to chat"
	case MenuEditText:
		return "Edit text"
	}
	return "?"
}

const (
	menuItemHeight = 24
	menuWidth      = 120
	menuGap        = 10
)

// Menu is the floating contextual menu for the selected annotation.
type Menu struct {
	ID     string
	Anchor image.Point
	Items  []MenuItem
	// Rect is the menu box in chart pixels, kept inside the plot.
	Rect image.Rectangle
}

func layoutMenu(id string, anchor image.Point, items []MenuItem, plot image.Rectangle, leftOfAnchor bool) Menu {
	h := menuItemHeight * len(items)
	x := anchor.X + menuGap
	if leftOfAnchor {
		x = anchor.X - menuGap - menuWidth
	}
	y := anchor.Y + menuGap
	r := image.Rect(x, y, x+menuWidth, y+h)
	if r.Max.X > plot.Max.X {
		r = r.Sub(image.Pt(r.Max.X-plot.Max.X, 0))
	}
	if r.Max.Y > plot.Max.Y {
		r = r.Sub(image.Pt(0, menuGap*2+h))
	}
	if r.Min.X < plot.Min.X {
		r = r.Add(image.Pt(plot.Min.X-r.Min.X, 0))
	}
	if r.Min.Y < plot.Min.Y {
		r = r.Add(image.Pt(0, plot.Min.Y-r.Min.Y))
	}
	return Menu{ID: id, Anchor: anchor, Items: items, Rect: r}
}

// ItemRect returns the box of item i.
func (m Menu) ItemRect(i int) image.Rectangle {
	y := m.Rect.Min.Y + i*menuItemHeight
	return image.Rect(m.Rect.Min.X, y, m.Rect.Max.X, y+menuItemHeight)
}

// ItemAt returns the item under p.
func (m Menu) ItemAt(p image.Point) (MenuItem, bool) {
	for i, it := range m.Items {
		if p.In(m.ItemRect(i)) {
			return it, true
		}
	}
	return 0, false
}

// DrawMenu paints m onto dst. hover is the highlighted item index or -1.
func DrawMenu(dst *image.RGBA, m Menu, th *theme.Theme, hover int) {
	render.Card(dst, m.Rect, th.MenuBackground, th.ButtonBorder)
	for i, it := range m.Items {
		r := m.ItemRect(i)
		if i == hover {
			render.FillRect(dst, r.Inset(1), th.MenuHover)
		}
		_, h, _ := render.MeasureText(it.String(), render.SizeNormal)
		render.DrawText(dst, r.Min.X+10, r.Min.Y+(menuItemHeight-h)/2, it.String(), th.MenuText, render.SizeNormal)
	}
}
