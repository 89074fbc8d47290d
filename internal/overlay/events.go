package overlay

import (
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
)

// HandleMouse feeds a shiny mouse event, already translated to chart pixel
// coordinates, into the controller. Only the primary button is used; it
// reports whether the event was consumed.
func (c *Controller) HandleMouse(e mouse.Event) bool {
	x, y := float64(e.X), float64(e.Y)
	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft {
			return false
		}
		if !c.Press(x, y) {
			c.Click(x, y)
		}
		return true
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft || !c.Dragging() {
			return false
		}
		c.Release(x, y)
		return true
	case mouse.DirNone:
		if c.Dragging() || c.state != StateIdle {
			c.Move(x, y)
			return true
		}
	}
	return false
}

// HandleKey feeds a key event into the controller. The note editor takes
// typing keys first; otherwise Escape cancels and Delete or Backspace
// removes the selection. It reports whether the event was consumed.
func (c *Controller) HandleKey(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	if c.editor != nil {
		switch e.Code {
		case key.CodeEscape:
			c.Escape()
		case key.CodeDeleteBackspace:
			c.Backspace()
		case key.CodeReturnEnter, key.CodeKeypadEnter:
			c.CommitText()
		default:
			if e.Rune < 0x20 || e.Modifiers&(key.ModControl|key.ModMeta) != 0 {
				return false
			}
			c.TypeRune(e.Rune)
		}
		return true
	}
	switch e.Code {
	case key.CodeEscape:
		c.Escape()
		return true
	case key.CodeDeleteForward, key.CodeDeleteBackspace:
		if _, ok := c.store.Selected(); !ok {
			return false
		}
		c.DeleteSelected()
		return true
	}
	return false
}
