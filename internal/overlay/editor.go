package overlay

import "github.com/example/chartink/internal/drawing"

// editor buffers note text until it is committed with Enter or discarded
// with Escape. The live renderer shows the buffer while typing.
type editor struct {
	id  string
	buf []rune
}

func (e *editor) text() string { return string(e.buf) }

func (c *Controller) openEditor(id string) {
	a, ok := c.store.Get(id)
	if !ok || a.Kind != drawing.KindNote {
		return
	}
	if c.editor != nil && c.editor.id != id {
		c.commitEditor()
	}
	c.editor = &editor{id: id, buf: []rune(a.Text)}
	c.refreshEditor()
}

// Editing returns the note being edited and its uncommitted text.
func (c *Controller) Editing() (id, text string, ok bool) {
	if c.editor == nil {
		return "", "", false
	}
	return c.editor.id, c.editor.text(), true
}

// TypeRune appends r to the note being edited.
func (c *Controller) TypeRune(r rune) {
	defer c.contain("type")
	if c.editor == nil || r < 0x20 {
		return
	}
	c.editor.buf = append(c.editor.buf, r)
	c.refreshEditor()
}

// Backspace removes the last rune of the note being edited.
func (c *Controller) Backspace() {
	defer c.contain("backspace")
	if c.editor == nil || len(c.editor.buf) == 0 {
		return
	}
	c.editor.buf = c.editor.buf[:len(c.editor.buf)-1]
	c.refreshEditor()
}

// CommitText stores the edited text and closes the editor.
func (c *Controller) CommitText() {
	defer c.contain("commit text")
	c.commitEditor()
}

func (c *Controller) commitEditor() {
	e := c.editor
	if e == nil {
		return
	}
	c.editor = nil
	a, ok := c.store.Get(e.id)
	if !ok {
		return
	}
	text := e.text()
	if a.Text == text {
		c.refreshRenderer(e.id)
		return
	}
	if _, ok := c.store.Update(e.id, drawing.TextPatch(text)); ok && c.persist != nil {
		c.persist.UpdateDrawing(e.id, text)
	}
}

func (c *Controller) refreshEditor() {
	if c.editor != nil {
		c.refreshRenderer(c.editor.id)
	}
}

// refreshRenderer pushes the current store state, with any draft text, into
// the renderer for id without a full registry sync.
func (c *Controller) refreshRenderer(id string) {
	r, ok := c.registry[id]
	if !ok {
		return
	}
	a, ok := c.store.Get(id)
	if !ok {
		return
	}
	if c.editor != nil && c.editor.id == id {
		a.Text = c.editor.text()
	}
	sel, _ := c.store.Selected()
	r.Set(a, sel == id)
	r.Update()
	c.requestRedraw()
}
