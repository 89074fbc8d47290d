// Package overlay turns pointer and keyboard input into drawing store
// mutations and keeps one renderer per annotation attached to the chart.
package overlay

import (
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/example/chartink/internal/coords"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/hittest"
	"github.com/example/chartink/internal/render"
	"github.com/example/chartink/internal/theme"
)

// State is the placement state of the controller.
type State int

const (
	StateIdle State = iota
	StateAwaitingSecondPoint
	StatePreviewing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSecondPoint:
		return "awaiting-second-point"
	case StatePreviewing:
		return "previewing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type dragState struct {
	id    string
	index int
	// press is the pixel the drag started at; the point stays put until the
	// pointer leaves it.
	press image.Point
	moved bool
	orig  []drawing.Point
}

// Controller owns the renderer registry and the placement state machine. All
// methods must be called from the UI goroutine.
type Controller struct {
	store  *drawing.Store
	host   Host
	mapper *coords.Mapper
	log    zerolog.Logger

	persist Persistence
	chat    ChatTagger
	style   render.Style
	redraw  func()

	state   State
	first   drawing.Point
	preview render.Renderer

	registry map[string]render.Renderer
	drag     *dragState
	editor   *editor
	menuOpen bool

	unsubscribe []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithPersistence sets the session persistence collaborator.
func WithPersistence(p Persistence) Option { return func(c *Controller) { c.persist = p } }

// WithChatTagger sets the tag-to-chat collaborator.
func WithChatTagger(t ChatTagger) Option { return func(c *Controller) { c.chat = t } }

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l.With().Str("component", "overlay").Logger() }
}

// WithTheme derives handle and preview colours from th.
func WithTheme(th *theme.Theme) Option {
	return func(c *Controller) { c.style = StyleFromTheme(th) }
}

// WithRedraw registers fn to be called whenever the overlay needs repainting.
func WithRedraw(fn func()) Option { return func(c *Controller) { c.redraw = fn } }

// StyleFromTheme maps theme colours onto renderer styling.
func StyleFromTheme(th *theme.Theme) render.Style {
	return render.Style{
		Handle:       th.Handle,
		HandleBorder: th.HandleBorder,
		NoteText:     th.NoteText,
		PreviewColor: th.Preview,
	}
}

// New creates a controller bound to store and host and renders whatever the
// store already holds.
func New(store *drawing.Store, host Host, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		host:     host,
		mapper:   coords.NewMapper(host),
		log:      zerolog.Nop(),
		style:    StyleFromTheme(theme.Default()),
		registry: make(map[string]render.Renderer),
	}
	for _, o := range opts {
		o(c)
	}
	c.unsubscribe = append(c.unsubscribe,
		store.Subscribe(c.onStoreChange),
		host.Subscribe(c.requestRedraw),
	)
	c.sync()
	return c
}

// Close detaches every renderer and stops listening to the store and host.
func (c *Controller) Close() {
	for _, fn := range c.unsubscribe {
		fn()
	}
	c.unsubscribe = nil
	c.clearPending()
	for id, r := range c.registry {
		c.host.Detach(r)
		delete(c.registry, id)
	}
}

// State returns the placement state.
func (c *Controller) State() State { return c.state }

// PreviewCount is 1 while an uncommitted shape is shown and 0 otherwise.
func (c *Controller) PreviewCount() int {
	if c.preview != nil {
		return 1
	}
	return 0
}

// RendererCount returns the number of live annotation renderers.
func (c *Controller) RendererCount() int { return len(c.registry) }

// Renderer returns the live renderer for id.
func (c *Controller) Renderer(id string) (render.Renderer, bool) {
	r, ok := c.registry[id]
	return r, ok
}

// Mapper exposes the coordinate mapper bound to the host.
func (c *Controller) Mapper() *coords.Mapper { return c.mapper }

// SetTool changes the active tool through the store, which clears any
// pending placement.
func (c *Controller) SetTool(t drawing.Tool) {
	defer c.contain("set tool")
	c.store.SetTool(t)
}

func (c *Controller) requestRedraw() {
	if c.redraw != nil {
		c.redraw()
	}
}

// contain keeps a failing handler from taking down the event loop.
func (c *Controller) contain(op string) {
	if r := recover(); r != nil {
		c.log.Error().Str("op", op).Interface("panic", r).Msg("overlay handler failed")
	}
}

func (c *Controller) ready(op string) bool {
	if c.host == nil || !c.host.Ready() {
		c.log.Debug().Str("op", op).Msg("chart not ready, skipping")
		return false
	}
	return true
}

func (c *Controller) onStoreChange(ch drawing.Change) {
	switch ch.Kind {
	case drawing.ChangeTool:
		c.clearPending()
	case drawing.ChangeSelected:
		if c.editor != nil && c.editor.id != ch.ID {
			c.commitEditor()
		}
		c.menuOpen = ch.ID != ""
	case drawing.ChangeRemoved, drawing.ChangeCleared, drawing.ChangeLoaded:
		if c.editor != nil {
			if _, ok := c.store.Get(c.editor.id); !ok {
				c.editor = nil
			}
		}
		if c.drag != nil {
			if _, ok := c.store.Get(c.drag.id); !ok {
				c.drag = nil
			}
		}
		if _, ok := c.store.Selected(); !ok {
			c.menuOpen = false
		}
	}
	c.sync()
	c.requestRedraw()
}

// sync reconciles the renderer registry with the store: renderers whose
// annotation is gone are detached, the rest are updated in place and new
// annotations get a fresh renderer.
func (c *Controller) sync() {
	items := c.store.All()
	selected, _ := c.store.Selected()

	live := make(map[string]struct{}, len(items))
	for _, a := range items {
		live[a.ID] = struct{}{}
	}
	for id, r := range c.registry {
		if _, ok := live[id]; !ok {
			c.host.Detach(r)
			delete(c.registry, id)
		}
	}

	added := false
	for _, a := range items {
		if c.editor != nil && c.editor.id == a.ID {
			a.Text = c.editor.text()
		}
		if r, ok := c.registry[a.ID]; ok {
			r.Set(a, a.ID == selected)
			r.Update()
			continue
		}
		r := render.New(a, c.mapper, c.style)
		r.Set(a, a.ID == selected)
		c.host.Attach(r)
		c.registry[a.ID] = r
		added = true
	}
	if added && c.preview != nil {
		// keep the preview painted above committed shapes
		c.host.Detach(c.preview)
		c.host.Attach(c.preview)
	}
}

func (c *Controller) clearPending() {
	if c.preview != nil {
		c.host.Detach(c.preview)
		c.preview = nil
	}
	c.first = drawing.Point{}
	c.state = StateIdle
}

// Click handles a primary click at chart pixel (x, y).
func (c *Controller) Click(x, y float64) {
	defer c.contain("click")
	if !c.ready("click") {
		return
	}
	tool := c.store.Tool()

	if c.state != StateIdle {
		second, ok := c.mapper.ToChartSpace(x, y)
		if !ok {
			return
		}
		kind, _ := tool.Kind()
		first := c.first
		c.clearPending()
		c.commit(kind, first, second)
		return
	}

	switch tool {
	case drawing.ToolNone:
		id, _ := hittest.HitTest(x, y, c.store.All(), c.mapper)
		c.store.Select(id)
		if id != "" {
			c.menuOpen = true
			c.requestRedraw()
		}
	case drawing.ToolHorizontal, drawing.ToolNote:
		p, ok := c.mapper.ToChartSpace(x, y)
		if !ok {
			return
		}
		kind, _ := tool.Kind()
		a, ok := c.commit(kind, p)
		if ok && kind == drawing.KindNote {
			c.store.Select(a.ID)
			c.openEditor(a.ID)
		}
	case drawing.ToolTrendLine, drawing.ToolRectangle:
		p, ok := c.mapper.ToChartSpace(x, y)
		if !ok {
			return
		}
		c.first = p
		c.state = StateAwaitingSecondPoint
	}
}

// Move handles pointer motion to chart pixel (x, y).
func (c *Controller) Move(x, y float64) {
	defer c.contain("move")
	if c.drag != nil {
		c.dragTo(x, y)
		return
	}
	if c.state == StateIdle || !c.ready("move") {
		return
	}
	live, ok := c.mapper.ToChartSpace(x, y)
	if !ok {
		return
	}
	kind, ok := c.store.Tool().Kind()
	if !ok {
		c.clearPending()
		return
	}
	a := drawing.New(kind, drawing.DefaultStyle(kind), c.first, live)
	a.ID = "preview"
	if c.preview == nil {
		st := c.style
		st.Preview = true
		c.preview = render.New(a, c.mapper, st)
		c.host.Attach(c.preview)
	} else {
		c.preview.Set(a, false)
		c.preview.Update()
	}
	c.state = StatePreviewing
	c.requestRedraw()
}

// Escape discards any pending placement, resets the tool and closes the
// note editor without committing.
func (c *Controller) Escape() {
	defer c.contain("escape")
	if c.editor != nil {
		id := c.editor.id
		c.editor = nil
		c.refreshRenderer(id)
	}
	c.cancelDrag()
	c.clearPending()
	c.store.SetTool(drawing.ToolNone)
	c.requestRedraw()
}

// DeleteSelected removes the selected annotation, if any.
func (c *Controller) DeleteSelected() {
	defer c.contain("delete")
	id, ok := c.store.Selected()
	if !ok {
		return
	}
	if c.store.Remove(id) && c.persist != nil {
		c.persist.RemoveDrawing(id)
	}
}

// ClearAll removes every annotation and notifies persistence for each.
func (c *Controller) ClearAll() {
	defer c.contain("clear")
	ids := c.store.Clear()
	if c.persist == nil {
		return
	}
	for _, id := range ids {
		c.persist.RemoveDrawing(id)
	}
}

func (c *Controller) commit(kind drawing.Kind, pts ...drawing.Point) (drawing.Annotation, bool) {
	a, err := c.store.Add(drawing.New(kind, drawing.DefaultStyle(kind), pts...))
	if err != nil {
		c.log.Error().Err(err).Str("kind", string(kind)).Msg("commit annotation")
		return drawing.Annotation{}, false
	}
	c.log.Debug().Str("id", a.ID).Str("kind", string(kind)).Msg("annotation added")
	if c.persist != nil {
		c.persist.AddDrawing(a)
	}
	return a, true
}

// Press starts a handle drag when the pointer lands on a handle of the
// selected annotation with no tool active, or activates a menu item. It
// reports whether the press was consumed; otherwise callers treat it as a
// Click.
func (c *Controller) Press(x, y float64) bool {
	defer c.contain("press")
	if m, ok := c.Menu(); ok {
		if item, ok := m.ItemAt(image.Pt(int(x), int(y))); ok {
			c.ActivateMenu(item)
			return true
		}
	}
	if c.store.Tool() != drawing.ToolNone || c.state != StateIdle || !c.ready("press") {
		return false
	}
	id, ok := c.store.Selected()
	if !ok {
		return false
	}
	a, ok := c.store.Get(id)
	if !ok {
		return false
	}
	idx, ok := hittest.HandleAt(a, x, y, c.mapper)
	if !ok {
		return false
	}
	c.drag = &dragState{
		id:    id,
		index: idx,
		press: image.Pt(int(x), int(y)),
		orig:  append([]drawing.Point(nil), a.Points...),
	}
	return true
}

// cancelDrag puts a dragged annotation back where it was without persisting.
func (c *Controller) cancelDrag() {
	d := c.drag
	if d == nil {
		return
	}
	c.drag = nil
	if d.moved {
		c.store.Update(d.id, drawing.Patch{Points: d.orig})
	}
}

func (c *Controller) dragTo(x, y float64) {
	if !c.ready("drag") {
		return
	}
	if !c.drag.moved && image.Pt(int(x), int(y)) == c.drag.press {
		return
	}
	a, ok := c.store.Get(c.drag.id)
	if !ok {
		c.drag = nil
		return
	}
	pts := append([]drawing.Point(nil), a.Points...)
	if a.Kind == drawing.KindHorizontal {
		price, ok := c.host.CoordinateToPrice(y)
		if !ok {
			return
		}
		pts[0].Price = price
	} else {
		p, ok := c.mapper.ToChartSpace(x, y)
		if !ok {
			return
		}
		pts[c.drag.index] = p
	}
	if _, ok := c.store.Update(a.ID, drawing.Patch{Points: pts}); ok {
		c.drag.moved = true
	}
}

// Release ends a handle drag and persists the final geometry once.
func (c *Controller) Release(x, y float64) {
	defer c.contain("release")
	d := c.drag
	if d == nil {
		return
	}
	c.dragTo(x, y)
	c.drag = nil
	if !d.moved || c.persist == nil {
		return
	}
	if a, ok := c.store.Get(d.id); ok && !samePoints(a.Points, d.orig) {
		c.persist.MoveDrawing(a.ID, a.Points)
	}
}

func samePoints(a, b []drawing.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Dragging reports whether a handle drag is in progress.
func (c *Controller) Dragging() bool { return c.drag != nil }

// Menu returns the floating menu for the selection. It is hidden when
// nothing is selected, while placing a shape, and when the anchor point is
// off the chart.
func (c *Controller) Menu() (Menu, bool) {
	if !c.menuOpen || c.state != StateIdle || c.drag != nil || c.host == nil || !c.host.Ready() {
		return Menu{}, false
	}
	id, ok := c.store.Selected()
	if !ok {
		return Menu{}, false
	}
	a, ok := c.store.Get(id)
	if !ok || len(a.Points) == 0 {
		return Menu{}, false
	}
	items := []MenuItem{MenuDelete, MenuSendToChat}
	if a.Kind == drawing.KindNote {
		items = append(items, MenuEditText)
	}
	plot := c.host.PlotRect()
	if a.Kind == drawing.KindHorizontal {
		y, ok := c.mapper.PriceY(a.Price())
		if !ok || y < float64(plot.Min.Y) || y >= float64(plot.Max.Y) {
			return Menu{}, false
		}
		anchor := coords.Pixel{X: float64(plot.Max.X - 1), Y: y}.Image()
		return layoutMenu(id, anchor, items, plot, true), true
	}
	px, ok := c.mapper.ToPixelSpace(a.Points[0])
	if !ok || !px.Image().In(plot) {
		return Menu{}, false
	}
	return layoutMenu(id, px.Image(), items, plot, false), true
}

// ActivateMenu runs item against the selection.
func (c *Controller) ActivateMenu(item MenuItem) {
	defer c.contain("menu")
	id, ok := c.store.Selected()
	if !ok {
		return
	}
	switch item {
	case MenuDelete:
		c.DeleteSelected()
	case MenuSendToChat:
		a, ok := c.store.Get(id)
		if !ok {
			return
		}
		if c.chat == nil {
			c.log.Warn().Str("id", id).Msg("no chat connection, tag dropped")
			return
		}
		c.chat.TagAnnotation(a)
		c.menuOpen = false
		c.requestRedraw()
	case MenuEditText:
		c.openEditor(id)
	}
}
