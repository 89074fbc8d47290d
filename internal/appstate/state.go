// Package appstate runs the interactive chart window: a toolbar, the chart
// with its drawing overlay, a status line and transient notices.
package appstate

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/clipboard"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/notify"
	"github.com/example/chartink/internal/overlay"
	"github.com/example/chartink/internal/theme"
)

const (
	zoomStep     = 1.1
	keyPanPixels = 40
	noticeTime   = 3 * time.Second
	warningTime  = 8 * time.Second
)

// AppState holds the window model. It is driven from a single goroutine:
// the shiny event loop in Main, or a test.
type AppState struct {
	Title   string
	Output  string
	Warning string

	viewport *chart.Viewport
	store    *drawing.Store
	ctrl     *overlay.Controller
	theme    *theme.Theme
	notifier *notify.Notifier
	log      zerolog.Logger
	ctrlOpts []overlay.Option
	now      func() time.Time

	width, height int
	toolbar       *Toolbar
	shortcuts     *Shortcuts
	snack         snackbar
	menuHover     int
	cursor        image.Point
	panning       bool
	panX          float64
	quit          bool

	updateCh  chan struct{}
	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTitle sets the window title and status prefix.
func WithTitle(title string) Option { return func(a *AppState) { a.Title = title } }

// WithOutput sets the PNG path used by the save action.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithWarning shows msg in a snackbar when the window opens.
func WithWarning(msg string) Option { return func(a *AppState) { a.Warning = msg } }

// WithTheme sets the window palette. The viewport keeps its own.
func WithTheme(th *theme.Theme) Option { return func(a *AppState) { a.theme = th } }

// WithNotifier sends desktop notifications for saves and copies.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *AppState) { a.log = l.With().Str("component", "window").Logger() }
}

// WithOverlayOptions passes options to the overlay controller, typically
// persistence and chat collaborators.
func WithOverlayOptions(opts ...overlay.Option) Option {
	return func(a *AppState) { a.ctrlOpts = append(a.ctrlOpts, opts...) }
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New builds the window model around v and store. The window is
// toolbar + chart + status line tall.
func New(v *chart.Viewport, store *drawing.Store, opts ...Option) *AppState {
	a := &AppState{
		viewport:  v,
		store:     store,
		theme:     v.Theme(),
		log:       zerolog.Nop(),
		now:       time.Now,
		menuHover: -1,
		updateCh:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	w, h := v.Size()
	a.width, a.height = w, h+toolbarHeight+statusHeight

	ctrlOpts := append([]overlay.Option{
		overlay.WithLogger(a.log),
		overlay.WithTheme(a.theme),
	}, a.ctrlOpts...)
	ctrlOpts = append(ctrlOpts, overlay.WithRedraw(a.NotifyChanged))
	a.ctrl = overlay.New(store, v, ctrlOpts...)

	a.toolbar = a.buildToolbar()
	a.toolbar.Layout(a.width)
	a.shortcuts = a.buildShortcuts()
	if a.Warning != "" {
		a.snack.Show(a.Warning, warningTime, a.now())
	}
	return a
}

// Controller exposes the overlay controller.
func (a *AppState) Controller() *overlay.Controller { return a.ctrl }

// Size returns the window size in pixels.
func (a *AppState) Size() (int, int) { return a.width, a.height }

// NotifyChanged requests a repaint. It is safe to call from any goroutine.
func (a *AppState) NotifyChanged() {
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

// Close releases the overlay and runs the close callback once.
func (a *AppState) Close() {
	a.closeOnce.Do(func() {
		a.ctrl.Close()
		if a.onClose != nil {
			a.onClose()
		}
	})
}

func (a *AppState) buildToolbar() *Toolbar {
	var buttons []Button
	labels := []struct {
		tool  drawing.Tool
		label string
	}{
		{drawing.ToolNone, "V:Select"},
		{drawing.ToolTrendLine, "T:Trend"},
		{drawing.ToolHorizontal, "H:Level"},
		{drawing.ToolRectangle, "R:Box"},
		{drawing.ToolNote, "N:Note"},
	}
	for _, l := range labels {
		tool := l.tool
		buttons = append(buttons, &ToolButton{
			baseButton: baseButton{label: l.label, action: func() { a.ctrl.SetTool(tool) }},
			Tool:       tool,
		})
	}
	buttons = append(buttons,
		&ActionButton{baseButton{label: "Fit", action: a.viewport.FitContent}},
		&ActionButton{baseButton{label: "Save", action: a.save}},
		&ActionButton{baseButton{label: "Copy", action: a.copy}},
		&ActionButton{baseButton{label: "Clear", action: a.ctrl.ClearAll}},
	)
	return newToolbar(buttons...)
}

func (a *AppState) buildShortcuts() *Shortcuts {
	s := &Shortcuts{}
	tool := func(t drawing.Tool) func() { return func() { a.ctrl.SetTool(t) } }
	s.Register("select", tool(drawing.ToolNone), KeyShortcut{Rune: 'v'})
	s.Register("trendline", tool(drawing.ToolTrendLine), KeyShortcut{Rune: 't'})
	s.Register("horizontal", tool(drawing.ToolHorizontal), KeyShortcut{Rune: 'h'})
	s.Register("rectangle", tool(drawing.ToolRectangle), KeyShortcut{Rune: 'r'})
	s.Register("note", tool(drawing.ToolNote), KeyShortcut{Rune: 'n'})
	s.Register("save", a.save, KeyShortcut{Rune: 's', Modifiers: key.ModControl})
	s.Register("copy", a.copy, KeyShortcut{Rune: 'c', Modifiers: key.ModControl})
	s.Register("clear", a.ctrl.ClearAll, KeyShortcut{Code: key.CodeDeleteForward, Modifiers: key.ModControl})
	s.Register("fit", a.viewport.FitContent, KeyShortcut{Rune: 'f'})
	s.Register("zoomin", func() { a.zoomCenter(zoomStep) }, KeyShortcut{Rune: '+'}, KeyShortcut{Rune: '='})
	s.Register("zoomout", func() { a.zoomCenter(1 / zoomStep) }, KeyShortcut{Rune: '-'})
	s.Register("panleft", func() { a.viewport.Pan(keyPanPixels) }, KeyShortcut{Code: key.CodeLeftArrow})
	s.Register("panright", func() { a.viewport.Pan(-keyPanPixels) }, KeyShortcut{Code: key.CodeRightArrow})
	s.Register("quit", func() { a.quit = true }, KeyShortcut{Rune: 'q', Modifiers: key.ModControl}, KeyShortcut{Rune: 'w', Modifiers: key.ModControl})
	return s
}

func (a *AppState) zoomCenter(factor float64) {
	a.viewport.ZoomAt(float64(a.viewport.PlotRect().Dx())/2, factor)
}

func (a *AppState) chartOrigin() image.Point { return image.Pt(0, toolbarHeight) }

func (a *AppState) notice(msg string) {
	a.snack.Show(msg, noticeTime, a.now())
}

// SavePNG writes the current chart, drawings included, to path.
func (a *AppState) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, a.viewport.Render()); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.notifier.Save(path)
	return nil
}

func (a *AppState) save() {
	if a.Output == "" {
		a.notice("no output path set")
		return
	}
	if err := a.SavePNG(a.Output); err != nil {
		a.log.Error().Err(err).Msg("save chart")
		a.notice("save failed: " + err.Error())
		return
	}
	a.log.Info().Str("path", a.Output).Msg("chart saved")
	a.notice("saved " + a.Output)
}

func (a *AppState) copy() {
	img := a.viewport.Render()
	if err := clipboard.WriteImage(img); err != nil {
		a.log.Warn().Err(err).Msg("copy chart")
		a.notice("copy failed: " + err.Error())
		return
	}
	a.notifier.Copy(a.Title, img)
	a.notice("copied chart to clipboard")
}

// Resize adapts the layout to a new window size.
func (a *AppState) Resize(width, height int) {
	a.width, a.height = width, height
	a.toolbar.Layout(width)
	a.viewport.Resize(width, max(height-toolbarHeight-statusHeight, 0))
}

// HandleKey routes a key event and reports whether a repaint is needed. The
// note editor sees keys first, then window shortcuts, then the overlay.
func (a *AppState) HandleKey(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	if _, _, editing := a.ctrl.Editing(); editing {
		return a.ctrl.HandleKey(e)
	}
	if name, ok := a.shortcuts.Dispatch(e); ok {
		a.log.Debug().Str("action", name).Msg("shortcut")
		return true
	}
	return a.ctrl.HandleKey(e)
}

// HandleMouse routes a window-space mouse event and reports whether a
// repaint is needed.
func (a *AppState) HandleMouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	press := e.Direction == mouse.DirPress

	if press && a.snack.Visible(a.now()) {
		area := a.viewport.PlotRect().Add(a.chartOrigin())
		if p.In(a.snack.Rect(area)) {
			a.snack.Dismiss()
			return true
		}
	}

	if p.Y < toolbarHeight && !a.ctrl.Dragging() && !a.panning {
		changed := a.toolbar.Hover(p)
		if press && e.Button == mouse.ButtonLeft {
			if i, ok := a.toolbar.At(p); ok {
				a.toolbar.Buttons[i].Activate()
				return true
			}
		}
		return changed
	}
	changed := a.toolbar.Hover(image.Pt(-1, -1))

	cp := p.Sub(a.chartOrigin())
	ce := e
	ce.X, ce.Y = float32(cp.X), float32(cp.Y)

	switch e.Button {
	case mouse.ButtonWheelUp, mouse.ButtonWheelDown:
		if e.Direction == mouse.DirStep || press {
			factor := zoomStep
			if e.Button == mouse.ButtonWheelDown {
				factor = 1 / zoomStep
			}
			a.viewport.ZoomAt(float64(ce.X), factor)
			return true
		}
	case mouse.ButtonRight, mouse.ButtonMiddle:
		switch e.Direction {
		case mouse.DirPress:
			a.panning, a.panX = true, float64(ce.X)
		case mouse.DirRelease:
			a.panning = false
		}
		return changed
	}
	if a.panning && e.Direction == mouse.DirNone {
		a.viewport.Pan(float64(ce.X) - a.panX)
		a.panX = float64(ce.X)
		return true
	}

	if m, ok := a.ctrl.Menu(); ok {
		hover := -1
		for i := range m.Items {
			if cp.In(m.ItemRect(i)) {
				hover = i
				break
			}
		}
		if hover != a.menuHover {
			a.menuHover = hover
			changed = true
		}
		if press && e.Button == mouse.ButtonLeft {
			if item, ok := m.ItemAt(cp); ok {
				a.ctrl.ActivateMenu(item)
				a.menuHover = -1
				return true
			}
		}
	}

	if e.Direction == mouse.DirNone && cp != a.cursor {
		a.cursor = cp
		changed = true
	}
	if a.ctrl.HandleMouse(ce) {
		return true
	}
	return changed
}
