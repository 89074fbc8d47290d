package appstate

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/chartink/internal/overlay"
	"github.com/example/chartink/internal/render"
)

// Run executes the UI loop using shiny's driver. It returns when the window
// closes.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main opens the window on s and processes events until it closes.
func (a *AppState) Main(s screen.Screen) {
	defer a.Close()

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: a.width, Height: a.height, Title: a.Title})
	if err != nil {
		a.log.Error().Err(err).Msg("new window")
		return
	}
	defer w.Release()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()

	frames := make(chan *image.RGBA, 1)
	go a.publish(s, w, frames, done)

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			a.Resize(e.WidthPx, e.HeightPx)
			w.Send(paint.Event{})
		case paint.Event:
			img := a.Frame()
			select {
			case frames <- img:
			default:
				// Drop the stale frame in favour of the newest one.
				select {
				case <-frames:
				default:
				}
				frames <- img
			}
		case mouse.Event:
			if a.HandleMouse(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if a.HandleKey(e) {
				w.Send(paint.Event{})
			}
			if a.quit {
				return
			}
		case error:
			a.log.Error().Err(e).Msg("window event")
		}
	}
}

// publish uploads composed frames on its own goroutine so slow uploads do
// not stall input handling.
func (a *AppState) publish(s screen.Screen, w screen.Window, frames <-chan *image.RGBA, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case img := <-frames:
			b, err := s.NewBuffer(img.Bounds().Size())
			if err != nil {
				a.log.Error().Err(err).Msg("new buffer")
				continue
			}
			draw.Draw(b.RGBA(), b.Bounds(), img, image.Point{}, draw.Src)
			w.Upload(image.Point{}, b, b.Bounds())
			b.Release()
			w.Publish()
		}
	}
}

// Frame composes the whole window image.
func (a *AppState) Frame() *image.RGBA {
	th := a.theme
	now := a.now()
	img := image.NewRGBA(image.Rect(0, 0, a.width, a.height))
	render.FillRect(img, img.Bounds(), th.Background)
	a.toolbar.Draw(img, th, a.store.Tool())

	chartImg := a.viewport.Render()
	if m, ok := a.ctrl.Menu(); ok {
		overlay.DrawMenu(chartImg, m, th, a.menuHover)
	}
	a.snack.Draw(chartImg, a.viewport.PlotRect(), th, now)
	origin := a.chartOrigin()
	draw.Draw(img, chartImg.Bounds().Add(origin), chartImg, image.Point{}, draw.Src)

	status := image.Rect(0, a.height-statusHeight, a.width, a.height)
	render.FillRect(img, status, th.ToolbarBackground)
	_, h, _ := render.MeasureText(a.StatusText(), render.SizeSmall)
	render.DrawText(img, 6, status.Min.Y+(statusHeight-h)/2, a.StatusText(), th.ButtonText, render.SizeSmall)
	return img
}

// StatusText describes the tool, placement state and the chart position
// under the cursor.
func (a *AppState) StatusText() string {
	parts := []string{}
	if a.Title != "" {
		parts = append(parts, a.Title)
	}
	parts = append(parts, "tool: "+a.store.Tool().String())
	if st := a.ctrl.State(); st != overlay.StateIdle {
		parts = append(parts, st.String())
	}
	if _, _, editing := a.ctrl.Editing(); editing {
		parts = append(parts, "editing note (Enter saves, Esc cancels)")
	}
	if pt, ok := a.ctrl.Mapper().ToChartSpace(float64(a.cursor.X), float64(a.cursor.Y)); ok {
		t := time.Unix(pt.Time, 0).UTC().Format("2006-01-02 15:04")
		parts = append(parts, fmt.Sprintf("%s  %s", t, render.FormatPrice(pt.Price)))
	}
	return strings.Join(parts, "  |  ")
}
