package appstate

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/marketdata"
)

func newApp(t *testing.T, opts ...Option) (*AppState, *chart.Viewport, *drawing.Store) {
	t.Helper()
	candles := make([]marketdata.Candle, 80)
	for i := range candles {
		base := 50 + float64(i%20)
		candles[i] = marketdata.Candle{Time: 86400 * int64(i+1), Open: base, High: base + 3, Low: base - 3, Close: base + 1}
	}
	v := chart.NewViewport(640, 360)
	v.SetCandles(candles)
	store := drawing.NewStore()
	a := New(v, store, opts...)
	t.Cleanup(a.Close)
	return a, v, store
}

func buttonCenter(t *testing.T, a *AppState, label string) image.Point {
	t.Helper()
	for _, b := range a.toolbar.Buttons {
		if b.Label() == label {
			r := b.Rect()
			require.False(t, r.Empty(), "button %s not laid out", label)
			return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
		}
	}
	t.Fatalf("no button %s", label)
	return image.Point{}
}

func press(p image.Point, b mouse.Button) mouse.Event {
	return mouse.Event{X: float32(p.X), Y: float32(p.Y), Button: b, Direction: mouse.DirPress}
}

func TestWindowSizeIncludesChrome(t *testing.T) {
	a, _, _ := newApp(t)
	w, h := a.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 360+toolbarHeight+statusHeight, h)
	assert.Equal(t, image.Rect(0, 0, w, h), a.Frame().Bounds())
}

func TestToolbarSelectsTool(t *testing.T) {
	a, _, store := newApp(t)
	assert.True(t, a.HandleMouse(press(buttonCenter(t, a, "T:Trend"), mouse.ButtonLeft)))
	assert.Equal(t, drawing.ToolTrendLine, store.Tool())
	assert.Contains(t, a.StatusText(), "tool: trendline")
}

func TestChartClicksAreTranslated(t *testing.T) {
	a, v, store := newApp(t)
	a.HandleKey(key.Event{Rune: 'h', Direction: key.DirPress})
	require.Equal(t, drawing.ToolHorizontal, store.Tool())

	chartPt := image.Pt(100, 120)
	a.HandleMouse(press(chartPt.Add(image.Pt(0, toolbarHeight)), mouse.ButtonLeft))

	all := store.All()
	require.Len(t, all, 1)
	want, ok := v.CoordinateToPrice(float64(chartPt.Y))
	require.True(t, ok)
	assert.InDelta(t, want, all[0].Price(), 1e-9)
}

func TestWheelZoomAndRightDragPan(t *testing.T) {
	a, v, _ := newApp(t)
	before := v.BarSpacing()
	at := image.Pt(200, 100+toolbarHeight)
	a.HandleMouse(mouse.Event{X: float32(at.X), Y: float32(at.Y), Button: mouse.ButtonWheelUp, Direction: mouse.DirStep})
	assert.Greater(t, v.BarSpacing(), before)

	from, _, ok := v.VisibleRange()
	require.True(t, ok)
	a.HandleMouse(press(at, mouse.ButtonRight))
	a.HandleMouse(mouse.Event{X: float32(at.X + 90), Y: float32(at.Y), Direction: mouse.DirNone})
	a.HandleMouse(mouse.Event{X: float32(at.X + 90), Y: float32(at.Y), Button: mouse.ButtonRight, Direction: mouse.DirRelease})
	from2, _, _ := v.VisibleRange()
	assert.Less(t, from2, from)
}

func TestSaveWithoutOutputShowsNotice(t *testing.T) {
	a, _, _ := newApp(t)
	now := time.Unix(1_700_000_000, 0)
	a.now = func() time.Time { return now }
	assert.True(t, a.HandleKey(key.Event{Rune: 's', Modifiers: key.ModControl, Direction: key.DirPress}))
	assert.True(t, a.snack.Visible(now))
	assert.Equal(t, "no output path set", a.snack.message)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	a, _, _ := newApp(t, WithOutput(path))
	a.HandleKey(key.Event{Rune: 's', Modifiers: key.ModControl, Direction: key.DirPress})

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 360), img.Bounds())
}

func TestEditorTakesKeysBeforeShortcuts(t *testing.T) {
	a, _, store := newApp(t)
	store.SetTool(drawing.ToolNote)
	a.HandleMouse(press(image.Pt(120, 80+toolbarHeight), mouse.ButtonLeft))
	_, _, editing := a.Controller().Editing()
	require.True(t, editing)

	a.HandleKey(key.Event{Rune: 'h', Direction: key.DirPress})
	a.HandleKey(key.Event{Rune: 'i', Direction: key.DirPress})
	a.HandleKey(key.Event{Code: key.CodeReturnEnter, Direction: key.DirPress})

	assert.Equal(t, drawing.ToolNote, store.Tool())
	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "hi", all[0].Text)
}

func TestWarningSnackbarDismissedByClick(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a, v, _ := newApp(t, WithWarning("market data unavailable, showing synthetic candles"))
	a.now = func() time.Time { return now }
	require.True(t, a.snack.Visible(now))

	r := a.snack.Rect(v.PlotRect().Add(a.chartOrigin()))
	assert.True(t, a.HandleMouse(press(r.Min.Add(image.Pt(2, 2)), mouse.ButtonLeft)))
	assert.False(t, a.snack.Visible(now))
}

func TestResizeRelaysOut(t *testing.T) {
	a, v, _ := newApp(t)
	a.Resize(120, 200)
	w, h := v.Size()
	assert.Equal(t, 120, w)
	assert.Equal(t, 200-toolbarHeight-statusHeight, h)

	empty := 0
	for _, b := range a.toolbar.Buttons {
		if b.Rect().Empty() {
			empty++
		}
	}
	assert.Positive(t, empty)
}
