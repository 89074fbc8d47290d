// Package chart is the host candlestick chart the drawing overlay sits on.
// A Viewport owns the time and price scales, lets custom primitives attach
// to its plot and reports visible range changes to subscribers. It is not
// safe for concurrent use; the UI event loop owns it.
package chart

import (
	"image"
	"math"
	"sort"

	"github.com/example/chartink/internal/marketdata"
	"github.com/example/chartink/internal/theme"
)

// Layout constants in pixels.
const (
	AxisWidth  = 64
	AxisHeight = 24

	DefaultBarSpacing = 8.0
	MinBarSpacing     = 2.0
	MaxBarSpacing     = 60.0

	// rightMarginBars is the empty space kept after the last bar on load.
	rightMarginBars = 3
	// priceMargin pads the auto-fitted price range on each side.
	priceMargin = 0.10
)

// Primitive is a custom render object layered on the plot.
type Primitive interface {
	// Update recomputes screen geometry from the current viewport.
	Update()
	// Draw paints onto the plot area of the chart image.
	Draw(dst *image.RGBA)
}

// Viewport is the host chart surface. Coordinates are relative to the top
// left of the chart image; the plot occupies PlotRect and the axes take the
// right and bottom strips.
type Viewport struct {
	candles    []marketdata.Candle
	width      int
	height     int
	barSpacing float64
	// right is the fractional logical bar index at the right edge of the plot.
	right float64

	priceLo, priceHi float64

	primitives []Primitive
	subs       []subscriber
	nextSub    int

	theme *theme.Theme
}

type subscriber struct {
	id int
	fn func()
}

// Option configures a Viewport.
type Option func(*Viewport)

// WithTheme sets the colours used by Paint.
func WithTheme(t *theme.Theme) Option { return func(v *Viewport) { v.theme = t } }

// WithBarSpacing sets the initial distance between bar centres.
func WithBarSpacing(s float64) Option { return func(v *Viewport) { v.barSpacing = clampSpacing(s) } }

// NewViewport creates an empty viewport of the given size.
func NewViewport(width, height int, opts ...Option) *Viewport {
	v := &Viewport{width: width, height: height, barSpacing: DefaultBarSpacing, theme: theme.Default()}
	for _, o := range opts {
		o(v)
	}
	return v
}

func clampSpacing(s float64) float64 {
	return math.Max(MinBarSpacing, math.Min(MaxBarSpacing, s))
}

// Ready reports whether the chart has data and a non-empty plot, which is
// required before any coordinate conversion succeeds.
func (v *Viewport) Ready() bool {
	if v == nil {
		return false
	}
	p := v.PlotRect()
	return len(v.candles) > 0 && p.Dx() > 0 && p.Dy() > 0
}

// Size returns the full chart image size.
func (v *Viewport) Size() (int, int) { return v.width, v.height }

// PlotRect is the area candles and primitives are drawn in.
func (v *Viewport) PlotRect() image.Rectangle {
	return image.Rect(0, 0, max(v.width-AxisWidth, 0), max(v.height-AxisHeight, 0))
}

// Theme returns the paint palette.
func (v *Viewport) Theme() *theme.Theme { return v.theme }

// SetTheme swaps the palette. Geometry is unaffected.
func (v *Viewport) SetTheme(t *theme.Theme) {
	if t != nil {
		v.theme = t
	}
}

// Candles returns the loaded bars. Callers must not modify the slice.
func (v *Viewport) Candles() []marketdata.Candle { return v.candles }

// BarSpacing returns the distance between bar centres in pixels.
func (v *Viewport) BarSpacing() float64 { return v.barSpacing }

// SetCandles replaces the series and scrolls to the latest bar.
func (v *Viewport) SetCandles(c []marketdata.Candle) {
	v.candles = append(v.candles[:0:0], c...)
	v.right = float64(len(v.candles)-1) + rightMarginBars
	v.changed()
}

// FitContent sizes the bars so the whole series is visible.
func (v *Viewport) FitContent() {
	n := len(v.candles)
	w := v.PlotRect().Dx()
	if n == 0 || w <= 0 {
		return
	}
	v.barSpacing = clampSpacing(float64(w) / float64(n+rightMarginBars))
	v.right = float64(n-1) + rightMarginBars
	v.changed()
}

// Resize changes the chart image size, keeping the right edge anchored.
func (v *Viewport) Resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width, v.height = width, height
	v.changed()
}

// Pan scrolls by dx pixels; positive dx moves the content to the right and
// reveals older bars.
func (v *Viewport) Pan(dx float64) {
	if len(v.candles) == 0 || dx == 0 {
		return
	}
	v.right -= dx / v.barSpacing
	v.clampRight()
	v.changed()
}

// ZoomAt scales bar spacing by factor while keeping the bar under x fixed.
func (v *Viewport) ZoomAt(x, factor float64) {
	if len(v.candles) == 0 || factor <= 0 {
		return
	}
	idx := v.indexAt(x)
	spacing := clampSpacing(v.barSpacing * factor)
	if spacing == v.barSpacing {
		return
	}
	v.barSpacing = spacing
	v.right = idx + (float64(v.PlotRect().Dx())-x)/v.barSpacing - 0.5
	v.clampRight()
	v.changed()
}

func (v *Viewport) clampRight() {
	n := float64(len(v.candles))
	visible := float64(v.PlotRect().Dx()) / v.barSpacing
	lo := math.Min(visible/4, n-1)
	hi := n - 1 + visible*3/4
	v.right = math.Max(lo, math.Min(hi, v.right))
}

// VisibleRange returns the logical bar indices at least partly on screen,
// clipped to the loaded series.
func (v *Viewport) VisibleRange() (from, to int, ok bool) {
	if !v.Ready() {
		return 0, 0, false
	}
	w := float64(v.PlotRect().Dx())
	from = max(int(math.Floor(v.right-w/v.barSpacing+0.5)), 0)
	to = min(int(math.Ceil(v.right)), len(v.candles)-1)
	return from, to, from <= to
}

// Subscribe registers fn for visible range changes (pan, zoom, resize, new
// data). It returns a function that removes the subscription.
func (v *Viewport) Subscribe(fn func()) func() {
	id := v.nextSub
	v.nextSub++
	v.subs = append(v.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range v.subs {
			if s.id == id {
				v.subs = append(v.subs[:i], v.subs[i+1:]...)
				return
			}
		}
	}
}

// Attach adds p to the plot and gives it a first Update.
func (v *Viewport) Attach(p Primitive) {
	for _, q := range v.primitives {
		if q == p {
			return
		}
	}
	v.primitives = append(v.primitives, p)
	p.Update()
}

// Detach removes p. Unknown primitives are ignored.
func (v *Viewport) Detach(p Primitive) {
	for i, q := range v.primitives {
		if q == p {
			v.primitives = append(v.primitives[:i], v.primitives[i+1:]...)
			return
		}
	}
}

// Primitives returns the attached primitives in paint order.
func (v *Viewport) Primitives() []Primitive {
	return append([]Primitive(nil), v.primitives...)
}

func (v *Viewport) changed() {
	v.fitPrices()
	for _, p := range v.primitives {
		p.Update()
	}
	for _, s := range append([]subscriber(nil), v.subs...) {
		s.fn()
	}
}

// fitPrices auto-scales the price axis to the visible bars.
func (v *Viewport) fitPrices() {
	from, to, ok := v.VisibleRange()
	if !ok {
		v.priceLo, v.priceHi = 0, 0
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range v.candles[from : to+1] {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}
	span := hi - lo
	if span <= 0 {
		span = math.Max(math.Abs(hi)*0.01, 1)
	}
	v.priceLo = lo - span*priceMargin
	v.priceHi = hi + span*priceMargin
}

// PriceRange returns the price at the bottom and top of the plot.
func (v *Viewport) PriceRange() (lo, hi float64) { return v.priceLo, v.priceHi }

func (v *Viewport) indexToX(i float64) float64 {
	return float64(v.PlotRect().Dx()) - (v.right-i+0.5)*v.barSpacing
}

func (v *Viewport) indexAt(x float64) float64 {
	return v.right + 0.5 - (float64(v.PlotRect().Dx())-x)/v.barSpacing
}

// indexOfTime returns the fractional logical index of t, interpolating
// between bars. It fails outside the loaded series.
func (v *Viewport) indexOfTime(t int64) (float64, bool) {
	n := len(v.candles)
	if n == 0 || t < v.candles[0].Time || t > v.candles[n-1].Time {
		return 0, false
	}
	i := sort.Search(n, func(i int) bool { return v.candles[i].Time >= t })
	if v.candles[i].Time == t {
		return float64(i), true
	}
	prev, next := v.candles[i-1].Time, v.candles[i].Time
	return float64(i-1) + float64(t-prev)/float64(next-prev), true
}

// TimeToCoordinate maps a time inside the loaded series to x.
func (v *Viewport) TimeToCoordinate(t int64) (float64, bool) {
	if !v.Ready() {
		return 0, false
	}
	i, ok := v.indexOfTime(t)
	if !ok {
		return 0, false
	}
	return v.indexToX(i), true
}

// CoordinateToTime snaps x to the nearest loaded bar.
func (v *Viewport) CoordinateToTime(x float64) (int64, bool) {
	if !v.Ready() || x < 0 || x >= float64(v.PlotRect().Dx()) {
		return 0, false
	}
	i := int(math.Round(v.indexAt(x)))
	if i < 0 || i >= len(v.candles) {
		return 0, false
	}
	return v.candles[i].Time, true
}

// PriceToCoordinate maps any price to y. Prices beyond the visible range
// project outside the plot and are clipped when painted.
func (v *Viewport) PriceToCoordinate(p float64) (float64, bool) {
	if !v.Ready() || v.priceHi <= v.priceLo {
		return 0, false
	}
	h := float64(v.PlotRect().Dy())
	return h * (v.priceHi - p) / (v.priceHi - v.priceLo), true
}

// CoordinateToPrice maps a y inside the plot to a price.
func (v *Viewport) CoordinateToPrice(y float64) (float64, bool) {
	h := float64(v.PlotRect().Dy())
	if !v.Ready() || v.priceHi <= v.priceLo || y < 0 || y >= h {
		return 0, false
	}
	return v.priceHi - y/h*(v.priceHi-v.priceLo), true
}
