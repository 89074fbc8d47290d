package chart

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/marketdata"
)

func series(n int) []marketdata.Candle {
	out := make([]marketdata.Candle, n)
	for i := range out {
		base := 100 + float64(i)
		out[i] = marketdata.Candle{Time: 1000 + int64(i)*60, Open: base, High: base + 2, Low: base - 2, Close: base + 1, Volume: 1}
	}
	return out
}

type countingPrimitive struct {
	updates int
	draws   int
}

func (p *countingPrimitive) Update()          { p.updates++ }
func (p *countingPrimitive) Draw(*image.RGBA) { p.draws++ }

func TestNotReadyWithoutData(t *testing.T) {
	v := NewViewport(400, 300)
	assert.False(t, v.Ready())
	_, ok := v.TimeToCoordinate(1000)
	assert.False(t, ok)
	_, ok = v.CoordinateToPrice(10)
	assert.False(t, ok)

	v.SetCandles(series(10))
	v.Resize(AxisWidth, 300)
	assert.False(t, v.Ready(), "zero width plot")
}

func TestTimeRoundTrip(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(10))
	require.True(t, v.Ready())

	for i, c := range v.Candles() {
		x, ok := v.TimeToCoordinate(c.Time)
		require.True(t, ok, i)
		got, ok := v.CoordinateToTime(x + v.BarSpacing()/3)
		require.True(t, ok, i)
		assert.Equal(t, c.Time, got, i)
	}

	_, ok := v.TimeToCoordinate(999)
	assert.False(t, ok, "before first bar")
	_, ok = v.TimeToCoordinate(1000 + 10*60)
	assert.False(t, ok, "after last bar")

	x0, _ := v.TimeToCoordinate(1000)
	x1, _ := v.TimeToCoordinate(1060)
	mid, ok := v.TimeToCoordinate(1030)
	require.True(t, ok)
	assert.InDelta(t, (x0+x1)/2, mid, 1e-9)
}

func TestCoordinateToTimeOutsideBars(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(10))
	_, ok := v.CoordinateToTime(5)
	assert.False(t, ok, "left of first bar")
	_, ok = v.CoordinateToTime(float64(v.PlotRect().Dx() - 1))
	assert.False(t, ok, "right margin")
	_, ok = v.CoordinateToTime(-1)
	assert.False(t, ok)
}

func TestPriceScaleFitsVisibleBars(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(10))
	lo, hi := v.PriceRange()
	// lows 98..107, highs 102..111, span 13
	assert.InDelta(t, 98-1.3, lo, 1e-9)
	assert.InDelta(t, 111+1.3, hi, 1e-9)

	y, ok := v.PriceToCoordinate(hi)
	require.True(t, ok)
	assert.InDelta(t, 0, y, 1e-9)

	p, ok := v.CoordinateToPrice(float64(v.PlotRect().Dy()) / 2)
	require.True(t, ok)
	assert.InDelta(t, (lo+hi)/2, p, 1e-9)

	_, ok = v.PriceToCoordinate(10_000)
	assert.True(t, ok, "prices beyond the range still project")
	_, ok = v.CoordinateToPrice(float64(v.PlotRect().Dy()))
	assert.False(t, ok)
}

func TestViewportChangesNotify(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(200))
	p := &countingPrimitive{}
	v.Attach(p)
	v.Attach(p)
	assert.Len(t, v.Primitives(), 1)
	assert.Equal(t, 1, p.updates)

	calls := 0
	unsub := v.Subscribe(func() { calls++ })
	v.Pan(40)
	v.ZoomAt(100, 2)
	v.Resize(500, 300)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 4, p.updates)

	unsub()
	v.Pan(-40)
	assert.Equal(t, 3, calls)

	v.Detach(p)
	v.Pan(10)
	assert.Equal(t, 5, p.updates)
	assert.Empty(t, v.Primitives())
}

func TestPanRevealsOlderBars(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(200))
	from, _, ok := v.VisibleRange()
	require.True(t, ok)
	v.Pan(80)
	from2, _, _ := v.VisibleRange()
	assert.Equal(t, from-10, from2)
}

func TestZoomKeepsAnchorBar(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(200))
	x := 150.0
	before, ok := v.CoordinateToTime(x)
	require.True(t, ok)
	v.ZoomAt(x, 1.5)
	after, ok := v.CoordinateToTime(x)
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.InDelta(t, DefaultBarSpacing*1.5, v.BarSpacing(), 1e-9)

	v.ZoomAt(x, 100)
	assert.Equal(t, MaxBarSpacing, v.BarSpacing())
}

func TestPaintDrawsPrimitivesAndCandles(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(10))
	p := &countingPrimitive{}
	v.Attach(p)
	img := v.Render()
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())
	assert.Equal(t, 1, p.draws)

	c := v.Candles()[9]
	x, _ := v.TimeToCoordinate(c.Time)
	y, _ := v.PriceToCoordinate((c.Open + c.Close) / 2)
	assert.Equal(t, v.Theme().CandleUp, img.RGBAAt(int(x), int(y)))
}

func TestFitContent(t *testing.T) {
	v := NewViewport(400, 300)
	v.SetCandles(series(30))
	v.FitContent()
	from, to, ok := v.VisibleRange()
	require.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, 29, to)
}

func TestPriceTicks(t *testing.T) {
	assert.Equal(t, []float64{100, 102, 104, 106, 108, 110}, priceTicks(99.5, 110.4, 6))
	assert.Nil(t, priceTicks(5, 5, 3))
}
