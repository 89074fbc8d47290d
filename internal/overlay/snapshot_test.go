package overlay

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/marketdata"
)

func TestSnapshotDrawsAnnotationsAndDetaches(t *testing.T) {
	candles := make([]marketdata.Candle, 50)
	for i := range candles {
		base := 100 + float64(i)
		candles[i] = marketdata.Candle{Time: 1000 + int64(i)*60, Open: base, High: base + 2, Low: base - 2, Close: base + 1}
	}
	v := chart.NewViewport(400, 300)
	v.SetCandles(candles)
	require.True(t, v.Ready())

	lo, hi := v.PriceRange()
	mark := color.RGBA{R: 1, G: 254, B: 3, A: 255}
	h := drawing.New(drawing.KindHorizontal, drawing.Style{Color: mark, LineWidth: 1}, drawing.Point{Time: 1000, Price: (lo + hi) / 2})
	h.ID = "h1"

	img, err := Snapshot(v, []drawing.Annotation{h})
	require.NoError(t, err)
	assert.Empty(t, v.Primitives())

	y, ok := v.PriceToCoordinate((lo + hi) / 2)
	require.True(t, ok)
	found := false
	for dy := -1; dy <= 1 && !found; dy++ {
		for x := 0; x < v.PlotRect().Dx(); x++ {
			if img.RGBAAt(x, int(y)+dy) == mark {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "horizontal line not painted")

	_, err = Snapshot(v, []drawing.Annotation{h, h})
	assert.Error(t, err)
}
