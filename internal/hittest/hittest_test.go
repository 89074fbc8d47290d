package hittest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/coords"
	"github.com/example/chartink/internal/drawing"
)

// flat maps time to x and price to y one to one over [0, 1000].
type flat struct{}

func ok(v float64) bool { return v >= 0 && v <= 1000 }

func (flat) TimeToCoordinate(t int64) (float64, bool)    { return float64(t), ok(float64(t)) }
func (flat) CoordinateToTime(x float64) (int64, bool)    { return int64(x), ok(x) }
func (flat) PriceToCoordinate(p float64) (float64, bool) { return p, ok(p) }
func (flat) CoordinateToPrice(y float64) (float64, bool) { return y, ok(y) }

var mapper = coords.NewMapper(flat{})

func pt(t int64, p float64) drawing.Point { return drawing.Point{Time: t, Price: p} }

func ann(id string, k drawing.Kind, pts ...drawing.Point) drawing.Annotation {
	return drawing.Annotation{ID: id, Kind: k, Points: pts}
}

func TestPerKindRules(t *testing.T) {
	tests := []struct {
		name string
		a    drawing.Annotation
		x, y float64
		want bool
	}{
		{"horizontal near", ann("h", drawing.KindHorizontal, pt(10, 100)), 900, 109.9, true},
		{"horizontal edge", ann("h", drawing.KindHorizontal, pt(10, 100)), 900, 110, false},
		{"horizontal off-range time", ann("h", drawing.KindHorizontal, pt(5000, 100)), 3, 95, true},
		{"note inside box", ann("n", drawing.KindNote, pt(100, 100)), 114, 86, true},
		{"note x too far", ann("n", drawing.KindNote, pt(100, 100)), 115, 100, false},
		{"note y too far", ann("n", drawing.KindNote, pt(100, 100)), 100, 115, false},
		{"trend on segment", ann("t", drawing.KindTrendLine, pt(0, 0), pt(100, 100)), 50, 55, true},
		{"trend beyond end", ann("t", drawing.KindTrendLine, pt(0, 0), pt(100, 100)), 115, 115, false},
		{"trend near end", ann("t", drawing.KindTrendLine, pt(0, 0), pt(100, 100)), 105, 105, true},
		{"rect inside", ann("r", drawing.KindRectangle, pt(100, 200), pt(50, 100)), 75, 150, true},
		{"rect border inclusive", ann("r", drawing.KindRectangle, pt(50, 100), pt(100, 200)), 100, 200, true},
		{"rect outside", ann("r", drawing.KindRectangle, pt(50, 100), pt(100, 200)), 101, 150, false},
		{"unmappable trend", ann("t", drawing.KindTrendLine, pt(0, 0), pt(2000, 100)), 1, 1, false},
		{"unmappable note", ann("n", drawing.KindNote, pt(100, -50)), 100, -50, false},
		{"malformed", ann("r", drawing.KindRectangle, pt(0, 0)), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.a, tt.x, tt.y, mapper))
		})
	}
}

func TestFirstInsertedWins(t *testing.T) {
	items := []drawing.Annotation{
		ann("rect", drawing.KindRectangle, pt(0, 0), pt(200, 200)),
		ann("trend", drawing.KindTrendLine, pt(0, 100), pt(200, 100)),
		ann("note", drawing.KindNote, pt(100, 100)),
	}
	id, found := HitTest(100, 100, items, mapper)
	require.True(t, found)
	assert.Equal(t, "rect", id)

	id, _ = HitTest(100, 100, items[1:], mapper)
	assert.Equal(t, "trend", id)

	_, found = HitTest(500, 500, items, mapper)
	assert.False(t, found)
	_, found = HitTest(1, 1, items, nil)
	assert.False(t, found)
}

func TestRectangleContainmentProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := pt(int64(rng.Intn(1000)), float64(rng.Intn(1000)))
		b := pt(int64(rng.Intn(1000)), float64(rng.Intn(1000)))
		r := ann("r", drawing.KindRectangle, a, b)
		lo := math.Min(float64(a.Time), float64(b.Time))
		hi := math.Max(float64(a.Time), float64(b.Time))
		top := math.Min(a.Price, b.Price)
		bottom := math.Max(a.Price, b.Price)
		if hi-lo < 2 || bottom-top < 2 {
			continue
		}
		x := lo + 1 + rng.Float64()*(hi-lo-2)
		y := top + 1 + rng.Float64()*(bottom-top-2)
		id, found := HitTest(x, y, []drawing.Annotation{r}, mapper)
		require.True(t, found, "rect %v %v point %v,%v", a, b, x, y)
		assert.Equal(t, "r", id)
	}
}

func TestSegmentDistanceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 2000; i++ {
		a := pt(int64(rng.Intn(1000)), float64(rng.Intn(1000)))
		b := pt(int64(rng.Intn(1000)), float64(rng.Intn(1000)))
		x := rng.Float64() * 1000
		y := rng.Float64() * 1000
		line := ann("t", drawing.KindTrendLine, a, b)
		d := SegmentDistance(x, y, coords.Pixel{X: float64(a.Time), Y: a.Price}, coords.Pixel{X: float64(b.Time), Y: b.Price})
		_, found := HitTest(x, y, []drawing.Annotation{line}, mapper)
		assert.Equal(t, d < LineTolerance, found)
	}
}

func TestSegmentDistance(t *testing.T) {
	a, b := coords.Pixel{X: 0, Y: 0}, coords.Pixel{X: 10, Y: 0}
	assert.InDelta(t, 3, SegmentDistance(5, 3, a, b), 1e-9)
	assert.InDelta(t, 5, SegmentDistance(13, 4, a, b), 1e-9)
	assert.InDelta(t, 5, SegmentDistance(3, 4, a, a), 1e-9)
}

func TestHandleAt(t *testing.T) {
	r := ann("r", drawing.KindRectangle, pt(100, 100), pt(200, 200))
	idx, found := HandleAt(r, 198, 203, mapper)
	require.True(t, found)
	assert.Equal(t, 1, idx)
	_, found = HandleAt(r, 150, 150, mapper)
	assert.False(t, found)

	h := ann("h", drawing.KindHorizontal, pt(10, 300))
	idx, found = HandleAt(h, 700, 305, mapper)
	assert.True(t, found)
	assert.Equal(t, 0, idx)
}
