package coords

import (
	"testing"

	"github.com/example/chartink/internal/drawing"
	"github.com/stretchr/testify/assert"
)

// linear maps time t to x = t and price p to y = 1000 - p inside [0,1000].
type linear struct{}

func (linear) TimeToCoordinate(t int64) (float64, bool) {
	if t < 0 || t > 1000 {
		return 0, false
	}
	return float64(t), true
}

func (linear) CoordinateToTime(x float64) (int64, bool) {
	if x < 0 || x > 1000 {
		return 0, false
	}
	return int64(x), true
}

func (linear) PriceToCoordinate(p float64) (float64, bool) { return 1000 - p, true }

func (linear) CoordinateToPrice(y float64) (float64, bool) {
	if y < 0 || y > 1000 {
		return 0, false
	}
	return 1000 - y, true
}

func TestRoundTrip(t *testing.T) {
	m := NewMapper(linear{})
	p, ok := m.ToChartSpace(120, 300)
	assert.True(t, ok)
	assert.Equal(t, drawing.Point{Time: 120, Price: 700}, p)

	px, ok := m.ToPixelSpace(p)
	assert.True(t, ok)
	assert.Equal(t, Pixel{X: 120, Y: 300}, px)
}

func TestOutOfRangeIsUnavailable(t *testing.T) {
	m := NewMapper(linear{})
	_, ok := m.ToChartSpace(-1, 10)
	assert.False(t, ok)
	_, ok = m.ToChartSpace(10, 1001)
	assert.False(t, ok)
	_, ok = m.ToPixelSpace(drawing.Point{Time: 2000, Price: 1})
	assert.False(t, ok)
}

func TestNilSurface(t *testing.T) {
	var m *Mapper
	_, ok := m.ToChartSpace(1, 1)
	assert.False(t, ok)
	_, ok = NewMapper(nil).ToPixelSpace(drawing.Point{})
	assert.False(t, ok)
}

func TestProjectAll(t *testing.T) {
	m := NewMapper(linear{})
	px, ok := m.ProjectAll([]drawing.Point{{Time: 1, Price: 1}, {Time: 2, Price: 2}})
	assert.True(t, ok)
	assert.Len(t, px, 2)
	_, ok = m.ProjectAll([]drawing.Point{{Time: 1, Price: 1}, {Time: -5, Price: 2}})
	assert.False(t, ok)
}
