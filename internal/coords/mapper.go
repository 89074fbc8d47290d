// Package coords converts between screen pixels and chart space.
package coords

import (
	"image"
	"math"

	"github.com/example/chartink/internal/drawing"
)

// Surface is the part of a host chart the overlay needs for coordinate
// conversion. Each method reports false when the value is outside the
// plotted domain.
type Surface interface {
	TimeToCoordinate(t int64) (float64, bool)
	CoordinateToTime(x float64) (int64, bool)
	PriceToCoordinate(price float64) (float64, bool)
	CoordinateToPrice(y float64) (float64, bool)
}

// Pixel is a point in surface pixel space.
type Pixel struct {
	X, Y float64
}

// Image rounds p to an image.Point.
func (p Pixel) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Mapper converts through the surface's current viewport on every call. It
// keeps no state of its own so it never goes stale after a pan or zoom.
type Mapper struct {
	surface Surface
}

// NewMapper wraps s.
func NewMapper(s Surface) *Mapper {
	return &Mapper{surface: s}
}

// ToChartSpace maps a pixel to a chart point.
func (m *Mapper) ToChartSpace(x, y float64) (drawing.Point, bool) {
	if m == nil || m.surface == nil {
		return drawing.Point{}, false
	}
	t, ok := m.surface.CoordinateToTime(x)
	if !ok {
		return drawing.Point{}, false
	}
	price, ok := m.surface.CoordinateToPrice(y)
	if !ok {
		return drawing.Point{}, false
	}
	return drawing.Point{Time: t, Price: price}, true
}

// ToPixelSpace maps a chart point to a pixel.
func (m *Mapper) ToPixelSpace(p drawing.Point) (Pixel, bool) {
	if m == nil || m.surface == nil {
		return Pixel{}, false
	}
	x, ok := m.surface.TimeToCoordinate(p.Time)
	if !ok {
		return Pixel{}, false
	}
	y, ok := m.surface.PriceToCoordinate(p.Price)
	if !ok {
		return Pixel{}, false
	}
	return Pixel{X: x, Y: y}, true
}

// PriceY maps only a price, for shapes that span the full width.
func (m *Mapper) PriceY(price float64) (float64, bool) {
	if m == nil || m.surface == nil {
		return 0, false
	}
	return m.surface.PriceToCoordinate(price)
}

// ProjectAll maps every point, failing if any one is unavailable.
func (m *Mapper) ProjectAll(pts []drawing.Point) ([]Pixel, bool) {
	out := make([]Pixel, len(pts))
	for i, p := range pts {
		px, ok := m.ToPixelSpace(p)
		if !ok {
			return nil, false
		}
		out[i] = px
	}
	return out, true
}
