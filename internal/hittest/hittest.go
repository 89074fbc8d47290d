// Package hittest finds the annotation under a pixel.
package hittest

import (
	"math"

	"github.com/example/chartink/internal/coords"
	"github.com/example/chartink/internal/drawing"
)

// Tolerances in pixels.
const (
	LineTolerance   = 10.0
	NoteHalfBox     = 15.0
	HandleTolerance = 6.0
)

// HitTest returns the ID of the first annotation in list order that
// contains (x, y). Later annotations never win over earlier ones even when
// they are drawn on top. Annotations with an unmappable point are skipped.
func HitTest(x, y float64, items []drawing.Annotation, m *coords.Mapper) (string, bool) {
	for _, a := range items {
		if Contains(a, x, y, m) {
			return a.ID, true
		}
	}
	return "", false
}

// Contains applies the per kind hit rule for a single annotation.
func Contains(a drawing.Annotation, x, y float64, m *coords.Mapper) bool {
	switch a.Kind {
	case drawing.KindHorizontal:
		if len(a.Points) != 1 {
			return false
		}
		ly, ok := m.PriceY(a.Price())
		return ok && math.Abs(y-ly) < LineTolerance
	case drawing.KindNote:
		px, ok := project(a, 1, m)
		return ok && math.Abs(x-px[0].X) < NoteHalfBox && math.Abs(y-px[0].Y) < NoteHalfBox
	case drawing.KindTrendLine:
		px, ok := project(a, 2, m)
		return ok && SegmentDistance(x, y, px[0], px[1]) < LineTolerance
	case drawing.KindRectangle:
		px, ok := project(a, 2, m)
		if !ok {
			return false
		}
		minX, maxX := math.Min(px[0].X, px[1].X), math.Max(px[0].X, px[1].X)
		minY, maxY := math.Min(px[0].Y, px[1].Y), math.Max(px[0].Y, px[1].Y)
		return x >= minX && x <= maxX && y >= minY && y <= maxY
	}
	return false
}

func project(a drawing.Annotation, n int, m *coords.Mapper) ([]coords.Pixel, bool) {
	if len(a.Points) != n {
		return nil, false
	}
	return m.ProjectAll(a.Points)
}

// SegmentDistance is the distance from (x, y) to the segment ab, found by
// projecting onto the line and clamping the parameter to [0, 1].
func SegmentDistance(x, y float64, a, b coords.Pixel) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((x-a.X)*dx + (y-a.Y)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(x-(a.X+t*dx), y-(a.Y+t*dy))
}

// HandleAt returns the index of the defining point of a within
// HandleTolerance of (x, y). A horizontal line's handle is anywhere along
// the line, so its single point matches by y alone.
func HandleAt(a drawing.Annotation, x, y float64, m *coords.Mapper) (int, bool) {
	if a.Kind == drawing.KindHorizontal {
		if len(a.Points) != 1 {
			return 0, false
		}
		ly, ok := m.PriceY(a.Price())
		if ok && math.Abs(y-ly) <= HandleTolerance {
			return 0, true
		}
		return 0, false
	}
	best, bestDist := -1, HandleTolerance
	for i, p := range a.Points {
		px, ok := m.ToPixelSpace(p)
		if !ok {
			continue
		}
		if d := math.Hypot(x-px.X, y-px.Y); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}
