package overlay

import (
	"image"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/coords"
	"github.com/example/chartink/internal/drawing"
)

// Host is the chart the overlay draws on. *chart.Viewport implements it.
type Host interface {
	coords.Surface
	Ready() bool
	PlotRect() image.Rectangle
	Attach(p chart.Primitive)
	Detach(p chart.Primitive)
	// Subscribe registers a visible range change callback.
	Subscribe(fn func()) func()
}

// Persistence receives best effort notifications about committed drawings.
// Calls must not block; implementations queue or drop.
type Persistence interface {
	AddDrawing(a drawing.Annotation)
	UpdateDrawing(id, text string)
	MoveDrawing(id string, pts []drawing.Point)
	RemoveDrawing(id string)
}

// ChatTagger forwards an annotation to the chat. Fire and forget.
type ChatTagger interface {
	TagAnnotation(a drawing.Annotation)
}

var _ Host = (*chart.Viewport)(nil)
