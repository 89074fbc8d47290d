package overlay

import (
	"fmt"
	"image"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/drawing"
)

// Snapshot renders v with items drawn on top, without selection or
// interaction state. The viewport is left as it was.
func Snapshot(v *chart.Viewport, items []drawing.Annotation, opts ...Option) (*image.RGBA, error) {
	store := drawing.NewStore()
	if err := store.Load(items); err != nil {
		return nil, fmt.Errorf("load drawings: %w", err)
	}
	c := New(store, v, opts...)
	defer c.Close()
	return v.Render(), nil
}
