// Package drawing holds the chart annotation model and the store that owns it.
package drawing

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrInvalidAnnotation is returned when an annotation has the wrong shape for its kind.
var ErrInvalidAnnotation = errors.New("invalid annotation")

// Kind discriminates the annotation variants.
type Kind string

const (
	KindTrendLine  Kind = "trendline"
	KindHorizontal Kind = "horizontal"
	KindRectangle  Kind = "rectangle"
	KindNote       Kind = "note"
)

// Kinds lists every annotation kind in toolbar order.
func Kinds() []Kind {
	return []Kind{KindTrendLine, KindHorizontal, KindRectangle, KindNote}
}

// RequiredPoints reports how many defining points an annotation of kind k carries.
func RequiredPoints(k Kind) int {
	switch k {
	case KindTrendLine, KindRectangle:
		return 2
	case KindHorizontal, KindNote:
		return 1
	default:
		return 0
	}
}

// Point is a location in chart space. Time is seconds since the epoch; daily
// bars use midnight UTC of their date.
type Point struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// Annotation is a user drawn overlay object. Only the fields relevant to Kind
// are meaningful: FillColor is used by rectangles and Text by notes. A
// horizontal line keeps its price in Points[0]; the time component is the
// bar it was placed on and is not used for drawing.
type Annotation struct {
	ID        string
	Kind      Kind
	Points    []Point
	Color     color.RGBA
	FillColor color.RGBA
	LineWidth int
	Text      string
}

// Price returns the price of a horizontal line.
func (a Annotation) Price() float64 {
	if len(a.Points) == 0 {
		return 0
	}
	return a.Points[0].Price
}

// Clone returns a deep copy so callers can not alias store internals.
func (a Annotation) Clone() Annotation {
	out := a
	out.Points = append([]Point(nil), a.Points...)
	return out
}

// Validate checks the point count invariant for the annotation's kind.
func (a Annotation) Validate() error {
	want := RequiredPoints(a.Kind)
	if want == 0 {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAnnotation, a.Kind)
	}
	if len(a.Points) != want {
		return fmt.Errorf("%w: %s needs %d points, got %d", ErrInvalidAnnotation, a.Kind, want, len(a.Points))
	}
	return nil
}

// Style carries the visual attributes applied when a tool commits a shape.
type Style struct {
	Color     color.RGBA
	FillColor color.RGBA
	LineWidth int
}

// DefaultStyle returns the base style for new annotations of kind k.
func DefaultStyle(k Kind) Style {
	switch k {
	case KindTrendLine:
		return Style{Color: color.RGBA{41, 98, 255, 255}, LineWidth: 2}
	case KindHorizontal:
		return Style{Color: color.RGBA{242, 54, 69, 255}, LineWidth: 1}
	case KindRectangle:
		return Style{Color: color.RGBA{41, 98, 255, 255}, FillColor: color.RGBA{41, 98, 255, 48}, LineWidth: 1}
	case KindNote:
		return Style{Color: color.RGBA{255, 183, 77, 255}, LineWidth: 1}
	}
	return Style{Color: color.RGBA{0, 0, 0, 255}, LineWidth: 1}
}

// New builds an unsaved annotation of kind k from its defining points.
func New(k Kind, style Style, pts ...Point) Annotation {
	return Annotation{
		Kind:      k,
		Points:    append([]Point(nil), pts...),
		Color:     style.Color,
		FillColor: style.FillColor,
		LineWidth: style.LineWidth,
	}
}

// Patch describes a partial update. Nil fields are left untouched.
type Patch struct {
	Points    []Point
	Text      *string
	Color     *color.RGBA
	FillColor *color.RGBA
	LineWidth *int
}

// TextPatch is shorthand for a patch that only replaces note text.
func TextPatch(text string) Patch { return Patch{Text: &text} }

func (p Patch) apply(a *Annotation) {
	if p.Points != nil && len(p.Points) == len(a.Points) {
		a.Points = append([]Point(nil), p.Points...)
	}
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.FillColor != nil {
		a.FillColor = *p.FillColor
	}
	if p.LineWidth != nil && *p.LineWidth > 0 {
		a.LineWidth = *p.LineWidth
	}
}

type annotationJSON struct {
	ID        string  `json:"id"`
	Kind      Kind    `json:"kind"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	FillColor string  `json:"fillColor,omitempty"`
	LineWidth int     `json:"lineWidth,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// MarshalJSON encodes colours as hex strings.
func (a Annotation) MarshalJSON() ([]byte, error) {
	out := annotationJSON{
		ID:        a.ID,
		Kind:      a.Kind,
		Points:    a.Points,
		Color:     Hex(a.Color),
		LineWidth: a.LineWidth,
		Text:      a.Text,
	}
	if a.Kind == KindRectangle {
		out.FillColor = Hex(a.FillColor)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var in annotationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Annotation{ID: in.ID, Kind: in.Kind, Points: in.Points, LineWidth: in.LineWidth, Text: in.Text}
	if in.Color != "" {
		c, err := ParseHex(in.Color)
		if err != nil {
			return err
		}
		a.Color = c
	}
	if in.FillColor != "" {
		c, err := ParseHex(in.FillColor)
		if err != nil {
			return err
		}
		a.FillColor = c
	}
	return nil
}

// Hex formats c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func Hex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ParseHex parses #RRGGBB or #RRGGBBAA.
func ParseHex(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	}
	return color.RGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
}
