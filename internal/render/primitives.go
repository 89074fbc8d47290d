package render

import (
	"image"
	"image/color"
	"math"

	"github.com/example/chartink/internal/coords"
	"github.com/example/chartink/internal/drawing"
)

// Renderer draws one annotation onto the chart. Update re-projects the
// annotation through the mapper; Draw paints the geometry from the last
// Update and paints nothing when a projection was unavailable.
type Renderer interface {
	Update()
	Draw(dst *image.RGBA)
	// Set replaces the backing annotation in place.
	Set(a drawing.Annotation, selected bool)
	Annotation() drawing.Annotation
	Selected() bool
	// Visible reports whether the last Update produced drawable geometry.
	Visible() bool
}

// Style holds the colours shared by every renderer.
type Style struct {
	Handle       color.RGBA
	HandleBorder color.RGBA
	NoteText     color.RGBA
	// Preview draws dashed strokes in PreviewColor instead of the
	// annotation's own colour.
	Preview      bool
	PreviewColor color.RGBA
}

// NoteMaxWidth bounds the text card drawn beside a note marker.
const NoteMaxWidth = 180

// New returns the renderer for a's kind.
func New(a drawing.Annotation, m *coords.Mapper, st Style) Renderer {
	b := base{mapper: m, style: st, ann: a.Clone()}
	switch a.Kind {
	case drawing.KindTrendLine:
		return &TrendLine{base: b}
	case drawing.KindHorizontal:
		return &Horizontal{base: b}
	case drawing.KindRectangle:
		return &Rectangle{base: b}
	case drawing.KindNote:
		return &Note{base: b}
	}
	return &invalid{base: b}
}

type base struct {
	mapper   *coords.Mapper
	style    Style
	ann      drawing.Annotation
	selected bool
	pts      []image.Point
	ok       bool
}

func (b *base) Set(a drawing.Annotation, selected bool) {
	b.ann = a.Clone()
	b.selected = selected
}

func (b *base) Annotation() drawing.Annotation { return b.ann.Clone() }
func (b *base) Selected() bool                 { return b.selected }
func (b *base) Visible() bool                  { return b.ok }

// project maps every point of the annotation. On any failure the geometry is
// cleared so Draw paints nothing.
func (b *base) project() {
	px, ok := b.mapper.ProjectAll(b.ann.Points)
	if !ok || len(px) == 0 {
		b.pts, b.ok = nil, false
		return
	}
	b.pts = b.pts[:0]
	for _, p := range px {
		b.pts = append(b.pts, p.Image())
	}
	b.ok = true
}

func (b *base) stroke() (color.RGBA, int) {
	w := b.ann.LineWidth
	if w < 1 {
		w = 1
	}
	if b.selected {
		w++
	}
	if b.style.Preview {
		return b.style.PreviewColor, w
	}
	return b.ann.Color, w
}

func (b *base) line(dst *image.RGBA, p0, p1 image.Point, col color.Color, w int) {
	if b.style.Preview {
		DashedLine(dst, p0.X, p0.Y, p1.X, p1.Y, 6, col, w)
		return
	}
	Line(dst, p0.X, p0.Y, p1.X, p1.Y, col, w)
}

func (b *base) handles(dst *image.RGBA, pts ...image.Point) {
	if !b.selected || b.style.Preview {
		return
	}
	for _, p := range pts {
		Handle(dst, p.X, p.Y, b.style.Handle, b.style.HandleBorder)
	}
}

// TrendLine draws a segment between its two points.
type TrendLine struct{ base }

func (r *TrendLine) Update() {
	r.project()
	if r.ok && len(r.pts) != 2 {
		r.ok = false
	}
}

func (r *TrendLine) Draw(dst *image.RGBA) {
	if !r.ok {
		return
	}
	col, w := r.stroke()
	r.line(dst, r.pts[0], r.pts[1], col, w)
	r.handles(dst, r.pts...)
}

// Horizontal draws a full width line at a price with a label on the right.
type Horizontal struct {
	base
	y int
	x int // handle position; -1 when the anchor bar is off screen
}

func (r *Horizontal) Update() {
	if len(r.ann.Points) == 0 {
		r.ok = false
		return
	}
	y, ok := r.mapper.PriceY(r.ann.Price())
	if !ok {
		r.ok = false
		return
	}
	r.y = int(math.Round(y))
	r.x = -1
	if px, ok := r.mapper.ToPixelSpace(r.ann.Points[0]); ok {
		r.x = px.Image().X
	}
	r.ok = true
}

func (r *Horizontal) Draw(dst *image.RGBA) {
	if !r.ok {
		return
	}
	b := dst.Bounds()
	col, w := r.stroke()
	r.line(dst, image.Pt(b.Min.X, r.y), image.Pt(b.Max.X-1, r.y), col, w)

	label := FormatPrice(r.ann.Price())
	tw, th, _ := MeasureText(label, SizeSmall)
	box := image.Rect(b.Max.X-tw-8, r.y-th/2-2, b.Max.X, r.y+th/2+2)
	FillRect(dst, box, col)
	DrawText(dst, box.Min.X+4, box.Min.Y+2, label, Contrast(col), SizeSmall)

	if r.x >= 0 {
		r.handles(dst, image.Pt(r.x, r.y))
	}
}

// Rectangle fills and outlines the box spanned by its two corners.
type Rectangle struct{ base }

func (r *Rectangle) Update() {
	r.project()
	if r.ok && len(r.pts) != 2 {
		r.ok = false
	}
}

// Bounds returns the box from the last Update.
func (r *Rectangle) Bounds() image.Rectangle {
	if !r.ok {
		return image.Rectangle{}
	}
	return image.Rectangle{Min: r.pts[0], Max: r.pts[1]}.Canon()
}

func (r *Rectangle) Draw(dst *image.RGBA) {
	if !r.ok {
		return
	}
	box := r.Bounds()
	col, w := r.stroke()
	if !r.style.Preview && r.ann.FillColor.A > 0 {
		FillRect(dst, box, r.ann.FillColor)
	}
	tl, br := box.Min, box.Max
	tr, bl := image.Pt(br.X, tl.Y), image.Pt(tl.X, br.Y)
	r.line(dst, tl, tr, col, w)
	r.line(dst, tr, br, col, w)
	r.line(dst, br, bl, col, w)
	r.line(dst, bl, tl, col, w)
	r.handles(dst, r.pts...)
}

// Note draws a marker at its point and, when it has text, a card beside it.
type Note struct{ base }

// NoteMarkerRadius is the radius of the note marker disc.
const NoteMarkerRadius = 7

func (r *Note) Update() {
	r.project()
	if r.ok && len(r.pts) != 1 {
		r.ok = false
	}
}

func (r *Note) Draw(dst *image.RGBA) {
	if !r.ok {
		return
	}
	p := r.pts[0]
	col, w := r.stroke()
	FilledCircle(dst, p.X, p.Y, NoteMarkerRadius, col)
	if r.selected {
		Circle(dst, p.X, p.Y, NoteMarkerRadius+3, r.style.HandleBorder, w)
	}
	if r.ann.Text == "" {
		return
	}
	lines := WrapText(r.ann.Text, SizeNormal, NoteMaxWidth)
	_, lh, _ := MeasureText("Mg", SizeNormal)
	width := 0
	for _, l := range lines {
		if lw, _, _ := MeasureText(l, SizeNormal); lw > width {
			width = lw
		}
	}
	card := image.Rect(p.X+NoteMarkerRadius+6, p.Y-lh/2-4, p.X+NoteMarkerRadius+6+width+12, p.Y-lh/2+4+lh*len(lines))
	Card(dst, card, col, nil)
	text := r.style.NoteText
	if text.A == 0 {
		text = color.RGBA{A: 255}
	}
	for i, l := range lines {
		DrawText(dst, card.Min.X+6, card.Min.Y+4+i*lh, l, text, SizeNormal)
	}
}

// invalid stands in for annotations of an unknown kind and never draws.
type invalid struct{ base }

func (r *invalid) Update()          { r.ok = false }
func (r *invalid) Draw(*image.RGBA) {}
