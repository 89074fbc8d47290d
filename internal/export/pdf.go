// Package export writes charts and their drawings to PDF.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/render"
)

// Document is one exported chart.
type Document struct {
	Title     string
	Subtitle  string
	Chart     image.Image
	Drawings  []drawing.Annotation
	Generated time.Time
}

const (
	pageMargin = 12.0
	rowHeight  = 6.0
)

var columns = []struct {
	title string
	width float64
}{
	{"#", 10},
	{"Kind", 28},
	{"Points", 120},
	{"Colour", 24},
	{"Text", 91},
}

// WritePDF renders doc as a landscape A4 page: the chart image scaled to the
// page width followed by a table of drawings.
func WritePDF(w io.Writer, doc Document) error {
	if doc.Chart == nil {
		return errors.New("export: no chart image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, doc.Chart); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetMargins(pageMargin, pageMargin, pageMargin)
	p.SetAutoPageBreak(true, pageMargin)
	p.SetTitle(doc.Title, true)
	p.SetCreator("chartink", true)
	p.AddPage()

	p.SetFont("Helvetica", "B", 16)
	p.CellFormat(0, 9, doc.Title, "", 1, "L", false, 0, "")
	p.SetFont("Helvetica", "", 9)
	sub := doc.Subtitle
	if !doc.Generated.IsZero() {
		sub = strings.TrimSpace(sub + "  generated " + doc.Generated.UTC().Format(time.RFC3339))
	}
	if sub != "" {
		p.CellFormat(0, 5, sub, "", 1, "L", false, 0, "")
	}
	p.Ln(2)

	pageW, _ := p.GetPageSize()
	imgW := pageW - 2*pageMargin
	b := doc.Chart.Bounds()
	imgH := imgW * float64(b.Dy()) / float64(b.Dx())
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	p.RegisterImageOptionsReader("chart", opts, &buf)
	p.ImageOptions("chart", pageMargin, p.GetY(), imgW, imgH, true, opts, 0, "")
	p.Ln(4)

	writeTable(p, doc.Drawings)

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WritePDFFile writes doc to path.
func WritePDFFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, doc); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func writeTable(p *gofpdf.Fpdf, items []drawing.Annotation) {
	p.SetFont("Helvetica", "B", 10)
	p.CellFormat(0, 7, fmt.Sprintf("Drawings (%d)", len(items)), "", 1, "L", false, 0, "")
	if len(items) == 0 {
		return
	}
	p.SetFillColor(230, 230, 230)
	for _, c := range columns {
		p.CellFormat(c.width, rowHeight, c.title, "1", 0, "L", true, 0, "")
	}
	p.Ln(-1)

	p.SetFont("Helvetica", "", 9)
	tr := p.UnicodeTranslatorFromDescriptor("")
	for i, a := range items {
		row := Describe(a)
		cells := []string{fmt.Sprint(i + 1), row.Kind, row.Points, row.Color, row.Text}
		for j, c := range columns {
			p.CellFormat(c.width, rowHeight, tr(clip(p, cells[j], c.width-2)), "1", 0, "L", false, 0, "")
		}
		p.Ln(-1)
	}
}

func clip(p *gofpdf.Fpdf, s string, width float64) string {
	if p.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && p.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// Row is the table description of one drawing.
type Row struct {
	Kind   string
	Points string
	Color  string
	Text   string
}

// Describe formats a drawing for tabular output.
func Describe(a drawing.Annotation) Row {
	pts := make([]string, 0, len(a.Points))
	for _, pt := range a.Points {
		if a.Kind == drawing.KindHorizontal {
			pts = append(pts, render.FormatPrice(pt.Price))
			continue
		}
		pts = append(pts, fmt.Sprintf("%s @ %s", formatTime(pt.Time), render.FormatPrice(pt.Price)))
	}
	return Row{
		Kind:   string(a.Kind),
		Points: strings.Join(pts, " -> "),
		Color:  drawing.Hex(a.Color),
		Text:   a.Text,
	}
}

func formatTime(sec int64) string {
	t := time.Unix(sec, 0).UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}
