package export

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/drawing"
)

func sampleDrawings() []drawing.Annotation {
	tl := drawing.New(drawing.KindTrendLine, drawing.DefaultStyle(drawing.KindTrendLine),
		drawing.Point{Time: 1704067200, Price: 187.5}, drawing.Point{Time: 1704112200, Price: 191})
	tl.ID = "t1"
	h := drawing.New(drawing.KindHorizontal, drawing.Style{Color: color.RGBA{R: 255, A: 255}, LineWidth: 1},
		drawing.Point{Time: 1704067200, Price: 180.25})
	h.ID = "h1"
	n := drawing.New(drawing.KindNote, drawing.DefaultStyle(drawing.KindNote), drawing.Point{Time: 1704067200, Price: 185})
	n.ID = "n1"
	n.Text = "earnings gap, watch for a retest of the prior high before adding"
	return []drawing.Annotation{tl, h, n}
}

func TestDescribe(t *testing.T) {
	rows := make([]Row, 0, 3)
	for _, a := range sampleDrawings() {
		rows = append(rows, Describe(a))
	}
	assert.Equal(t, "trendline", rows[0].Kind)
	assert.Equal(t, "2024-01-01 @ 187.50 -> 2024-01-01 12:30 @ 191.00", rows[0].Points)
	assert.Equal(t, "180.25", rows[1].Points)
	assert.Equal(t, "#FF0000", rows[1].Color)
	assert.Contains(t, rows[2].Text, "earnings gap")
}

func TestWritePDF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	err := WritePDF(&buf, Document{
		Title:     "AAPL 1d",
		Subtitle:  "session 42",
		Chart:     img,
		Drawings:  sampleDrawings(),
		Generated: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFNeedsChart(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WritePDF(&buf, Document{Title: "x"}))
}

func TestWritePDFFileRemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.Error(t, WritePDFFile(path, Document{}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, WritePDFFile(path, Document{Title: "ok", Chart: image.NewRGBA(image.Rect(0, 0, 10, 10))}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
