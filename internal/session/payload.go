package session

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/example/chartink/internal/drawing"
)

// record is the msgpack encoded body of a drawings row. The ID and kind live
// in their own columns.
type record struct {
	Points    []pointRecord `msgpack:"p"`
	Color     string        `msgpack:"c"`
	FillColor string        `msgpack:"f,omitempty"`
	LineWidth int           `msgpack:"w"`
	Text      string        `msgpack:"t,omitempty"`
}

type pointRecord struct {
	Time  int64   `msgpack:"t"`
	Price float64 `msgpack:"p"`
}

func encodePayload(a drawing.Annotation) ([]byte, error) {
	rec := record{
		Color:     drawing.Hex(a.Color),
		LineWidth: a.LineWidth,
		Text:      a.Text,
	}
	if a.Kind == drawing.KindRectangle {
		rec.FillColor = drawing.Hex(a.FillColor)
	}
	for _, p := range a.Points {
		rec.Points = append(rec.Points, pointRecord{Time: p.Time, Price: p.Price})
	}
	b, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode drawing %s: %w", a.ID, err)
	}
	return b, nil
}

func decodePayload(id string, kind drawing.Kind, b []byte) (drawing.Annotation, error) {
	var rec record
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return drawing.Annotation{}, fmt.Errorf("decode drawing %s: %w", id, err)
	}
	a := drawing.Annotation{ID: id, Kind: kind, LineWidth: rec.LineWidth, Text: rec.Text}
	var err error
	if a.Color, err = drawing.ParseHex(rec.Color); err != nil {
		return drawing.Annotation{}, fmt.Errorf("decode drawing %s: %w", id, err)
	}
	if rec.FillColor != "" {
		if a.FillColor, err = drawing.ParseHex(rec.FillColor); err != nil {
			return drawing.Annotation{}, fmt.Errorf("decode drawing %s: %w", id, err)
		}
	}
	for _, p := range rec.Points {
		a.Points = append(a.Points, drawing.Point{Time: p.Time, Price: p.Price})
	}
	return a, nil
}
