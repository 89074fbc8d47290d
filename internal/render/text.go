package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Text sizes used by the chart: axis labels, note bodies and menu items.
const (
	SizeSmall  = 11.0
	SizeNormal = 13.0
	SizeLarge  = 16.0
)

var (
	fontOnce  sync.Once
	fontErr   error
	regular   *opentype.Font
	faceCache sync.Map // map[float64]font.Face
)

func loadFont() {
	regular, fontErr = opentype.Parse(goregular.TTF)
}

// Face returns the Go Regular face at size points. When the font cannot be
// parsed basicfont is used instead so text is never silently dropped.
func Face(size float64) font.Face {
	fontOnce.Do(loadFont)
	if fontErr != nil {
		return basicfont.Face7x13
	}
	if size <= 0 {
		size = SizeNormal
	}
	size = math.Round(size*2) / 2
	if f, ok := faceCache.Load(size); ok {
		return f.(font.Face)
	}
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	actual, _ := faceCache.LoadOrStore(size, face)
	return actual.(font.Face)
}

// MeasureText returns the dimensions of text rendered at the provided size.
// baseline is the offset from the top to the text baseline.
func MeasureText(text string, size float64) (width, height, baseline int) {
	face := Face(size)
	drawer := &font.Drawer{Face: face}
	width = drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	baseline = metrics.Ascent.Ceil()
	height = baseline + metrics.Descent.Ceil()
	return
}

// DrawText renders text with its top-left corner at (x, y).
func DrawText(img *image.RGBA, x, y int, text string, col color.Color, size float64) {
	face := Face(size)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(text)
}

// WrapText breaks text into lines no wider than maxWidth pixels. Words longer
// than maxWidth are split by rune.
func WrapText(text string, size float64, maxWidth int) []string {
	if text == "" {
		return nil
	}
	drawer := &font.Drawer{Face: Face(size)}
	fits := func(s string) bool { return drawer.MeasureString(s).Ceil() <= maxWidth }

	var lines []string
	line := ""
	for _, r := range text {
		if r == '\n' {
			lines = append(lines, line)
			line = ""
			continue
		}
		next := line + string(r)
		if fits(next) || line == "" {
			line = next
			continue
		}
		if i := lastSpace(line); i > 0 && r != ' ' {
			lines = append(lines, line[:i])
			line = line[i+1:] + string(r)
			continue
		}
		lines = append(lines, line)
		if r == ' ' {
			line = ""
		} else {
			line = string(r)
		}
	}
	return append(lines, line)
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}

// FormatPrice renders a price with a precision suited to its magnitude.
func FormatPrice(p float64) string {
	switch a := math.Abs(p); {
	case a >= 1000:
		return fmt.Sprintf("%.0f", p)
	case a >= 1:
		return fmt.Sprintf("%.2f", p)
	default:
		return fmt.Sprintf("%.4f", p)
	}
}
