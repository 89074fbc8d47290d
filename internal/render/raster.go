package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	b := img.Bounds()
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(b) {
				img.Set(p.X, p.Y, col)
			}
		}
	}
}

// Line draws a Bresenham line of the given thickness.
func Line(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	if thick < 1 {
		thick = 1
	}
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DashedLine draws a line of alternating dash and gap segments. It works for
// any direction, unlike the axis-aligned marching-ants border it replaces.
func DashedLine(img *image.RGBA, x0, y0, x1, y1, dash int, col color.Color, thick int) {
	if dash <= 0 {
		Line(img, x0, y0, x1, y1, col, thick)
		return
	}
	fx, fy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(fx, fy)
	if length == 0 {
		setThickPixel(img, x0, y0, thick, col)
		return
	}
	ux, uy := fx/length, fy/length
	for start := 0.0; start < length; start += float64(2 * dash) {
		end := math.Min(start+float64(dash), length)
		Line(img,
			x0+int(math.Round(ux*start)), y0+int(math.Round(uy*start)),
			x0+int(math.Round(ux*end)), y0+int(math.Round(uy*end)),
			col, thick)
	}
}

// Rect strokes the outline of rect.
func Rect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	Line(img, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Min.Y, col, thick)
	Line(img, rect.Max.X-1, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, col, thick)
	Line(img, rect.Max.X-1, rect.Max.Y-1, rect.Min.X, rect.Max.Y-1, col, thick)
	Line(img, rect.Min.X, rect.Max.Y-1, rect.Min.X, rect.Min.Y, col, thick)
}

// FillRect composites col over rect, honouring its alpha.
func FillRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	draw.Draw(img, rect.Intersect(img.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

func circleThin(img *image.RGBA, cx, cy, r int, col color.Color) {
	x := r
	y := 0
	err := 1 - r
	b := img.Bounds()
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			pt := image.Pt(cx+p[0], cy+p[1])
			if pt.In(b) {
				img.Set(pt.X, pt.Y, col)
			}
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

// Circle strokes a circle of radius r.
func Circle(img *image.RGBA, cx, cy, r int, col color.Color, thick int) {
	if thick <= 1 {
		circleThin(img, cx, cy, r, col)
		return
	}
	start := -thick / 2
	for i := 0; i < thick; i++ {
		if rr := r + start + i; rr >= 0 {
			circleThin(img, cx, cy, rr, col)
		}
	}
}

// FilledCircle fills a disc of radius r.
func FilledCircle(img *image.RGBA, cx, cy, r int, col color.Color) {
	b := img.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			p := image.Pt(cx+dx, cy+dy)
			if p.In(b) {
				img.Set(p.X, p.Y, col)
			}
		}
	}
}

// Handle draws a selection handle: a filled disc with a contrasting ring.
func Handle(img *image.RGBA, cx, cy int, fill, border color.Color) {
	FilledCircle(img, cx, cy, HandleRadius, fill)
	Circle(img, cx, cy, HandleRadius, border, 2)
}

// HandleRadius is the drawn radius of selection handles in pixels.
const HandleRadius = 4

// Contrast picks black or white, whichever reads better on bg.
func Contrast(bg color.Color) color.Color {
	r, g, b, _ := bg.RGBA()
	brightness := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
	if brightness < 128 {
		return color.White
	}
	return color.Black
}
