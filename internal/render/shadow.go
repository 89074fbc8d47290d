package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow cast by floating cards such as
// notes, the context menu and the snackbar.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns a soft shadow sized for small cards.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  4,
		Offset:  image.Pt(2, 3),
		Opacity: 0.45,
	}
}

// DropShadow darkens dst beneath card with a blurred copy of its footprint.
// The card itself is not painted; callers fill it afterwards. It returns the
// area of dst that was touched.
func DropShadow(dst *image.RGBA, card image.Rectangle, opts ShadowOptions) image.Rectangle {
	if dst == nil || card.Empty() || opts.Opacity <= 0 {
		return image.Rectangle{}
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	padded := card.Inset(-radius)
	mask := image.NewGray(padded.Sub(padded.Min))
	inner := card.Sub(padded.Min)
	for y := inner.Min.Y; y < inner.Max.Y; y++ {
		row := mask.Pix[y*mask.Stride:]
		for x := inner.Min.X; x < inner.Max.X; x++ {
			row[x] = 0xff
		}
	}
	blurred := blurGray(mask, radius)

	area := padded.Add(opts.Offset)
	clip := area.Intersect(dst.Bounds())
	if clip.Empty() {
		return image.Rectangle{}
	}
	alpha := uint8(opacity*255 + 0.5)
	draw.DrawMask(dst, clip, image.NewUniform(color.RGBA{A: alpha}), image.Point{}, blurred, clip.Min.Sub(area.Min), draw.Over)
	return clip
}

// Card paints a shadowed, bordered rectangle filled with bg.
func Card(dst *image.RGBA, rect image.Rectangle, bg, border color.Color) {
	DropShadow(dst, rect, DefaultShadowOptions())
	FillRect(dst, rect, bg)
	if border != nil {
		Rect(dst, rect, border, 1)
	}
}

// blurGray applies a separable box blur using running prefix sums.
func blurGray(src *image.Gray, radius int) *image.Gray {
	out := image.NewGray(src.Bounds())
	if radius <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tmp := image.NewGray(src.Bounds())
	boxPass(w, h, radius, func(i, j int) uint8 { return src.Pix[j*src.Stride+i] },
		func(i, j int, v uint8) { tmp.Pix[j*tmp.Stride+i] = v })
	boxPass(h, w, radius, func(i, j int) uint8 { return tmp.Pix[i*tmp.Stride+j] },
		func(i, j int, v uint8) { out.Pix[i*out.Stride+j] = v })
	return out
}

// boxPass averages along the first axis (length n) for each of m lines.
func boxPass(n, m, radius int, get func(i, j int) uint8, set func(i, j int, v uint8)) {
	prefix := make([]int, n+1)
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + int(get(i, j))
		}
		for i := 0; i < n; i++ {
			lo := max(i-radius, 0)
			hi := min(i+radius, n-1)
			set(i, j, uint8((prefix[hi+1]-prefix[lo])/(hi-lo+1)))
		}
	}
}
