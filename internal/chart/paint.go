package chart

import (
	"image"
	"math"
	"time"

	"github.com/example/chartink/internal/marketdata"
	"github.com/example/chartink/internal/render"
)

// Render paints the chart into a new image of the viewport's size.
func (v *Viewport) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	v.Paint(img)
	return img
}

// Paint draws the grid, candles, axes and every attached primitive onto dst,
// whose origin must match the viewport's.
func (v *Viewport) Paint(dst *image.RGBA) {
	th := v.theme
	render.FillRect(dst, dst.Bounds(), th.Background)
	plot := v.PlotRect().Intersect(dst.Bounds())
	if plot.Empty() {
		return
	}
	render.FillRect(dst, plot, th.PlotBackground)
	if !v.Ready() {
		msg := "no data"
		w, h, _ := render.MeasureText(msg, render.SizeLarge)
		render.DrawText(dst, plot.Dx()/2-w/2, plot.Dy()/2-h/2, msg, th.AxisText, render.SizeLarge)
		return
	}
	plotImg := dst.SubImage(plot).(*image.RGBA)

	ticks := priceTicks(v.priceLo, v.priceHi, max(plot.Dy()/50, 2))
	for _, p := range ticks {
		if y, ok := v.PriceToCoordinate(p); ok {
			render.Line(plotImg, 0, int(y), plot.Dx()-1, int(y), th.Grid, 1)
		}
	}
	timeIdx := v.timeTicks()
	for _, i := range timeIdx {
		x := int(v.indexToX(float64(i)))
		render.Line(plotImg, x, 0, x, plot.Dy()-1, th.Grid, 1)
	}

	v.paintCandles(plotImg)

	for _, p := range v.primitives {
		p.Draw(plotImg)
	}

	v.paintPriceAxis(dst, plot, ticks)
	v.paintTimeAxis(dst, plot, timeIdx)
}

func (v *Viewport) paintCandles(dst *image.RGBA) {
	from, to, _ := v.VisibleRange()
	body := max(int(v.barSpacing*0.7), 1)
	for i := from; i <= to; i++ {
		c := v.candles[i]
		col := v.theme.CandleUp
		if c.Close < c.Open {
			col = v.theme.CandleDown
		}
		x := int(math.Round(v.indexToX(float64(i))))
		yHi, _ := v.PriceToCoordinate(c.High)
		yLo, _ := v.PriceToCoordinate(c.Low)
		render.Line(dst, x, int(yHi), x, int(yLo), col, 1)

		yO, _ := v.PriceToCoordinate(c.Open)
		yC, _ := v.PriceToCoordinate(c.Close)
		top, bottom := int(math.Min(yO, yC)), int(math.Max(yO, yC))
		if bottom == top {
			bottom++
		}
		render.FillRect(dst, image.Rect(x-body/2, top, x-body/2+body, bottom), col)
	}
}

func (v *Viewport) paintPriceAxis(dst *image.RGBA, plot image.Rectangle, ticks []float64) {
	axis := image.Rect(plot.Max.X, 0, v.width, plot.Max.Y)
	render.FillRect(dst, axis, v.theme.AxisBackground)
	render.Line(dst, axis.Min.X, 0, axis.Min.X, plot.Max.Y-1, v.theme.Grid, 1)
	_, th, _ := render.MeasureText("0", render.SizeSmall)
	for _, p := range ticks {
		y, ok := v.PriceToCoordinate(p)
		if !ok || int(y) < th/2 || int(y) > plot.Max.Y-th/2 {
			continue
		}
		render.DrawText(dst, axis.Min.X+6, int(y)-th/2, render.FormatPrice(p), v.theme.AxisText, render.SizeSmall)
	}

	last := v.candles[len(v.candles)-1]
	if y, ok := v.PriceToCoordinate(last.Close); ok && y >= 0 && y < float64(plot.Max.Y) {
		col := v.theme.CandleUp
		if last.Close < last.Open {
			col = v.theme.CandleDown
		}
		box := image.Rect(axis.Min.X, int(y)-th/2-2, v.width, int(y)+th/2+2)
		render.FillRect(dst, box, col)
		render.DrawText(dst, box.Min.X+6, box.Min.Y+2, render.FormatPrice(last.Close), render.Contrast(col), render.SizeSmall)
	}
}

func (v *Viewport) paintTimeAxis(dst *image.RGBA, plot image.Rectangle, idx []int) {
	axis := image.Rect(0, plot.Max.Y, v.width, v.height)
	render.FillRect(dst, axis, v.theme.AxisBackground)
	render.Line(dst, 0, axis.Min.Y, plot.Max.X-1, axis.Min.Y, v.theme.Grid, 1)
	layout := "Jan 02"
	if len(v.candles) > 1 {
		step := time.Duration(v.candles[1].Time-v.candles[0].Time) * time.Second
		if marketdata.Intraday(step) {
			layout = "15:04"
		}
	}
	for _, i := range idx {
		label := time.Unix(v.candles[i].Time, 0).UTC().Format(layout)
		w, _, _ := render.MeasureText(label, render.SizeSmall)
		x := int(v.indexToX(float64(i))) - w/2
		if x < 0 || x+w > plot.Max.X {
			continue
		}
		render.DrawText(dst, x, axis.Min.Y+5, label, v.theme.AxisText, render.SizeSmall)
	}
}

// timeTicks picks visible bar indices roughly every 100 pixels.
func (v *Viewport) timeTicks() []int {
	from, to, ok := v.VisibleRange()
	if !ok {
		return nil
	}
	every := max(int(math.Ceil(100/v.barSpacing)), 1)
	var out []int
	for i := (from/every + 1) * every; i <= to; i += every {
		out = append(out, i)
	}
	return out
}

// priceTicks returns round price levels spanning [lo, hi], about n of them.
func priceTicks(lo, hi float64, n int) []float64 {
	if hi <= lo || n <= 0 {
		return nil
	}
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 5, 10} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}
	var out []float64
	for p := math.Ceil(lo/step) * step; p <= hi; p += step {
		out = append(out, p)
	}
	return out
}
