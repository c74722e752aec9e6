package chart

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/lorett/groundlink/internal/pass"
	"github.com/lorett/groundlink/internal/storage"
)

// EmptyRatioRenderer draws the share of empty passes per day across a
// date window as a line chart. Days without any stored passes break the
// line and are labeled "no data".
type EmptyRatioRenderer struct {
	config RenderConfig
}

// NewEmptyRatioRenderer creates a renderer with the given configuration.
// Zero values take chart defaults.
func NewEmptyRatioRenderer(config RenderConfig) *EmptyRatioRenderer {
	config.applyDefaults()
	return &EmptyRatioRenderer{config: config}
}

// Render draws the chart for the window. The days slice may cover any
// subset of the window; days absent from it render as gaps.
func (r *EmptyRatioRenderer) Render(title string, window pass.DateWindow, days []storage.DayAggregate) (*image.RGBA, error) {
	face, err := newFace(r.config)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]storage.DayAggregate, len(days))
	for _, d := range days {
		byDay[pass.DateOf(d.Day)] = d
	}

	borders := r.config.Borders
	fullWidth := r.config.Width + borders.Left + borders.Right
	fullHeight := r.config.Height + borders.Top + borders.Bottom

	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(surfaceColor), image.Point{}, draw.Src)

	c := &canvas{img: img, face: face}
	plot := image.Rect(borders.Left, borders.Top, borders.Left+r.config.Width, borders.Top+r.config.Height)

	r.drawFrame(c, plot)
	c.drawString(title, plot.Min.X, borders.Top-10, textColor)

	count := window.Days()
	// One x slot per day, points centered in their slot.
	slot := float64(plot.Dx()) / float64(count)

	type point struct {
		x, y    int
		percent float64
	}
	var prev *point

	for i := 0; i < count; i++ {
		day := window.Start.AddDate(0, 0, i)
		x := plot.Min.X + int(slot*float64(i)+slot/2)

		c.vLine(x, plot.Max.Y, plot.Max.Y+tickMarkLength, axisColor)
		c.drawStringCentered(day.Format("02.01"), x, plot.Max.Y+20, textColor)

		agg, ok := byDay[day]
		if !ok || agg.TotalPasses == 0 {
			c.drawStringCentered("no data", x, plot.Min.Y+plot.Dy()/2, noDataColor)
			prev = nil
			continue
		}

		percent := agg.EmptyPercent()
		y := plot.Max.Y - int(percent/100*float64(plot.Dy()))
		pt := point{x: x, y: y, percent: percent}

		if prev != nil {
			c.line(prev.x, prev.y, pt.x, pt.y, lineColor)
		}
		col := validColor
		if percent >= 20 {
			col = alertColor
		}
		c.marker(pt.x, pt.y, 3, col)
		c.drawStringCentered(fmt.Sprintf("%.1f%%", percent), pt.x, pt.y-8, textColor)

		prev = &pt
	}

	return img, nil
}

// drawFrame draws the plot axes and the 0..100% value scale.
func (r *EmptyRatioRenderer) drawFrame(c *canvas, plot image.Rectangle) {
	c.hLine(plot.Min.X, plot.Max.X, plot.Max.Y, axisColor)
	c.vLine(plot.Min.X, plot.Min.Y, plot.Max.Y, axisColor)

	for percent := 0; percent <= 100; percent += 25 {
		y := plot.Max.Y - percent*plot.Dy()/100
		if percent > 0 {
			c.hLine(plot.Min.X, plot.Max.X, y, gridColor)
		}
		c.hLine(plot.Min.X-tickMarkLength, plot.Min.X, y, axisColor)
		c.drawStringRight(fmt.Sprintf("%d%%", percent), plot.Min.X-8, y+4, textColor)
	}
}
