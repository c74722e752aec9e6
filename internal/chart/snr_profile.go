package chart

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/lorett/groundlink/internal/pass"
)

// SNRProfileRenderer draws the peak SNR of every pass a station
// recorded on one day, positioned along a 24 hour time axis. Empty
// passes render in the alert color.
type SNRProfileRenderer struct {
	config RenderConfig
}

// NewSNRProfileRenderer creates a renderer with the given
// configuration. Zero values take chart defaults.
func NewSNRProfileRenderer(config RenderConfig) *SNRProfileRenderer {
	config.applyDefaults()
	return &SNRProfileRenderer{config: config}
}

// Render draws the profile for one station day. Passes outside the day
// are ignored.
func (r *SNRProfileRenderer) Render(day pass.StationDay) (*image.RGBA, error) {
	face, err := newFace(r.config)
	if err != nil {
		return nil, err
	}

	borders := r.config.Borders
	fullWidth := r.config.Width + borders.Left + borders.Right
	fullHeight := r.config.Height + borders.Top + borders.Bottom

	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(surfaceColor), image.Point{}, draw.Src)

	c := &canvas{img: img, face: face}
	plot := image.Rect(borders.Left, borders.Top, borders.Left+r.config.Width, borders.Top+r.config.Height)

	window := pass.Day(day.Date)
	maxSNR := 10.0
	for _, p := range day.Passes {
		if p.PeakSNR > maxSNR {
			maxSNR = p.PeakSNR
		}
	}
	maxSNR = math.Ceil(maxSNR/5) * 5

	title := fmt.Sprintf("%s  %s  peak SNR per pass", day.Station, day.Date.Format(time.DateOnly))
	c.drawString(title, plot.Min.X, borders.Top-10, textColor)

	r.drawFrame(c, plot, maxSNR)

	dayStart := pass.DateOf(day.Date)
	daySeconds := 24 * time.Hour

	for _, p := range day.Passes {
		if !window.Contains(p.Start) {
			continue
		}

		offset := p.Start.Sub(dayStart)
		x := plot.Min.X + int(float64(plot.Dx())*offset.Seconds()/daySeconds.Seconds())
		y := plot.Max.Y - int(p.PeakSNR/maxSNR*float64(plot.Dy()))

		col := validColor
		if p.Empty {
			col = alertColor
		}
		c.vLine(x, y, plot.Max.Y-1, col)
		c.marker(x, y, 2, col)
		c.drawStringCentered(fmt.Sprintf("%.1f", p.PeakSNR), x, y-6, textColor)
	}

	return img, nil
}

func (r *SNRProfileRenderer) drawFrame(c *canvas, plot image.Rectangle, maxSNR float64) {
	c.hLine(plot.Min.X, plot.Max.X, plot.Max.Y, axisColor)
	c.vLine(plot.Min.X, plot.Min.Y, plot.Max.Y, axisColor)

	// Hour ticks, labeled every 4 hours.
	for hour := 0; hour <= 24; hour += 4 {
		x := plot.Min.X + hour*plot.Dx()/24
		c.vLine(x, plot.Max.Y, plot.Max.Y+tickMarkLength, axisColor)
		c.drawStringCentered(fmt.Sprintf("%02d:00", hour%24), x, plot.Max.Y+20, textColor)
	}

	// SNR scale in steps of 5.
	for snr := 0.0; snr <= maxSNR; snr += 5 {
		y := plot.Max.Y - int(snr/maxSNR*float64(plot.Dy()))
		if snr > 0 {
			c.hLine(plot.Min.X, plot.Max.X, y, gridColor)
		}
		c.hLine(plot.Min.X-tickMarkLength, plot.Min.X, y, axisColor)
		c.drawStringRight(fmt.Sprintf("%.0f", snr), plot.Min.X-8, y+4, textColor)
	}
}
