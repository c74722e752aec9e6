// Package chart renders report graphics as RGBA images: the rolling
// empty-pass ratio chart embedded in daily report emails and the
// per-pass peak SNR profile for a single station day.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	dpi      = 72.0
	fontSize = 12.0

	tickMarkLength = 5

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 60
	defaultBottomBorder = 50
	defaultRightBorder  = 30
)

var (
	gridColor    = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	axisColor    = color.Black
	lineColor    = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	alertColor   = color.RGBA{R: 0xd6, G: 0x2c, B: 0x2c, A: 0xff}
	noDataColor  = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	validColor   = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	textColor    = color.Black
	surfaceColor = color.White
)

// BorderConfig defines the white space around the plot area.
type BorderConfig struct {
	Top    int
	Left   int // space for the value scale
	Bottom int // space for day labels and the info line
	Right  int
}

// RenderConfig holds the options shared by all chart renderers.
type RenderConfig struct {
	Width  int // plot area width in pixels
	Height int // plot area height in pixels

	// FontPath names a TTF file to label charts with. When empty, a
	// built-in bitmap face is used instead.
	FontPath string
	FontSize float64

	Borders BorderConfig
}

func (c *RenderConfig) applyDefaults() {
	if c.Width == 0 {
		c.Width = 560
	}
	if c.Height == 0 {
		c.Height = 320
	}
	if c.FontSize == 0 {
		c.FontSize = fontSize
	}
	if c.Borders.Top == 0 {
		c.Borders.Top = defaultTopBorder
	}
	if c.Borders.Left == 0 {
		c.Borders.Left = defaultLeftBorder
	}
	if c.Borders.Bottom == 0 {
		c.Borders.Bottom = defaultBottomBorder
	}
	if c.Borders.Right == 0 {
		c.Borders.Right = defaultRightBorder
	}
}

// newFace loads the configured TTF face, falling back to the built-in
// bitmap face when no font file is configured.
func newFace(config RenderConfig) (font.Face, error) {
	if config.FontPath == "" {
		return basicfont.Face7x13, nil
	}

	data, err := os.ReadFile(config.FontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}
	parsedFont, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    config.FontSize,
		DPI:     dpi,
		Hinting: font.HintingNone,
	}), nil
}

// canvas wraps an image with the text face used for labels.
type canvas struct {
	img  *image.RGBA
	face font.Face
}

func (c *canvas) drawString(s string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawStringCentered draws s horizontally centered on x.
func (c *canvas) drawStringCentered(s string, x, y int, col color.Color) {
	width := font.MeasureString(c.face, s).Round()
	c.drawString(s, x-width/2, y, col)
}

// drawStringRight draws s right-aligned so it ends at x.
func (c *canvas) drawStringRight(s string, x, y int, col color.Color) {
	width := font.MeasureString(c.face, s).Round()
	c.drawString(s, x-width, y, col)
}

func (c *canvas) hLine(x0, x1, y int, col color.Color) {
	for x := x0; x <= x1; x++ {
		c.img.Set(x, y, col)
	}
}

func (c *canvas) vLine(x, y0, y1 int, col color.Color) {
	for y := y0; y <= y1; y++ {
		c.img.Set(x, y, col)
	}
}

// line draws a segment between two points. Steep and shallow runs are
// both stepped along their longer axis so the segment stays connected.
func (c *canvas) line(x0, y0, x1, y1 int, col color.Color) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		c.img.Set(x0, y0, col)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		c.img.Set(x, y, col)
	}
}

// marker draws a filled square centered on the point.
func (c *canvas) marker(x, y, radius int, col color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			c.img.Set(x+dx, y+dy, col)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
