// Package renderer draws a palette as an image of numbered color swatches.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/maax3v3/palcalc/internal/aggregation"
	pcolor "github.com/maax3v3/palcalc/internal/color"
)

// Config holds rendering configuration.
type Config struct {
	Width      int // output image width
	Padding    int // vertical padding above and below the swatches
	SwatchSize int // diameter of the swatch circles
	Spacing    int // spacing between swatches
	Margin     int // left/right margin
	LabelSize  int // height of the hex label under each swatch
}

// DefaultConfig returns sensible default rendering configuration.
func DefaultConfig() Config {
	return Config{
		Width:      640,
		Padding:    20,
		SwatchSize: 48,
		Spacing:    16,
		Margin:     20,
		LabelSize:  13,
	}
}

// ScaleFor adjusts swatch sizes for palettes with many entries.
func (cfg *Config) ScaleFor(entries int) {
	switch {
	case entries > 128:
		cfg.SwatchSize = 24
		cfg.Spacing = 10
	case entries > 32:
		cfg.SwatchSize = 36
		cfg.Spacing = 12
	}
}

// Render produces the swatch image for p.
func Render(p *aggregation.Palette, font FontRenderer, cfg Config) *image.RGBA {
	totalH := calculateHeight(len(p.Entries), cfg)
	out := image.NewRGBA(image.Rect(0, 0, cfg.Width, totalH))

	for y := 0; y < totalH; y++ {
		for x := 0; x < cfg.Width; x++ {
			out.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	drawSwatches(out, p, font, cfg)
	return out
}

func itemsPerRow(cfg Config) int {
	itemWidth := cfg.SwatchSize + cfg.Spacing
	availableW := cfg.Width - 2*cfg.Margin
	n := availableW / itemWidth
	if n < 1 {
		n = 1
	}
	return n
}

func rowHeight(cfg Config) int {
	return cfg.SwatchSize + cfg.LabelSize + cfg.Spacing
}

func calculateHeight(entries int, cfg Config) int {
	if entries == 0 {
		return 2 * cfg.Padding
	}
	perRow := itemsPerRow(cfg)
	numRows := (entries + perRow - 1) / perRow
	return cfg.Padding + numRows*rowHeight(cfg) + cfg.Padding
}

func drawSwatches(img *image.RGBA, p *aggregation.Palette, font FontRenderer, cfg Config) {
	perRow := itemsPerRow(cfg)
	itemWidth := cfg.SwatchSize + cfg.Spacing
	availableW := cfg.Width - 2*cfg.Margin
	fontSize := cfg.SwatchSize / 2
	radius := cfg.SwatchSize / 2

	for i, entry := range p.Entries {
		row := i / perRow
		col := i % perRow

		// Center items in each row
		rowItemCount := perRow
		remaining := len(p.Entries) - row*perRow
		if remaining < perRow {
			rowItemCount = remaining
		}
		rowWidth := rowItemCount * itemWidth
		rowStartX := cfg.Margin + (availableW-rowWidth)/2

		cx := rowStartX + col*itemWidth + itemWidth/2
		cy := cfg.Padding + row*rowHeight(cfg) + radius

		rgb := entry.RGB8()
		drawFilledCircle(img, cx, cy, radius, rgb.ToStdColor())
		drawCircleBorder(img, cx, cy, radius, color.RGBA{100, 100, 100, 255})

		textColor := color.Color(color.Black)
		if !pcolor.IsLight(entry.Color) {
			textColor = color.White
		}
		font.DrawString(img, fmt.Sprintf("%d", entry.Number), cx, cy, textColor, fontSize)
		font.DrawString(img, entry.Hex(), cx, cy+radius+cfg.LabelSize/2+2, color.Black, cfg.LabelSize)
	}
}

func drawFilledCircle(img *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				px, py := cx+dx, cy+dy
				if px >= 0 && px < img.Bounds().Dx() && py >= 0 && py < img.Bounds().Dy() {
					img.SetRGBA(px, py, col)
				}
			}
		}
	}
}

func drawCircleBorder(img *image.RGBA, cx, cy, radius int, col color.RGBA) {
	for angle := 0.0; angle < 2*math.Pi; angle += 0.01 {
		px := cx + int(math.Round(float64(radius)*math.Cos(angle)))
		py := cy + int(math.Round(float64(radius)*math.Sin(angle)))
		if px >= 0 && px < img.Bounds().Dx() && py >= 0 && py < img.Bounds().Dy() {
			img.SetRGBA(px, py, col)
		}
	}
}
