// Package color converts between 8-bit RGB triples and normalized color
// samples, and provides the distance and averaging helpers used by the
// quantizer.
package color

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB8 is a color with 8-bit RGB components. Alpha is not represented.
type RGB8 struct {
	R, G, B uint8
}

// Sample is a normalized color with every component in [0,1].
type Sample = colorful.Color

// FromStdColor converts a standard library color to RGB8. The alpha channel
// is dropped without compositing.
func FromStdColor(c color.Color) RGB8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB8{R: n.R, G: n.G, B: n.B}
}

// ToStdColor converts RGB8 to an opaque standard library color.
func (c RGB8) ToStdColor() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Sample returns the normalized form of c (each channel divided by 255).
func (c RGB8) Sample() Sample {
	return Sample{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// ToRGB8 rounds a sample to the nearest 8-bit color, clamping out-of-range
// components.
func ToRGB8(s Sample) RGB8 {
	r, g, b := s.Clamped().RGB255()
	return RGB8{R: r, G: g, B: b}
}

// Hex formats a sample as "#rrggbb".
func Hex(s Sample) string {
	return s.Clamped().Hex()
}

// DistanceSq is the squared Euclidean distance between two samples.
func DistanceSq(a, b Sample) float64 {
	dr := a.R - b.R
	dg := a.G - b.G
	db := a.B - b.B
	return dr*dr + dg*dg + db*db
}

// Distance is the Euclidean distance between two samples in normalized RGB.
func Distance(a, b Sample) float64 {
	return a.DistanceRgb(b)
}

// MaxDistance is the largest possible distance between two samples.
var MaxDistance = math.Sqrt(3)

// IsLight returns true if the color is perceptually light (luminance > 0.5).
func IsLight(s Sample) bool {
	r, g, b := s.Clamped().LinearRgb()
	luminance := 0.2126*r + 0.7152*g + 0.0722*b
	return luminance > 0.5
}

// Accumulator computes a weighted mean of samples.
// The zero value is ready to use.
type Accumulator struct {
	r, g, b float64
	weight  uint64
}

// Add folds s into the mean with weight w.
func (a *Accumulator) Add(s Sample, w uint64) {
	fw := float64(w)
	a.r += s.R * fw
	a.g += s.G * fw
	a.b += s.B * fw
	a.weight += w
}

// Weight returns the total weight added so far.
func (a *Accumulator) Weight() uint64 {
	return a.weight
}

// Mean returns the weighted mean. ok is false when no weight was added.
func (a *Accumulator) Mean() (mean Sample, ok bool) {
	if a.weight == 0 {
		return Sample{}, false
	}
	w := float64(a.weight)
	return Sample{R: a.r / w, G: a.g / w, B: a.b / w}, true
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
