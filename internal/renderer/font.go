package renderer

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontRenderer is the interface for drawing text onto images.
// Implementations can be swapped (e.g., bitmap font, TTF font).
type FontRenderer interface {
	// DrawString draws the given text centered at (cx, cy) on the image
	// with the specified color and font size (approximate height in pixels).
	DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int)

	// MeasureString returns the approximate width and height of the text
	// at the given font size.
	MeasureString(text string, size int) (width, height int)
}

// BasicFont renders text with the fixed 7x13 face from x/image, scaled up
// by whole factors with nearest-neighbor sampling.
type BasicFont struct {
	face *basicfont.Face
}

// NewBasicFont creates a BasicFont.
func NewBasicFont() *BasicFont {
	return &BasicFont{face: basicfont.Face7x13}
}

func (f *BasicFont) scale(size int) int {
	s := size / f.face.Height
	if s < 1 {
		s = 1
	}
	return s
}

// MeasureString returns the width and height of text at size.
func (f *BasicFont) MeasureString(text string, size int) (int, int) {
	s := f.scale(size)
	w := font.MeasureString(f.face, text).Ceil()
	return w * s, f.face.Height * s
}

// DrawString draws text centered at (cx, cy).
func (f *BasicFont) DrawString(img *image.RGBA, text string, cx, cy int, col color.Color, size int) {
	if text == "" {
		return
	}
	w := font.MeasureString(f.face, text).Ceil()
	h := f.face.Height

	// Render at native size into a mask, then scale the mask.
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: f.face,
		Dot:  fixed.P(0, f.face.Ascent),
	}
	d.DrawString(text)

	s := f.scale(size)
	scaled := mask
	if s > 1 {
		scaled = image.NewAlpha(image.Rect(0, 0, w*s, h*s))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	}

	sb := scaled.Bounds()
	dst := image.Rect(cx-sb.Dx()/2, cy-sb.Dy()/2, cx-sb.Dx()/2+sb.Dx(), cy-sb.Dy()/2+sb.Dy())
	stddraw.DrawMask(img, dst, image.NewUniform(col), image.Point{}, scaled, image.Point{}, stddraw.Over)
}
