// Package histogram accumulates per-color pixel counts over the full 8-bit
// RGB domain.
//
// The table is dense: every one of the 256×256×256 colors has a counter.
// Counters are grouped into one 256×256 plane per red value, and a plane is
// allocated the first time a pixel with that red value is counted.
package histogram

import (
	"errors"
	"image"
	"sync"

	"github.com/maax3v3/palcalc/internal/color"
	"github.com/maax3v3/palcalc/internal/imaging"
)

const planeSize = 256 * 256

type plane [planeSize]uint64

// Histogram maps every RGB8 color to the number of pixels observed with it.
// It is safe for concurrent use.
type Histogram struct {
	mu     sync.Mutex
	planes [256]*plane
	total  uint64
}

// New returns an empty histogram.
func New() *Histogram {
	return &Histogram{}
}

// Add counts every pixel of img.
func (h *Histogram) Add(img image.Image) error {
	if img == nil {
		return errors.New("histogram: image is nil")
	}
	b := img.Bounds()

	h.mu.Lock()
	defer h.mu.Unlock()

	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				h.inc(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
				i += 4
			}
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				if src.Pix[i+3] == 0xff {
					h.inc(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
				} else {
					c := color.FromStdColor(src.RGBAAt(x, y))
					h.inc(c.R, c.G, c.B)
				}
				i += 4
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.FromStdColor(img.At(x, y))
				h.inc(c.R, c.G, c.B)
			}
		}
	}
	return nil
}

// AddFile decodes the image at path and counts its pixels. Decoding
// failures are returned as *imaging.DecodeError.
func (h *Histogram) AddFile(path string) error {
	img, err := imaging.Load(path)
	if err != nil {
		return err
	}
	return h.Add(img)
}

// inc must be called with mu held.
func (h *Histogram) inc(r, g, b uint8) {
	h.addCount(r, g, b, 1)
}

func (h *Histogram) addCount(r, g, b uint8, n uint64) {
	p := h.planes[r]
	if p == nil {
		p = new(plane)
		h.planes[r] = p
	}
	p[int(g)<<8|int(b)] += n
	h.total += n
}

// Count returns the number of pixels counted for c.
func (h *Histogram) Count(c color.RGB8) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.planes[c.R]
	if p == nil {
		return 0
	}
	return p[int(c.G)<<8|int(c.B)]
}

// Total returns the number of pixels counted.
func (h *Histogram) Total() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Unique returns the number of distinct colors with a nonzero count.
func (h *Histogram) Unique() int {
	n := 0
	h.Each(func(color.RGB8, uint64) { n++ })
	return n
}

// Each calls fn for every color with a nonzero count, in row-major order
// over R, then G, then B. The order is fixed.
func (h *Histogram) Each(fn func(c color.RGB8, count uint64)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for r, p := range h.planes {
		if p == nil {
			continue
		}
		for i, n := range p {
			if n == 0 {
				continue
			}
			fn(color.RGB8{R: uint8(r), G: uint8(i >> 8), B: uint8(i)}, n)
		}
	}
}

// Merge adds every count of other into h.
func (h *Histogram) Merge(other *Histogram) {
	if other == nil || other == h {
		return
	}
	type cell struct {
		c color.RGB8
		n uint64
	}
	var cells []cell
	other.Each(func(c color.RGB8, n uint64) {
		cells = append(cells, cell{c, n})
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range cells {
		h.addCount(e.c.R, e.c.G, e.c.B, e.n)
	}
}
