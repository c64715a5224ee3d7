// Package palcalc computes a palette of representative colors for a set of
// images using weighted k-means clustering over their color histogram.
//
// Usage as a library:
//
//	res, err := palcalc.Compute(ctx, []string{"photo.jpg"}, nil, palcalc.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	palcalc.WritePalette(os.Stdout, res.Palette, "hex")
package palcalc

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/maax3v3/palcalc/internal/aggregation"
	"github.com/maax3v3/palcalc/internal/export"
	"github.com/maax3v3/palcalc/internal/histogram"
	"github.com/maax3v3/palcalc/internal/imaging"
	"github.com/maax3v3/palcalc/internal/pipeline"
	"github.com/maax3v3/palcalc/internal/quantizer"
)

// Palette is a computed palette: numbered colors with their pixel coverage.
type Palette = aggregation.Palette

// Entry is one palette color.
type Entry = aggregation.Entry

// Reporter receives progress updates while clustering runs.
type Reporter = quantizer.Reporter

// Update is one progress report.
type Update = quantizer.Update

// Options configures a palette computation.
type Options struct {
	// Shades is the number of palette colors. It is clamped to 1..256 and
	// to the number of distinct input colors.
	// Default: 16.
	Shades int

	// Attempts is the number of independent clustering restarts. Only the
	// last attempt's palette is kept.
	// Default: 5.
	Attempts int

	// MaxSteps caps the iterations of a single attempt.
	// Default: 1000.
	MaxSteps int

	// Workers bounds parallel image decoding and point assignment.
	// 0 means GOMAXPROCS.
	Workers int

	// Seed makes the result reproducible. 0 picks a random seed, which is
	// reported in Result.Seed.
	Seed uint64

	// Dedupe merges palette colors that round to the same 8-bit color,
	// so the palette may hold fewer than Shades entries.
	Dedupe bool

	// Reporter receives progress updates. If nil, updates are discarded.
	Reporter Reporter
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Shades:   16,
		Attempts: quantizer.DefaultAttempts,
		MaxSteps: quantizer.DefaultMaxSteps,
	}
}

// Result is a computed palette with run statistics.
type Result struct {
	Palette     *Palette
	Seed        uint64 // seed actually used
	Steps       uint32 // clustering steps across all attempts
	FixedColors int    // distinct colors in the fixed images
}

func (o Options) params() pipeline.Params {
	return pipeline.Params{
		Shades:   o.Shades,
		Attempts: o.Attempts,
		MaxSteps: o.MaxSteps,
		Workers:  o.Workers,
		Seed:     o.Seed,
		Dedupe:   o.Dedupe,
		Reporter: o.Reporter,
		Logger:   Logger(),
	}
}

// Compute reads the adjustable and fixed images and returns a palette of the
// adjustable colors. Fixed images are decoded and their colors counted, but
// they do not influence the clustering.
func Compute(ctx context.Context, adjustable, fixed []string, opts Options) (*Result, error) {
	out, err := pipeline.Compute(ctx, adjustable, fixed, opts.params())
	if err != nil {
		return nil, err
	}
	return &Result{
		Palette:     out.Palette,
		Seed:        out.Seed,
		Steps:       out.Result.Steps,
		FixedColors: out.FixedUnique,
	}, nil
}

// ComputeImages is like Compute for images already in memory.
func ComputeImages(ctx context.Context, images []image.Image, opts Options) (*Result, error) {
	hist := histogram.New()
	for i, img := range images {
		if err := hist.Add(img); err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
	}
	pal, res, seed, err := pipeline.Quantize(ctx, hist, opts.params())
	if err != nil {
		return nil, err
	}
	return &Result{Palette: pal, Seed: seed, Steps: res.Steps}, nil
}

// LoadImage reads an image from disk. Supports PNG, JPEG, GIF, WEBP, BMP and TIFF.
func LoadImage(path string) (image.Image, error) {
	return imaging.Load(path)
}

// WritePalette encodes p to w. format is one of "hex", "json", "gpl" or "png".
func WritePalette(w io.Writer, p *Palette, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	return export.Write(w, p, f)
}
