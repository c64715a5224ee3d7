// Package pipeline wires image loading, histogram building, quantization
// and export into a single run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/maax3v3/palcalc/internal/aggregation"
	"github.com/maax3v3/palcalc/internal/cli"
	"github.com/maax3v3/palcalc/internal/export"
	"github.com/maax3v3/palcalc/internal/histogram"
	"github.com/maax3v3/palcalc/internal/imaging"
	"github.com/maax3v3/palcalc/internal/quantizer"
)

// Params controls a quantization run.
type Params struct {
	Shades   int
	Attempts int
	MaxSteps int
	Workers  int
	Seed     uint64 // 0 picks a random seed
	Dedupe   bool   // merge entries that round to the same 8-bit color
	Reporter quantizer.Reporter
	Logger   *slog.Logger
}

func (p *Params) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Output is the result of Compute.
type Output struct {
	Palette     *aggregation.Palette
	Result      *quantizer.Result
	Seed        uint64
	FixedUnique int // distinct colors found in the fixed images
}

// LoadHistogram decodes paths concurrently, at most workers at a time, and
// accumulates their pixels into one histogram. The first error cancels the
// remaining decodes.
func LoadHistogram(ctx context.Context, paths []string, workers int, logger *slog.Logger) (*histogram.Histogram, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	hist := histogram.New()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := imaging.Load(path)
			if err != nil {
				return fmt.Errorf("loading image: %w", err)
			}
			if err := hist.Add(img); err != nil {
				return fmt.Errorf("adding %s: %w", path, err)
			}
			b := img.Bounds()
			logger.Debug("image loaded", "path", path, "width", b.Dx(), "height", b.Dy())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hist, nil
}

// Quantize clusters the colors of hist into a palette.
func Quantize(ctx context.Context, hist *histogram.Histogram, params Params) (*aggregation.Palette, *quantizer.Result, uint64, error) {
	logger := params.logger()

	seed := params.Seed
	if seed == 0 {
		seed = rand.Uint64()
		logger.Info("random seed chosen", "seed", seed)
	}

	points := quantizer.Extract(hist)
	logger.Info("unique colors", "count", len(points), "pixels", hist.Total())

	q, err := quantizer.New(points, quantizer.Config{
		Clusters: params.Shades,
		Attempts: params.Attempts,
		MaxSteps: params.MaxSteps,
		Workers:  params.Workers,
		Rand:     rand.New(rand.NewPCG(seed, seed)),
		Reporter: params.Reporter,
	})
	if err != nil {
		return nil, nil, seed, err
	}
	if q.Clusters() != params.Shades {
		logger.Info("shade count adjusted", "requested", params.Shades, "effective", q.Clusters())
	}

	res, err := q.Run(ctx)
	if err != nil {
		return nil, nil, seed, err
	}
	logger.Info("quantization finished", "clusters", len(res.Centroids), "steps", res.Steps)

	pal := aggregation.Build(res.Centroids, res.Weights, res.Unique)
	if params.Dedupe {
		pal = pal.Distinct()
		if n := len(pal.Entries); n != len(res.Centroids) {
			logger.Info("duplicate palette entries merged", "entries", n)
		}
	}
	return pal, res, seed, nil
}

// Compute builds the adjustable and fixed histograms and quantizes the
// adjustable one. Fixed colors are counted but do not take part in the
// clustering.
func Compute(ctx context.Context, adjustable, fixed []string, params Params) (*Output, error) {
	logger := params.logger()

	hist, err := LoadHistogram(ctx, adjustable, params.Workers, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("histogram built", "images", len(adjustable), "pixels", hist.Total())

	return computeFrom(ctx, hist, fixed, params)
}

func computeFrom(ctx context.Context, hist *histogram.Histogram, fixed []string, params Params) (*Output, error) {
	logger := params.logger()

	fixedUnique := 0
	if len(fixed) > 0 {
		fh, err := LoadHistogram(ctx, fixed, params.Workers, logger)
		if err != nil {
			return nil, err
		}
		fixedUnique = fh.Unique()
		logger.Info("fixed colors", "images", len(fixed), "count", fixedUnique)
	}

	pal, res, seed, err := Quantize(ctx, hist, params)
	if err != nil {
		return nil, err
	}
	return &Output{Palette: pal, Result: res, Seed: seed, FixedUnique: fixedUnique}, nil
}

// Run executes the full CLI pipeline with the given configuration. The
// palette goes to cfg.OutPath, or to stdout when no path is set.
func Run(ctx context.Context, cfg cli.Config, stdout io.Writer, reporter quantizer.Reporter, logger *slog.Logger) error {
	params := Params{
		Shades:   cfg.Shades,
		Attempts: cfg.Attempts,
		MaxSteps: cfg.MaxSteps,
		Workers:  cfg.Workers,
		Seed:     cfg.Seed,
		Dedupe:   cfg.Dedupe,
		Reporter: reporter,
		Logger:   logger,
	}
	logger = params.logger()

	hist := histogram.New()
	if cfg.LoadHistogram != "" {
		loaded, err := histogram.LoadFile(cfg.LoadHistogram)
		if err != nil {
			return fmt.Errorf("loading histogram: %w", err)
		}
		logger.Info("histogram snapshot loaded", "path", cfg.LoadHistogram, "pixels", loaded.Total())
		hist.Merge(loaded)
	}
	if len(cfg.Adjustable) > 0 {
		images, err := LoadHistogram(ctx, cfg.Adjustable, cfg.Workers, logger)
		if err != nil {
			return err
		}
		hist.Merge(images)
		logger.Info("histogram built", "images", len(cfg.Adjustable), "pixels", hist.Total())
	}

	if cfg.SaveHistogram != "" {
		if err := hist.SaveFile(cfg.SaveHistogram); err != nil {
			return fmt.Errorf("saving histogram: %w", err)
		}
		logger.Info("histogram snapshot saved", "path", cfg.SaveHistogram)
	}

	out, err := computeFrom(ctx, hist, cfg.Fixed, params)
	if err != nil {
		return err
	}

	if cfg.OutPath == "" || cfg.OutPath == "-" {
		return writeTo(stdout, out.Palette, cfg.Format)
	}

	f, err := os.Create(imaging.ExpandPath(cfg.OutPath))
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := writeTo(f, out.Palette, cfg.Format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	logger.Info("palette written", "path", cfg.OutPath, "format", cfg.Format)
	return nil
}

func writeTo(w io.Writer, p *aggregation.Palette, f export.Format) error {
	if err := export.Write(w, p, f); err != nil {
		return fmt.Errorf("writing palette: %w", err)
	}
	return nil
}
