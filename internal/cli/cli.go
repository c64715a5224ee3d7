package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/maax3v3/palcalc/internal/export"
)

// Config holds the parsed CLI arguments.
type Config struct {
	Adjustable    []string // images whose colors are quantized
	Fixed         []string // reference images, counted but not clustered
	Shades        int
	OutPath       string // "" or "-" writes to stdout
	Format        export.Format
	Seed          uint64 // 0 picks a random seed
	Dedupe        bool
	Attempts      int
	MaxSteps      int
	Workers       int
	SaveHistogram string
	LoadHistogram string
	Progress      bool
	LogLevel      slog.Level
	ServeAddr     string
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// Parse parses CLI arguments (without the program name) and returns a
// validated Config. Usage is written to output on error or -h.
func Parse(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("palcalc", flag.ContinueOnError)
	fs.SetOutput(output)

	var fixed stringList
	fs.Var(&fixed, "fixed", "Path to a fixed-color reference image (repeatable)")
	shades := fs.Int("n", 16, "Number of palette colors (clamped to 1-256 and to the number of distinct colors)")
	outPath := fs.String("out", "", "Output path (default: stdout)")
	format := fs.String("format", "", "Output format: hex, json, gpl, png (default: from -out extension, else hex)")
	seed := fs.Uint64("seed", 0, "Random seed for reproducible palettes (0 = random)")
	dedupe := fs.Bool("dedupe", false, "Merge palette colors that round to the same hex value")
	attempts := fs.Int("attempts", 5, "Number of independent k-means restarts")
	maxSteps := fs.Int("max-steps", 1000, "Maximum iterations per attempt")
	workers := fs.Int("workers", 0, "Worker goroutines for decoding and assignment (0 = GOMAXPROCS)")
	saveHist := fs.String("save-histogram", "", "Write the color histogram snapshot to this path")
	loadHist := fs.String("load-histogram", "", "Start from a histogram snapshot written by -save-histogram")
	progress := fs.Bool("progress", true, "Report progress on stderr (a bar on a terminal, log lines otherwise)")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	serve := fs.String("serve", "", "Serve the palette API on this address instead of running once (e.g. :8080)")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: palcalc [options] IMAGE...\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExample:\n  palcalc -n 32 -fixed ui.png -out palette.gpl photo1.jpg photo2.png\n")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Adjustable:    fs.Args(),
		Fixed:         fixed,
		Shades:        *shades,
		OutPath:       *outPath,
		Seed:          *seed,
		Dedupe:        *dedupe,
		Attempts:      *attempts,
		MaxSteps:      *maxSteps,
		Workers:       *workers,
		SaveHistogram: *saveHist,
		LoadHistogram: *loadHist,
		Progress:      *progress,
		ServeAddr:     *serve,
	}

	if cfg.ServeAddr == "" && len(cfg.Adjustable) == 0 && cfg.LoadHistogram == "" {
		return Config{}, fmt.Errorf("at least one image (or --load-histogram) is required")
	}
	if cfg.Attempts < 1 {
		return Config{}, fmt.Errorf("--attempts must be >= 1, got %d", cfg.Attempts)
	}
	if cfg.MaxSteps < 1 {
		return Config{}, fmt.Errorf("--max-steps must be >= 1, got %d", cfg.MaxSteps)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("--workers must be >= 0, got %d", cfg.Workers)
	}

	if *format != "" {
		f, err := export.ParseFormat(*format)
		if err != nil {
			return Config{}, fmt.Errorf("--format: %w", err)
		}
		cfg.Format = f
	} else {
		cfg.Format = export.FormatForPath(cfg.OutPath)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return Config{}, fmt.Errorf("--log-level: %w", err)
	}

	return cfg, nil
}
