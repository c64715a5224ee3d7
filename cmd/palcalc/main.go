package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maax3v3/palcalc"
	"github.com/maax3v3/palcalc/internal/cli"
	"github.com/maax3v3/palcalc/internal/pipeline"
	"github.com/maax3v3/palcalc/internal/progress"
	"github.com/maax3v3/palcalc/internal/quantizer"
	"github.com/maax3v3/palcalc/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := cli.Parse(args, os.Stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	palcalc.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ServeAddr != "" {
		scfg := server.DefaultConfig()
		scfg.Attempts = cfg.Attempts
		scfg.MaxSteps = cfg.MaxSteps
		scfg.Workers = cfg.Workers
		return server.ListenAndServe(ctx, cfg.ServeAddr, server.NewHandler(scfg, logger), logger)
	}

	var reporter quantizer.Reporter = quantizer.NopReporter{}
	if cfg.Progress {
		logReporter := progress.NewLog(logger, progress.DefaultInterval)
		reporter = logReporter
		if progress.IsTerminal(os.Stderr) {
			bar := progress.NewTerminal(os.Stderr, cfg.Attempts)
			bar.Open()
			defer bar.Close()
			reporter = bar
			if cfg.LogLevel <= slog.LevelDebug {
				reporter = progress.NewMulti(bar, logReporter)
			}
		}
	}

	return pipeline.Run(ctx, cfg, os.Stdout, reporter, logger)
}
