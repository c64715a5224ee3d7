// Package server exposes palette computation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maax3v3/palcalc/internal/export"
	"github.com/maax3v3/palcalc/internal/histogram"
	"github.com/maax3v3/palcalc/internal/imaging"
	"github.com/maax3v3/palcalc/internal/pipeline"
	"github.com/maax3v3/palcalc/internal/quantizer"
)

// Config controls the HTTP service.
type Config struct {
	Attempts     int
	MaxSteps     int
	Workers      int
	MaxShades    int           // requests above this are clamped
	MaxBodyBytes int64         // multipart upload limit
	Timeout      time.Duration // per-request deadline
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		Attempts:     quantizer.DefaultAttempts,
		MaxSteps:     quantizer.DefaultMaxSteps,
		MaxShades:    quantizer.MaxClusters,
		MaxBodyBytes: 64 << 20,
		Timeout:      60 * time.Second,
	}
}

type handler struct {
	cfg    Config
	logger *slog.Logger
}

// NewHandler returns the router serving POST /v1/palette and GET /healthz.
func NewHandler(cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))

	r.Get("/healthz", h.health)
	r.Post("/v1/palette", h.palette)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type apiError struct {
	Error string `json:"error"`
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &statusError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func (h *handler) palette(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	req, err := h.parse(w, r)
	if err != nil {
		h.fail(w, logger, err)
		return
	}

	hist, err := buildHistogram(req.images)
	if err != nil {
		h.fail(w, logger, err)
		return
	}
	if len(req.fixed) > 0 {
		fixed, err := buildHistogram(req.fixed)
		if err != nil {
			h.fail(w, logger, err)
			return
		}
		logger.Info("fixed colors", "images", len(req.fixed), "count", fixed.Unique())
	}

	pal, _, seed, err := pipeline.Quantize(r.Context(), hist, pipeline.Params{
		Shades:   req.shades,
		Attempts: h.cfg.Attempts,
		MaxSteps: h.cfg.MaxSteps,
		Workers:  h.cfg.Workers,
		Seed:     req.seed,
		Dedupe:   req.dedupe,
		Logger:   logger,
	})
	if err != nil {
		h.fail(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", req.format.ContentType())
	w.Header().Set("X-Palette-Seed", strconv.FormatUint(seed, 10))
	if err := export.Write(w, pal, req.format); err != nil {
		logger.Error("writing response", "error", err)
	}
}

type paletteRequest struct {
	images []image.Image
	fixed  []image.Image
	shades int
	seed   uint64
	dedupe bool
	format export.Format
}

func (h *handler) parse(w http.ResponseWriter, r *http.Request) (*paletteRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxBodyBytes); err != nil {
		return nil, badRequest("parsing form: %v", err)
	}

	req := &paletteRequest{shades: 16, format: export.FormatJSON}

	if v := r.FormValue("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, badRequest("n: %q is not an integer", v)
		}
		req.shades = min(n, h.cfg.MaxShades)
	}
	if v := r.FormValue("seed"); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, badRequest("seed: %q is not an unsigned integer", v)
		}
		req.seed = s
	}
	if v := r.FormValue("dedupe"); v != "" {
		d, err := strconv.ParseBool(v)
		if err != nil {
			return nil, badRequest("dedupe: %q is not a boolean", v)
		}
		req.dedupe = d
	}
	if v := r.FormValue("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			return nil, badRequest("format: %v", err)
		}
		req.format = f
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return nil, badRequest("at least one image file is required")
	}
	var err error
	if req.images, err = decodeFiles(files); err != nil {
		return nil, err
	}
	if req.fixed, err = decodeFiles(r.MultipartForm.File["fixed"]); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeFiles(files []*multipart.FileHeader) ([]image.Image, error) {
	images := make([]image.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload: %w", err)
		}
		img, err := imaging.Decode(f, fh.Filename)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func buildHistogram(images []image.Image) (*histogram.Histogram, error) {
	hist := histogram.New()
	for _, img := range images {
		if err := hist.Add(img); err != nil {
			return nil, err
		}
	}
	return hist, nil
}

func (h *handler) fail(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	var se *statusError
	var de *imaging.DecodeError
	switch {
	case errors.As(err, &se):
		status = se.status
	case errors.As(err, &de), errors.Is(err, quantizer.ErrDegenerateInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		logger.Error("palette request failed", "error", err)
	} else {
		logger.Info("palette request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
