package palcalc

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maax3v3/palcalc/internal/imaging"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 16, opts.Shades)
	assert.Equal(t, 5, opts.Attempts)
	assert.Equal(t, 1000, opts.MaxSteps)
	assert.Zero(t, opts.Seed)
}

func TestComputeImages_SingleShadeIsWeightedMean(t *testing.T) {
	red := solid(2, 1, color.RGBA{255, 0, 0, 255})
	green := solid(1, 1, color.RGBA{0, 255, 0, 255})
	blue := solid(1, 1, color.RGBA{0, 0, 255, 255})

	opts := DefaultOptions()
	opts.Shades = 1
	opts.Seed = 11
	res, err := ComputeImages(context.Background(), []image.Image{red, green, blue}, opts)
	require.NoError(t, err)

	require.Len(t, res.Palette.Entries, 1)
	e := res.Palette.Entries[0]
	assert.InDelta(t, 0.5, e.Color.R, 1e-9)
	assert.InDelta(t, 0.25, e.Color.G, 1e-9)
	assert.InDelta(t, 0.25, e.Color.B, 1e-9)
	assert.Equal(t, uint64(4), e.Pixels)
	assert.Equal(t, uint64(11), res.Seed)
}

func TestComputeImages_Empty(t *testing.T) {
	_, err := ComputeImages(context.Background(), nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestCompute_DecodeError(t *testing.T) {
	_, err := Compute(context.Background(), []string{filepath.Join(t.TempDir(), "nope.png")}, nil, DefaultOptions())
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.True(t, strings.HasSuffix(de.Path, "nope.png"))
}

func TestCompute_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, imaging.SavePNG(path, solid(4, 4, color.RGBA{0x12, 0x34, 0x56, 255})))

	res, err := Compute(context.Background(), []string{path}, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Palette.Entries, 1)
	assert.Equal(t, "#123456", res.Palette.Entries[0].Hex())
	assert.NotZero(t, res.Seed)

	var buf bytes.Buffer
	require.NoError(t, WritePalette(&buf, res.Palette, "hex"))
	assert.Equal(t, "#123456\n", buf.String())

	assert.Error(t, WritePalette(&buf, res.Palette, "ase"))
}

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	_, err := ComputeImages(context.Background(), []image.Image{solid(1, 1, color.White)}, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "quantization finished")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
