// Package export writes a palette in one of the supported output formats.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/maax3v3/palcalc/internal/aggregation"
	"github.com/maax3v3/palcalc/internal/renderer"
)

// Format names an output format.
type Format string

const (
	FormatHex  Format = "hex"  // one "#rrggbb" per line
	FormatJSON Format = "json" // JSON document with colors and coverage
	FormatGPL  Format = "gpl"  // GIMP palette
	FormatPNG  Format = "png"  // swatch image
)

// Formats lists every supported format.
var Formats = []Format{FormatHex, FormatJSON, FormatGPL, FormatPNG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (supported: hex, json, gpl, png)", s)
}

// FormatForPath infers the format from a file extension, defaulting to hex.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".gpl":
		return FormatGPL
	case ".png":
		return FormatPNG
	default:
		return FormatHex
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write encodes p to w in format f.
func Write(w io.Writer, p *aggregation.Palette, f Format) error {
	switch f {
	case FormatHex:
		return writeHex(w, p)
	case FormatJSON:
		return writeJSON(w, p)
	case FormatGPL:
		return writeGPL(w, p, "palcalc")
	case FormatPNG:
		return writePNG(w, p)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func writeHex(w io.Writer, p *aggregation.Palette) error {
	bw := bufio.NewWriter(w)
	for _, e := range p.Entries {
		fmt.Fprintln(bw, e.Hex())
	}
	return bw.Flush()
}

type jsonColor struct {
	Number int     `json:"number"`
	Hex    string  `json:"hex"`
	R      uint8   `json:"r"`
	G      uint8   `json:"g"`
	B      uint8   `json:"b"`
	Pixels uint64  `json:"pixels"`
	Share  float64 `json:"share"`
}

type jsonPalette struct {
	Colors       []jsonColor `json:"colors"`
	Pixels       uint64      `json:"pixels"`
	UniqueColors int         `json:"unique_colors"`
}

func writeJSON(w io.Writer, p *aggregation.Palette) error {
	doc := jsonPalette{
		Colors:       make([]jsonColor, len(p.Entries)),
		Pixels:       p.Pixels,
		UniqueColors: p.Unique,
	}
	for i, e := range p.Entries {
		c := e.RGB8()
		doc.Colors[i] = jsonColor{
			Number: e.Number,
			Hex:    e.Hex(),
			R:      c.R,
			G:      c.G,
			B:      c.B,
			Pixels: e.Pixels,
			Share:  e.Share,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeGPL(w io.Writer, p *aggregation.Palette, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "GIMP Palette")
	fmt.Fprintf(bw, "Name: %s\n", name)
	fmt.Fprintln(bw, "Columns: 8")
	fmt.Fprintln(bw, "#")
	for _, e := range p.Entries {
		c := e.RGB8()
		fmt.Fprintf(bw, "%3d %3d %3d\t%s\n", c.R, c.G, c.B, e.Hex())
	}
	return bw.Flush()
}

func writePNG(w io.Writer, p *aggregation.Palette) error {
	cfg := renderer.DefaultConfig()
	cfg.ScaleFor(len(p.Entries))
	img := renderer.Render(p, renderer.NewBasicFont(), cfg)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}
