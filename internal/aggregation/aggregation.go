// Package aggregation turns a centroid array into a numbered palette with
// pixel coverage per entry.
package aggregation

import (
	"github.com/maax3v3/palcalc/internal/color"
)

// Entry is one numbered palette color.
type Entry struct {
	Number int // 1-based
	Color  color.Sample
	Pixels uint64  // pixels assigned to this color
	Share  float64 // Pixels / total pixels, in [0,1]
}

// RGB8 returns the entry's color rounded to 8 bits per channel.
func (e Entry) RGB8() color.RGB8 {
	return color.ToRGB8(e.Color)
}

// Hex returns the entry's color as "#rrggbb".
func (e Entry) Hex() string {
	return color.Hex(e.Color)
}

// Palette is the published result of a run.
type Palette struct {
	Entries []Entry
	Pixels  uint64 // total pixels over all entries
	Unique  int    // distinct input colors
}

// Build numbers centroids in order and attaches their weights.
// weights[i] is the pixel count assigned to centroids[i]; a nil or short
// weights slice counts as zero for the missing entries.
func Build(centroids []color.Sample, weights []uint64, unique int) *Palette {
	p := &Palette{
		Entries: make([]Entry, len(centroids)),
		Unique:  unique,
	}
	for i, c := range centroids {
		var w uint64
		if i < len(weights) {
			w = weights[i]
		}
		p.Entries[i] = Entry{Number: i + 1, Color: c, Pixels: w}
		p.Pixels += w
	}
	if p.Pixels > 0 {
		for i := range p.Entries {
			p.Entries[i].Share = float64(p.Entries[i].Pixels) / float64(p.Pixels)
		}
	}
	return p
}

// Distinct groups entries whose colors round to the same 8-bit color and
// returns one entry per group, in first-seen order, renumbered from 1.
// Pixels and shares of merged entries are summed.
func (p *Palette) Distinct() *Palette {
	groupIndex := make(map[color.RGB8]int)
	out := &Palette{Pixels: p.Pixels, Unique: p.Unique}

	for _, e := range p.Entries {
		key := e.RGB8()
		if idx, ok := groupIndex[key]; ok {
			out.Entries[idx].Pixels += e.Pixels
			out.Entries[idx].Share += e.Share
			continue
		}
		groupIndex[key] = len(out.Entries)
		e.Number = len(out.Entries) + 1
		out.Entries = append(out.Entries, e)
	}
	return out
}
