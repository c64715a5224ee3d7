package histogram

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/maax3v3/palcalc/internal/color"
	"github.com/maax3v3/palcalc/internal/imaging"
)

// snapshotMagic starts every uncompressed snapshot payload.
const snapshotMagic = "PALH1\n"

// ErrBadSnapshot is returned when a snapshot stream is malformed.
var ErrBadSnapshot = errors.New("histogram: malformed snapshot")

// Encode writes the nonzero cells of h to w as a zstd-compressed snapshot.
//
// Payload layout: magic, uvarint cell count, then for every cell in scan
// order the R, G, B bytes followed by a uvarint pixel count.
func (h *Histogram) Encode(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}

	bw := bufio.NewWriter(enc)
	if _, err := bw.WriteString(snapshotMagic); err != nil {
		enc.Close()
		return err
	}

	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(h.Unique()))
	bw.Write(buf[:n])

	h.Each(func(c color.RGB8, count uint64) {
		bw.Write([]byte{c.R, c.G, c.B})
		n := binary.PutUvarint(buf[:], count)
		bw.Write(buf[:n])
	})

	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Histogram, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadSnapshot, err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}

	cells, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("%w: read cell count: %v", ErrBadSnapshot, err)
	}
	if cells > 256*256*256 {
		return nil, fmt.Errorf("%w: %d cells", ErrBadSnapshot, cells)
	}

	h := New()
	var rgb [3]byte
	for i := uint64(0); i < cells; i++ {
		if _, err := io.ReadFull(br, rgb[:]); err != nil {
			return nil, fmt.Errorf("%w: cell %d: %v", ErrBadSnapshot, i, err)
		}
		count, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %d: %v", ErrBadSnapshot, i, err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: cell %d has zero count", ErrBadSnapshot, i)
		}
		h.addCount(rgb[0], rgb[1], rgb[2], count)
	}
	return h, nil
}

// SaveFile writes a snapshot of h to path.
func (h *Histogram) SaveFile(path string) error {
	f, err := os.Create(imaging.ExpandPath(path))
	if err != nil {
		return fmt.Errorf("creating histogram file: %w", err)
	}
	if err := h.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Histogram, error) {
	f, err := os.Open(imaging.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("opening histogram file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
