package color

import (
	"image/color"
	"math"
	"testing"
)

func TestFromStdColor(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  RGB8
	}{
		{"opaque red", color.RGBA{255, 0, 0, 255}, RGB8{255, 0, 0}},
		{"opaque white", color.White, RGB8{255, 255, 255}},
		{"opaque black", color.Black, RGB8{0, 0, 0}},
		{"nrgba keeps channels", color.NRGBA{10, 20, 30, 128}, RGB8{10, 20, 30}},
		{"transparent", color.RGBA{0, 0, 0, 0}, RGB8{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromStdColor(tt.input)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRoundTripSample(t *testing.T) {
	for _, c := range []RGB8{{0, 0, 0}, {42, 128, 200}, {255, 255, 255}, {1, 254, 127}} {
		if got := ToRGB8(c.Sample()); got != c {
			t.Errorf("round-trip %+v: got %+v", c, got)
		}
	}
}

func TestSampleIsNormalized(t *testing.T) {
	s := RGB8{255, 0, 51}.Sample()
	if s.R != 1 || s.G != 0 || math.Abs(s.B-0.2) > 1e-12 {
		t.Errorf("got %+v, want {1 0 0.2}", s)
	}
}

func TestToRGB8Clamps(t *testing.T) {
	got := ToRGB8(Sample{R: 1.5, G: -0.2, B: 0.5})
	if got.R != 255 || got.G != 0 || got.B != 128 {
		t.Errorf("got %+v, want {255 0 128}", got)
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		in   RGB8
		want string
	}{
		{RGB8{0, 0, 0}, "#000000"},
		{RGB8{255, 255, 255}, "#ffffff"},
		{RGB8{0xab, 0x12, 0xcd}, "#ab12cd"},
	}
	for _, tt := range tests {
		if got := Hex(tt.in.Sample()); got != tt.want {
			t.Errorf("Hex(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	t.Run("identical colors have zero distance", func(t *testing.T) {
		c := RGB8{50, 50, 50}.Sample()
		if d := Distance(c, c); d != 0 {
			t.Errorf("got %f, want 0", d)
		}
	})

	t.Run("black vs white", func(t *testing.T) {
		d := Distance(RGB8{0, 0, 0}.Sample(), RGB8{255, 255, 255}.Sample())
		if math.Abs(d-MaxDistance) > 1e-9 {
			t.Errorf("got %f, want %f", d, MaxDistance)
		}
	})

	t.Run("squared matches distance", func(t *testing.T) {
		a := RGB8{10, 200, 30}.Sample()
		b := RGB8{90, 20, 130}.Sample()
		d := Distance(a, b)
		if math.Abs(d*d-DistanceSq(a, b)) > 1e-12 {
			t.Errorf("d^2 = %f, DistanceSq = %f", d*d, DistanceSq(a, b))
		}
	})
}

func TestAccumulator(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var acc Accumulator
		if _, ok := acc.Mean(); ok {
			t.Error("expected no mean for empty accumulator")
		}
	})

	t.Run("weighted towards heavier color", func(t *testing.T) {
		var acc Accumulator
		acc.Add(Sample{R: 0, G: 0, B: 0}, 1)
		acc.Add(Sample{R: 0.8, G: 0.8, B: 0.8}, 3)
		mean, ok := acc.Mean()
		if !ok {
			t.Fatal("expected a mean")
		}
		if math.Abs(mean.R-0.6) > 1e-12 || math.Abs(mean.G-0.6) > 1e-12 || math.Abs(mean.B-0.6) > 1e-12 {
			t.Errorf("got %+v, want {0.6 0.6 0.6}", mean)
		}
		if acc.Weight() != 4 {
			t.Errorf("weight: got %d, want 4", acc.Weight())
		}
	})

	t.Run("reset", func(t *testing.T) {
		var acc Accumulator
		acc.Add(Sample{R: 1}, 5)
		acc.Reset()
		if acc.Weight() != 0 {
			t.Errorf("weight after reset: got %d", acc.Weight())
		}
	})
}

func TestIsLight(t *testing.T) {
	tests := []struct {
		name string
		c    RGB8
		want bool
	}{
		{"white is light", RGB8{255, 255, 255}, true},
		{"black is not light", RGB8{0, 0, 0}, false},
		{"bright yellow is light", RGB8{255, 255, 0}, true},
		{"dark blue is not light", RGB8{0, 0, 128}, false},
		{"mid gray", RGB8{128, 128, 128}, false},
		{"light gray", RGB8{200, 200, 200}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLight(tt.c.Sample()); got != tt.want {
				t.Errorf("IsLight(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}
