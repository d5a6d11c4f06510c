package colorspace

import (
	"math"
	"testing"
)

func TestRGBToLab_KnownColors(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    Lab
	}{
		{"black", 0, 0, 0, Lab{0, 0, 0}},
		{"white", 1, 1, 1, Lab{100, 0, 0}},
		{"mid gray", 0.5, 0.5, 0.5, Lab{53.389, 0, 0}},
		{"pure red", 1, 0, 0, Lab{53.24, 80.09, 67.20}},
		{"pure blue", 0, 0, 1, Lab{32.30, 79.19, -107.86}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToLab(tt.r, tt.g, tt.b)
			// Published reference values are rounded to two decimals and
			// use slightly different matrix precision.
			const tol = 0.5
			if math.Abs(got.L-tt.want.L) > tol {
				t.Errorf("L: got %.3f, want %.3f", got.L, tt.want.L)
			}
			if math.Abs(got.A-tt.want.A) > tol {
				t.Errorf("a: got %.3f, want %.3f", got.A, tt.want.A)
			}
			if math.Abs(got.B-tt.want.B) > tol {
				t.Errorf("b: got %.3f, want %.3f", got.B, tt.want.B)
			}
		})
	}
}

func TestLabRoundTrip(t *testing.T) {
	const steps = 16
	const eps = 1e-3

	for ri := 0; ri <= steps; ri++ {
		for gi := 0; gi <= steps; gi++ {
			for bi := 0; bi <= steps; bi++ {
				r := float64(ri) / steps
				g := float64(gi) / steps
				b := float64(bi) / steps

				r2, g2, b2 := LabToRGB(RGBToLab(r, g, b))
				if math.Abs(r2-r) > eps || math.Abs(g2-g) > eps || math.Abs(b2-b) > eps {
					t.Fatalf("round trip (%.4f,%.4f,%.4f) -> (%.4f,%.4f,%.4f)", r, g, b, r2, g2, b2)
				}
			}
		}
	}
}

func TestLabToRGB_ClampsOutOfGamut(t *testing.T) {
	tests := []struct {
		name string
		lab  Lab
	}{
		{"super white", Lab{L: 140, A: 0, B: 0}},
		{"negative lightness", Lab{L: -20, A: 0, B: 0}},
		{"extreme chroma", Lab{L: 50, A: 200, B: -200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := LabToRGB(tt.lab)
			for i, v := range []float64{r, g, b} {
				if v < 0 || v > 1 {
					t.Errorf("component %d = %f, want within [0,1]", i, v)
				}
			}
		})
	}
}

func TestLabChannelAccessors(t *testing.T) {
	c := Lab{L: 10, A: 20, B: 30}
	for i, want := range []float64{10, 20, 30} {
		if got := c.Channel(i); got != want {
			t.Errorf("Channel(%d): got %f, want %f", i, got, want)
		}
	}

	c = c.WithChannel(1, -5)
	if c.A != -5 || c.L != 10 || c.B != 30 {
		t.Errorf("WithChannel(1): got %+v", c)
	}
}

func TestPackUnpackARGB(t *testing.T) {
	p := PackARGB(0x80, 0x12, 0x34, 0x56)
	if p != 0x80123456 {
		t.Fatalf("PackARGB: got %#08x, want 0x80123456", p)
	}

	a, r, g, b := UnpackARGB(p)
	if a != 0x80 || r != 0x12 || g != 0x34 || b != 0x56 {
		t.Errorf("UnpackARGB: got (%#x,%#x,%#x,%#x)", a, r, g, b)
	}
}

func TestPixelLabRoundTrip(t *testing.T) {
	pixels := []uint32{
		0xFF000000,
		0xFFFFFFFF,
		0xFF808080,
		0xFFFF8040,
		0x7F10A0C0,
	}

	for _, p := range pixels {
		a, _, _, _ := UnpackARGB(p)
		got := LabToPixel(PixelToLab(p), a)
		if got != p {
			t.Errorf("pixel %#08x round-tripped to %#08x", p, got)
		}
	}
}

func TestToByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{1.5, 255},
	}

	for _, tt := range tests {
		if got := ToByte(tt.in); got != tt.want {
			t.Errorf("ToByte(%f): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
