// Package colorspace converts between sRGB and CIE L*a*b* and packs pixels
// into the 32-bit ARGB layout used by the transfer engine.
//
// Lab values use CIE units: L in 0..100, a and b roughly -128..127.
// The conversion goes through the sRGB gamma curve, linear RGB, XYZ under
// the D65 reference white and the Lab nonlinearity (cube root above
// 216/24389, linear below). The inverse is exact up to floating point.
//
// All functions are pure and safe for concurrent use.
package colorspace

import (
	"github.com/lucasb-eyer/go-colorful"
)

// labScale converts go-colorful's normalized Lab (L in 0..1) to CIE units.
const labScale = 100.0

// Lab is a color in CIE L*a*b* coordinates.
type Lab struct {
	L float64 `json:"l"` // Lightness: 0 (black) to 100 (diffuse white)
	A float64 `json:"a"` // Green (negative) to red (positive)
	B float64 `json:"b"` // Blue (negative) to yellow (positive)
}

// Channel returns the i-th component (0 = L, 1 = a, 2 = b).
func (c Lab) Channel(i int) float64 {
	switch i {
	case 0:
		return c.L
	case 1:
		return c.A
	default:
		return c.B
	}
}

// WithChannel returns a copy of c with the i-th component replaced.
func (c Lab) WithChannel(i int, v float64) Lab {
	switch i {
	case 0:
		c.L = v
	case 1:
		c.A = v
	default:
		c.B = v
	}
	return c
}

// RGBToLab converts a normalized sRGB triple (each component 0-1) to Lab.
func RGBToLab(r, g, b float64) Lab {
	l, a, bb := colorful.Color{R: r, G: g, B: b}.Lab()
	return Lab{L: l * labScale, A: a * labScale, B: bb * labScale}
}

// LabToRGB converts a Lab color back to normalized sRGB.
//
// Colors outside the sRGB gamut are clamped so every returned component
// lies in [0, 1].
func LabToRGB(c Lab) (r, g, b float64) {
	rgb := colorful.Lab(c.L/labScale, c.A/labScale, c.B/labScale).Clamped()
	return rgb.R, rgb.G, rgb.B
}
