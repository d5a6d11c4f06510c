package imaging

import "fmt"

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// ColorResult contains a color value in display-friendly representations.
//
// Statistics are reported in Lab; ColorResult gives a human a quick look at
// what the mean color of an image actually is.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
}

// NewColorResult builds a ColorResult from 8-bit components.
func NewColorResult(r, g, b uint8) ColorResult {
	return ColorResult{
		Hex: fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB: RGBColor{R: r, G: g, B: b},
	}
}
