package colorspace

// PackARGB packs 8-bit components into a single ARGB pixel.
func PackARGB(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackARGB splits an ARGB pixel into its 8-bit components.
func UnpackARGB(p uint32) (a, r, g, b uint8) {
	return uint8(p >> 24), uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// PixelToLab converts an ARGB pixel to Lab, ignoring alpha.
func PixelToLab(p uint32) Lab {
	_, r, g, b := UnpackARGB(p)
	return RGBToLab(float64(r)/255.0, float64(g)/255.0, float64(b)/255.0)
}

// LabToPixel converts a Lab color to an ARGB pixel with the given alpha.
func LabToPixel(c Lab, alpha uint8) uint32 {
	r, g, b := LabToRGB(c)
	return PackARGB(alpha, ToByte(r), ToByte(g), ToByte(b))
}

// ToByte rescales a normalized component to 0-255 with rounding.
// Values outside [0, 1] are clamped.
func ToByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
