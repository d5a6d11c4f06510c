package transfer

import (
	"github.com/ironsheep/color-transfer/internal/colorspace"
)

// DefaultIntensity is the blend factor used when a caller does not choose
// one. Lab-space transfer is visually strong even at low values.
const DefaultIntensity = 0.05

// channelKernel holds the float64 form of one channel's parameters.
type channelKernel struct {
	inMean, inStd   float64
	refMean, refStd float64
	degenerate      bool
}

// Kernel applies the statistics-matching formula to single pixels.
//
// For each Lab channel:
//
//	normalized  = (value - inMean) / inStd   (0 when inStd <= 1e-3)
//	transferred = normalized * refStd + refMean
//	output      = value + (transferred - value) * t
//
// A Kernel is immutable and safe for concurrent use.
type Kernel struct {
	ch        [3]channelKernel
	intensity float64
}

// NewKernel prepares a kernel for the given parameters and blend factor.
// The intensity is clamped to [0, 1].
func NewKernel(p Parameters, intensity float32) *Kernel {
	k := &Kernel{intensity: float64(ClampIntensity(intensity))}
	for c := 0; c < 3; c++ {
		k.ch[c] = channelKernel{
			inMean:     float64(p[c].InputMean),
			inStd:      float64(p[c].InputStdDev),
			refMean:    float64(p[c].ReferenceMean),
			refStd:     float64(p[c].ReferenceStdDev),
			degenerate: !(p[c].InputStdDev > DegenerateStdDev),
		}
	}
	return k
}

// Intensity returns the clamped blend factor.
func (k *Kernel) Intensity() float64 { return k.intensity }

// ApplyLab transforms a single Lab color.
func (k *Kernel) ApplyLab(in colorspace.Lab) colorspace.Lab {
	out := in
	for c := 0; c < 3; c++ {
		ch := &k.ch[c]
		v := in.Channel(c)

		var normalized float64
		if !ch.degenerate {
			normalized = (v - ch.inMean) / ch.inStd
		}
		transferred := normalized*ch.refStd + ch.refMean
		out = out.WithChannel(c, v+(transferred-v)*k.intensity)
	}
	return out
}

// ApplyPixel transforms a packed ARGB pixel. Alpha is carried through.
func (k *Kernel) ApplyPixel(p uint32) uint32 {
	if k.intensity == 0 {
		return p
	}
	a, _, _, _ := colorspace.UnpackARGB(p)
	return colorspace.LabToPixel(k.ApplyLab(colorspace.PixelToLab(p)), a)
}

// applyRange transforms src into dst element by element.
// The slices must have equal length.
func (k *Kernel) applyRange(dst, src []uint32) {
	for i, p := range src {
		dst[i] = k.ApplyPixel(p)
	}
}
