package gpu

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/color-transfer/internal/colorspace"
	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

// SoftwareHost runs the fragment shader's arithmetic in float32 on the
// calling goroutine, one invocation per pixel.
//
// Results match a device host up to driver rounding and the CPU executor
// to within 2/255 per channel.
type SoftwareHost struct {
	ready bool
}

var _ Host = (*SoftwareHost)(nil)

// NewSoftwareHost returns a host that needs no device.
func NewSoftwareHost() *SoftwareHost {
	return &SoftwareHost{}
}

// Name implements Host.
func (h *SoftwareHost) Name() string { return "software" }

// Init implements Host.
func (h *SoftwareHost) Init(_ context.Context, program *Program) error {
	if program == nil {
		return errors.New("nil program")
	}
	h.ready = true
	return nil
}

// Run implements Host.
func (h *SoftwareHost) Run(ctx context.Context, uniforms []float32, src *imaging.PixelBuffer) (*imaging.PixelBuffer, error) {
	if !h.ready {
		return nil, errors.New("software host not initialized")
	}
	if len(uniforms) != transfer.UniformCount {
		return nil, fmt.Errorf("expected %d uniforms, got %d", transfer.UniformCount, len(uniforms))
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := unpackUniforms(uniforms)
	out := &imaging.PixelBuffer{Width: src.Width, Height: src.Height, Pix: make([]uint32, len(src.Pix))}
	for i, p := range src.Pix {
		out.Pix[i] = u.fragment(p)
	}
	return out, nil
}

// Close implements Host.
func (h *SoftwareHost) Close() error {
	h.ready = false
	return nil
}

// shaderUniforms mirrors TransferUniforms in the WGSL source.
type shaderUniforms struct {
	inMean, inStd   [3]float32
	refMean, refStd [3]float32
	intensity       float32
}

func unpackUniforms(u []float32) shaderUniforms {
	var s shaderUniforms
	copy(s.inMean[:], u[0:3])
	copy(s.inStd[:], u[4:7])
	copy(s.refMean[:], u[8:11])
	copy(s.refStd[:], u[12:15])
	s.intensity = u[15]
	return s
}

func (u *shaderUniforms) fragment(p uint32) uint32 {
	a, r, g, b := colorspace.UnpackARGB(p)
	lab := rgbToLab32([3]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255})

	var out [3]float32
	for c := 0; c < 3; c++ {
		out[c] = transferChannel32(lab[c], u.inMean[c], u.inStd[c], u.refMean[c], u.refStd[c], u.intensity)
	}
	rgb := labToRGB32(out)

	// Render targets are RGBA8 unorm: round to nearest.
	return colorspace.PackARGB(a, unorm8(rgb[0]), unorm8(rgb[1]), unorm8(rgb[2]))
}

const (
	degenerateStd32 = float32(transfer.DegenerateStdDev)
	labEpsilon32    = float32(216.0 / 24389.0)
	labKappa32      = float32(29.0 * 29.0 / (6.0 * 6.0 * 3.0))
	labDelta32      = float32(6.0 / 29.0)
)

var whiteD65 = [3]float32{0.95047, 1.0, 1.08883}

func transferChannel32(v, inMean, inStd, refMean, refStd, t float32) float32 {
	var normalized float32
	if inStd > degenerateStd32 {
		normalized = (v - inMean) / inStd
	}
	transferred := normalized*refStd + refMean
	return v + (transferred-v)*t
}

func pow32(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func srgbToLinear32(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return pow32((c+0.055)/1.055, 2.4)
}

func linearToSRGB32(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*pow32(c, 1.0/2.4) - 0.055
}

func labF32(t float32) float32 {
	if t > labEpsilon32 {
		return pow32(t, 1.0/3.0)
	}
	return t*labKappa32 + 4.0/29.0
}

func labFinv32(t float32) float32 {
	if t > labDelta32 {
		return t * t * t
	}
	return 3 * labDelta32 * labDelta32 * (t - 4.0/29.0)
}

func rgbToLab32(rgb [3]float32) [3]float32 {
	r, g, b := srgbToLinear32(rgb[0]), srgbToLinear32(rgb[1]), srgbToLinear32(rgb[2])

	x := 0.41239080*r + 0.35758434*g + 0.18048079*b
	y := 0.21263901*r + 0.71516868*g + 0.07219232*b
	z := 0.01933082*r + 0.11919478*g + 0.95053215*b

	fx := labF32(x / whiteD65[0])
	fy := labF32(y / whiteD65[1])
	fz := labF32(z / whiteD65[2])

	return [3]float32{116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)}
}

func labToRGB32(lab [3]float32) [3]float32 {
	fy := (lab[0] + 16) / 116
	fx := fy + lab[1]/500
	fz := fy - lab[2]/200

	x := whiteD65[0] * labFinv32(fx)
	y := whiteD65[1] * labFinv32(fy)
	z := whiteD65[2] * labFinv32(fz)

	r := 3.24096994*x - 1.53738318*y - 0.49861076*z
	g := -0.96924364*x + 1.87596750*y + 0.04155506*z
	b := 0.05563008*x - 0.20397696*y + 1.05697151*z

	return [3]float32{clamp01(linearToSRGB32(r)), clamp01(linearToSRGB32(g)), clamp01(linearToSRGB32(b))}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func unorm8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
