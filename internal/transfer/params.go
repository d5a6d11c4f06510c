package transfer

// ChannelParameters is the per-channel input of the transfer formula.
type ChannelParameters struct {
	InputMean       float32 `json:"input_mean"`
	InputStdDev     float32 `json:"input_std_dev"`
	ReferenceMean   float32 `json:"reference_mean"`
	ReferenceStdDev float32 `json:"reference_std_dev"`
}

// Parameters is the complete, immutable description of one transfer: the
// input and reference distributions for L, a and b.
//
// The CPU kernel and the GPU shader both consume Parameters, which keeps
// the two paths on the same formula.
type Parameters [3]ChannelParameters

// NewParameters pairs input statistics with reference statistics.
func NewParameters(input, reference ImageStatistics) Parameters {
	var p Parameters
	for c := 0; c < 3; c++ {
		p[c] = ChannelParameters{
			InputMean:       input[c].Mean,
			InputStdDev:     input[c].StdDev,
			ReferenceMean:   reference[c].Mean,
			ReferenceStdDev: reference[c].StdDev,
		}
	}
	return p
}

// UniformCount is the number of float32 values produced by Uniforms.
const UniformCount = 16

// Uniforms flattens the parameters into a shader uniform block.
//
// Layout, matching TransferUniforms in the WGSL shader:
//
//	[0:4]   input means        (L, a, b, pad)
//	[4:8]   input std devs     (L, a, b, pad)
//	[8:12]  reference means    (L, a, b, pad)
//	[12:16] reference std devs (L, a, b, intensity)
//
// Each row is a vec4<f32> to satisfy uniform buffer alignment.
func (p Parameters) Uniforms(intensity float32) []float32 {
	u := make([]float32, UniformCount)
	for c := 0; c < 3; c++ {
		u[c] = p[c].InputMean
		u[4+c] = p[c].InputStdDev
		u[8+c] = p[c].ReferenceMean
		u[12+c] = p[c].ReferenceStdDev
	}
	u[15] = ClampIntensity(intensity)
	return u
}

// ClampIntensity limits a blend factor to [0, 1]. NaN maps to 0.
func ClampIntensity(t float32) float32 {
	if !(t > 0) {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
