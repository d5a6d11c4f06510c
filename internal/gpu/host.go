package gpu

import (
	"context"

	"github.com/ironsheep/color-transfer/internal/imaging"
)

// Host executes a compiled Program over a pixel buffer.
//
// A render host samples src as a texture through fs_main; a compute host
// such as DeviceHost runs cs_main over packed storage buffers. Either way
// the uniform block is bound at binding 0 and the result is read back.
// Hosts are not required to be safe for concurrent Run calls; ShaderFilter
// serializes them.
type Host interface {
	// Name identifies the host in logs, e.g. "software" or "wgpu".
	Name() string

	// Init acquires the device and prepares the pipeline for program.
	Init(ctx context.Context, program *Program) error

	// Run renders src through the program with the given uniform block and
	// returns a new buffer of the same dimensions.
	Run(ctx context.Context, uniforms []float32, src *imaging.PixelBuffer) (*imaging.PixelBuffer, error)

	// Close releases device resources. The host cannot be used afterwards.
	Close() error
}
