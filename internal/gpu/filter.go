package gpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

// ShaderFilter is a transfer.Filter that runs the shader on a Host.
//
// A new filter is unavailable until Init succeeds. Every failure, whether
// compiling, initializing or rendering, is reported as
// transfer.ErrUnavailable so callers can fall back to the CPU filter.
type ShaderFilter struct {
	host Host

	mu    sync.Mutex
	ready bool
}

var _ transfer.Filter = (*ShaderFilter)(nil)

// NewShaderFilter returns an uninitialized filter for host.
func NewShaderFilter(host Host) *ShaderFilter {
	return &ShaderFilter{host: host}
}

// Init compiles the shader and initializes the host. Calling Init on a
// ready filter is a no-op.
func (f *ShaderFilter) Init(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ready {
		return nil
	}
	if f.host == nil {
		return fmt.Errorf("%w: no gpu host", transfer.ErrUnavailable)
	}

	program, err := Compile()
	if err != nil {
		transfer.Logger().Warn("gpu shader unavailable", "host", f.host.Name(), "error", err)
		return fmt.Errorf("%w: %v", transfer.ErrUnavailable, err)
	}
	if err := f.host.Init(ctx, program); err != nil {
		transfer.Logger().Warn("gpu host failed to initialize", "host", f.host.Name(), "error", err)
		return fmt.Errorf("%w: %s: %v", transfer.ErrUnavailable, f.host.Name(), err)
	}

	f.ready = true
	transfer.Logger().Info("gpu host initialized", "host", f.host.Name(), "spirv_words", len(program.SPIRV))
	return nil
}

// Name implements transfer.Filter.
func (f *ShaderFilter) Name() string {
	if f.host == nil {
		return "gpu"
	}
	return "gpu:" + f.host.Name()
}

// Available implements transfer.Filter.
func (f *ShaderFilter) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Apply implements transfer.Filter. Renders are serialized because a host
// owns a single queue.
func (f *ShaderFilter) Apply(ctx context.Context, src *imaging.PixelBuffer, params transfer.Parameters, intensity float32) (*imaging.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.ready {
		return nil, transfer.ErrUnavailable
	}
	out, err := f.host.Run(ctx, params.Uniforms(intensity), src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", transfer.ErrUnavailable, f.host.Name(), err)
	}
	return out, nil
}

// Close releases the host. The filter is unavailable afterwards.
func (f *ShaderFilter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.ready {
		return nil
	}
	f.ready = false
	return f.host.Close()
}
