package transfer

import (
	"context"

	"github.com/ironsheep/color-transfer/internal/imaging"
)

// Filter is an execution backend for the transfer formula.
//
// A GPU shader and the CPU executor both implement Filter, so callers pick
// a backend by value instead of branching on it. Implementations that
// cannot run must return ErrUnavailable from Apply and never return
// partially processed pixels.
type Filter interface {
	// Name identifies the backend in logs, e.g. "cpu" or "gpu:software".
	Name() string

	// Available reports whether Apply can currently succeed.
	Available() bool

	// Apply runs the formula over src and returns a new buffer.
	Apply(ctx context.Context, src *imaging.PixelBuffer, params Parameters, intensity float32) (*imaging.PixelBuffer, error)
}

// CPUFilter runs the transfer on the CPU executor. It is always available.
type CPUFilter struct {
	exec      *Executor
	telemetry Telemetry
}

// NewCPUFilter returns a Filter backed by exec, choosing sequential or
// parallel execution from telemetry on every call.
func NewCPUFilter(exec *Executor, telemetry Telemetry) *CPUFilter {
	return &CPUFilter{exec: exec, telemetry: telemetry}
}

// Name implements Filter.
func (f *CPUFilter) Name() string { return "cpu" }

// Available implements Filter.
func (f *CPUFilter) Available() bool { return true }

// Apply implements Filter.
func (f *CPUFilter) Apply(ctx context.Context, src *imaging.PixelBuffer, params Parameters, intensity float32) (*imaging.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	mode := f.exec.ChooseMode(src.Len(), f.telemetry.Available())
	return f.exec.Run(ctx, src, NewKernel(params, intensity), mode)
}
