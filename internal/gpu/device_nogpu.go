//go:build nogpu

package gpu

import (
	"context"
	"errors"

	"github.com/ironsheep/color-transfer/internal/imaging"
)

var errNoGPUBuild = errors.New("built with the nogpu tag")

// DeviceHost is a placeholder in nogpu builds. Init always fails, so a
// ShaderFilter over it reports unavailable.
type DeviceHost struct{}

var _ Host = (*DeviceHost)(nil)

// NewDeviceHost returns a host whose Init always fails.
func NewDeviceHost() *DeviceHost { return &DeviceHost{} }

// Name implements Host.
func (h *DeviceHost) Name() string { return "wgpu" }

// Adapter always returns "".
func (h *DeviceHost) Adapter() string { return "" }

// Init implements Host.
func (h *DeviceHost) Init(context.Context, *Program) error { return errNoGPUBuild }

// Run implements Host.
func (h *DeviceHost) Run(context.Context, []float32, *imaging.PixelBuffer) (*imaging.PixelBuffer, error) {
	return nil, errNoGPUBuild
}

// Close implements Host.
func (h *DeviceHost) Close() error { return nil }
