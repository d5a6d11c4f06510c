//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

const (
	uniformSize   = transfer.UniformCount * 4
	maxWorkgroups = 65535
	deviceTimeout = 5 * time.Second
)

// DeviceHost runs the compute entry point of the compiled program on a
// wgpu/hal device.
//
// Each Run uploads the packed pixels to a storage buffer, dispatches one
// invocation per pixel and copies the result through a staging buffer.
// Init fails when no adapter can be opened.
type DeviceHost struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

var _ Host = (*DeviceHost)(nil)

// NewDeviceHost returns a host that opens a device on Init.
func NewDeviceHost() *DeviceHost {
	return &DeviceHost{}
}

// Name implements Host.
func (h *DeviceHost) Name() string { return "wgpu" }

// Adapter returns the name of the opened adapter, or "" before Init.
func (h *DeviceHost) Adapter() string { return h.adapter }

// Init implements Host.
func (h *DeviceHost) Init(ctx context.Context, program *Program) error {
	if program == nil || len(program.SPIRV) == 0 {
		return errors.New("program has no SPIR-V module")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.pipeline != nil {
		return nil
	}

	if err := h.openDevice(); err != nil {
		_ = h.Close()
		return err
	}
	if err := h.createPipeline(program.SPIRV); err != nil {
		_ = h.Close()
		return fmt.Errorf("create pipeline: %w", err)
	}
	transfer.Logger().Debug("wgpu device opened", "adapter", h.adapter)
	return nil
}

func (h *DeviceHost) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	h.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device %s: %w", selected.Info.Name, err)
	}
	h.device = openDev.Device
	h.queue = openDev.Queue
	h.adapter = selected.Info.Name
	return nil
}

func (h *DeviceHost) createPipeline(spirv []uint32) error {
	shader, err := h.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "color_transfer",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	h.shader = shader

	bindLayout, err := h.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "color_transfer_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: uniformSize}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	h.bindLayout = bindLayout

	pipeLayout, err := h.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "color_transfer_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{h.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	h.pipeLayout = pipeLayout

	pipeline, err := h.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "color_transfer_pipeline",
		Layout:  h.pipeLayout,
		Compute: hal.ComputeState{Module: h.shader, EntryPoint: ComputeEntryPoint},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	h.pipeline = pipeline
	return nil
}

// Run implements Host.
func (h *DeviceHost) Run(ctx context.Context, uniforms []float32, src *imaging.PixelBuffer) (*imaging.PixelBuffer, error) {
	if h.pipeline == nil {
		return nil, errors.New("device host not initialized")
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

	pixelSize := uint64(len(src.Pix)) * 4

	uniformBuf, err := h.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "color_transfer_uniforms", Size: uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	defer h.device.DestroyBuffer(uniformBuf)

	srcBuf, err := h.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "color_transfer_src", Size: pixelSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create source buffer: %w", err)
	}
	defer h.device.DestroyBuffer(srcBuf)

	dstBuf, err := h.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "color_transfer_dst", Size: pixelSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create output buffer: %w", err)
	}
	defer h.device.DestroyBuffer(dstBuf)

	stagingBuf, err := h.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "color_transfer_staging", Size: pixelSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer h.device.DestroyBuffer(stagingBuf)

	h.queue.WriteBuffer(uniformBuf, 0, packUniforms(uniforms))
	h.queue.WriteBuffer(srcBuf, 0, packPixels(src.Pix))

	bindGroup, err := h.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "color_transfer_bind", Layout: h.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: pixelSize}},
			{Binding: 4, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: pixelSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer h.device.DestroyBindGroup(bindGroup)

	if err := h.dispatch(bindGroup, dstBuf, stagingBuf, len(src.Pix), pixelSize); err != nil {
		return nil, err
	}

	readback := make([]byte, pixelSize)
	if err := h.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	out := &imaging.PixelBuffer{Width: src.Width, Height: src.Height, Pix: make([]uint32, len(src.Pix))}
	unpackPixels(readback, out.Pix)
	return out, nil
}

func (h *DeviceHost) dispatch(bindGroup hal.BindGroup, dstBuf, stagingBuf hal.Buffer, pixels int, size uint64) error {
	encoder, err := h.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "color_transfer_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("color_transfer"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	x, y := dispatchSize(pixels)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "color_transfer_pass"})
	pass.SetPipeline(h.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(x, y, 1)
	pass.End()

	encoder.CopyBufferToBuffer(dstBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer h.device.FreeCommandBuffer(cmdBuf)

	fence, err := h.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer h.device.DestroyFence(fence)
	if err := h.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := h.device.Wait(fence, 1, deviceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// Close implements Host.
func (h *DeviceHost) Close() error {
	if h.device != nil {
		if h.pipeline != nil {
			h.device.DestroyComputePipeline(h.pipeline)
		}
		if h.pipeLayout != nil {
			h.device.DestroyPipelineLayout(h.pipeLayout)
		}
		if h.bindLayout != nil {
			h.device.DestroyBindGroupLayout(h.bindLayout)
		}
		if h.shader != nil {
			h.device.DestroyShaderModule(h.shader)
		}
		h.device.Destroy()
	}
	if h.instance != nil {
		h.instance.Destroy()
	}
	*h = DeviceHost{}
	return nil
}

// dispatchSize returns the workgroup grid for n pixels. Rows hold at most
// maxWorkgroups groups; cs_main recovers the flat index from num_workgroups.
func dispatchSize(n int) (x, y uint32) {
	groups := (n + workgroupWidth - 1) / workgroupWidth
	if groups <= maxWorkgroups {
		return uint32(max(groups, 1)), 1 //nolint:gosec // bounded by maxWorkgroups
	}
	return maxWorkgroups, uint32((groups + maxWorkgroups - 1) / maxWorkgroups) //nolint:gosec // image sizes fit uint32
}

func packUniforms(u []float32) []byte {
	out := make([]byte, len(u)*4)
	for i, v := range u {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func packPixels(pix []uint32) []byte {
	out := make([]byte, len(pix)*4)
	for i, p := range pix {
		binary.LittleEndian.PutUint32(out[i*4:], p)
	}
	return out
}

func unpackPixels(b []byte, dst []uint32) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
}
