// Package gpu runs the color transfer as a GPU shader.
//
// The WGSL program in shaders/color_transfer.wgsl is compiled to SPIR-V with
// naga and executed by a Host. ShaderFilter adapts a Host to the
// transfer.Filter interface, so the engine can treat the GPU as one more
// backend: when the program does not compile or the host cannot initialize,
// the filter reports transfer.ErrUnavailable and the engine falls back to
// the CPU.
//
// DeviceHost opens a wgpu/hal device and dispatches the shader's compute
// entry point over storage buffers. Build with the nogpu tag to leave the
// device backend out; its Init then always fails.
//
// SoftwareHost executes the shader's arithmetic in float32 on the CPU. It
// is used where no GPU device is present and as a reference when checking
// a device host against the CPU executor.
package gpu
