package gpu

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

//go:embed shaders/color_transfer.wgsl
var colorTransferWGSL string

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Entry points declared by the shader.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
	ComputeEntryPoint  = "cs_main"
)

// workgroupWidth matches @workgroup_size on cs_main.
const workgroupWidth = 64

// Program is the compiled color-transfer shader.
type Program struct {
	// Source is the WGSL text the program was compiled from.
	Source string

	// SPIRV holds the module as little-endian 32-bit words.
	SPIRV []uint32
}

// Source returns the embedded WGSL shader source.
func Source() string { return colorTransferWGSL }

var (
	compileOnce sync.Once
	compiled    *Program
	compileErr  error
)

// Compile compiles the embedded shader. The result is computed once and
// shared; Program values must not be modified.
func Compile() (*Program, error) {
	compileOnce.Do(func() {
		compiled, compileErr = CompileSource(colorTransferWGSL)
	})
	return compiled, compileErr
}

// CompileSource compiles WGSL source to a Program.
func CompileSource(source string) (*Program, error) {
	if source == "" {
		return nil, errors.New("gpu: shader source is empty")
	}

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: failed to compile shader: %w", err)
	}

	words, err := toWords(spirvBytes)
	if err != nil {
		return nil, err
	}
	return &Program{Source: source, SPIRV: words}, nil
}

// toWords converts SPIR-V bytes to little-endian words and checks the
// module header.
func toWords(b []byte) ([]uint32, error) {
	if len(b) < 4 || len(b)%4 != 0 {
		return nil, fmt.Errorf("gpu: invalid SPIR-V length %d", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("gpu: invalid SPIR-V magic 0x%08X", words[0])
	}
	return words, nil
}
