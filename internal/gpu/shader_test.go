package gpu

import (
	"fmt"
	"strings"
	"testing"
)

// skipOnNagaLimitation skips when the WGSL front end lacks a feature the
// shader uses.
func skipOnNagaLimitation(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: naga feature not yet implemented: %v", err)
	}
}

func TestShaderSource(t *testing.T) {
	src := Source()
	if src == "" {
		t.Fatal("shader source is empty")
	}
	for _, want := range []string{"fn " + VertexEntryPoint, "fn " + FragmentEntryPoint, "fn " + ComputeEntryPoint, "struct TransferUniforms"} {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}

func TestCompile(t *testing.T) {
	program, err := Compile()
	if err != nil {
		skipOnNagaLimitation(t, err)
		t.Fatalf("failed to compile shader: %v", err)
	}

	if len(program.SPIRV) == 0 {
		t.Fatal("SPIR-V output is empty")
	}
	if program.SPIRV[0] != spirvMagic {
		t.Errorf("invalid SPIR-V magic: 0x%08X, want 0x%08X", program.SPIRV[0], spirvMagic)
	}

	again, _ := Compile()
	if again != program {
		t.Error("Compile should return the shared program")
	}
	t.Logf("color transfer shader compiled to %d words of SPIR-V", len(program.SPIRV))
}

func TestCompileSource_Errors(t *testing.T) {
	if _, err := CompileSource(""); err == nil {
		t.Error("expected error for empty source")
	}
	if _, err := CompileSource("this is not wgsl {"); err == nil {
		t.Error("expected error for invalid source")
	}
}

func TestToWords(t *testing.T) {
	words, err := toWords([]byte{0x03, 0x02, 0x23, 0x07, 0x01, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("toWords failed: %v", err)
	}
	if len(words) != 2 || words[0] != spirvMagic || words[1] != 1 {
		t.Errorf("unexpected words %08X", words)
	}

	for _, bad := range [][]byte{nil, {1, 2, 3}, {0, 0, 0, 0, 1}, {1, 2, 3, 4}} {
		if _, err := toWords(bad); err == nil {
			t.Errorf("toWords(%v): expected error", bad)
		}
	}
}

func TestShaderSource_WorkgroupWidth(t *testing.T) {
	want := fmt.Sprintf("@workgroup_size(%d)", workgroupWidth)
	if !strings.Contains(Source(), want) {
		t.Errorf("shader source missing %q", want)
	}
}
