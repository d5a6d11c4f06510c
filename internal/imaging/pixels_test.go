package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			if x < width/2 && y < height/2 {
				c = color.NRGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.NRGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.NRGBA{0, 0, 255, 128} // Half-transparent blue bottom-left
			} else {
				c = color.NRGBA{255, 255, 255, 255} // White bottom-right
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewPixelBuffer(t *testing.T) {
	pb, err := NewPixelBuffer(4, 3)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	if pb.Len() != 12 {
		t.Errorf("Len: got %d, want 12", pb.Len())
	}
	if err := pb.Validate(); err != nil {
		t.Errorf("Validate failed on fresh buffer: %v", err)
	}
}

func TestNewPixelBuffer_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPixelBuffer(tt.w, tt.h)
			if !errors.Is(err, ErrInvalidBuffer) {
				t.Errorf("expected ErrInvalidBuffer, got %v", err)
			}
		})
	}
}

func TestPixelBuffer_Validate(t *testing.T) {
	tests := []struct {
		name string
		pb   *PixelBuffer
	}{
		{"nil", nil},
		{"short pixels", &PixelBuffer{Width: 2, Height: 2, Pix: make([]uint32, 3)}},
		{"long pixels", &PixelBuffer{Width: 2, Height: 2, Pix: make([]uint32, 5)}},
		{"zero size", &PixelBuffer{Width: 0, Height: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.pb.Validate(); !errors.Is(err, ErrInvalidBuffer) {
				t.Errorf("expected ErrInvalidBuffer, got %v", err)
			}
		})
	}
}

func TestFromImage_PreservesPixels(t *testing.T) {
	src := createPatternImage(10, 8)

	pb, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if pb.Width != 10 || pb.Height != 8 {
		t.Fatalf("dimensions: got %dx%d, want 10x8", pb.Width, pb.Height)
	}

	tests := []struct {
		name string
		x, y int
		want uint32
	}{
		{"red", 1, 1, 0xFFFF0000},
		{"green", 7, 1, 0xFF00FF00},
		{"blue", 1, 6, 0x800000FF},
		{"white", 7, 6, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pb.ARGBAt(tt.x, tt.y); got != tt.want {
				t.Errorf("ARGBAt(%d,%d): got %#08x, want %#08x", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFromImage_NonZeroOrigin(t *testing.T) {
	src := createPatternImage(20, 20).SubImage(image.Rect(10, 10, 20, 20))

	pb, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if pb.Width != 10 || pb.Height != 10 {
		t.Fatalf("dimensions: got %dx%d, want 10x10", pb.Width, pb.Height)
	}
	if got := pb.ARGBAt(0, 0); got != 0xFFFFFFFF {
		t.Errorf("origin pixel: got %#08x, want white", got)
	}
}

func TestFromImage_CopiesPixelBuffer(t *testing.T) {
	orig := &PixelBuffer{Width: 2, Height: 1, Pix: []uint32{0xFF112233, 0xFF445566}}

	cp, err := FromImage(orig)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	cp.Pix[0] = 0

	if orig.Pix[0] != 0xFF112233 {
		t.Error("FromImage aliased the source buffer")
	}
}

func TestPixelBuffer_ToNRGBARoundTrip(t *testing.T) {
	src := createPatternImage(9, 7)
	pb, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	out := pb.ToNRGBA()
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			if src.NRGBAAt(x, y) != out.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, out.NRGBAAt(x, y), src.NRGBAAt(x, y))
			}
		}
	}
}

func TestPixelBuffer_ImageInterface(t *testing.T) {
	pb := &PixelBuffer{Width: 2, Height: 2, Pix: []uint32{0xFFFF0000, 0xFF00FF00, 0xFF0000FF, 0x00000000}}

	var img image.Image = pb
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("Bounds: got %v", img.Bounds())
	}

	c := color.NRGBAModel.Convert(img.At(1, 0)).(color.NRGBA)
	if c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("At(1,0): got %v, want green", c)
	}

	if c := img.At(5, 5).(color.NRGBA); c != (color.NRGBA{}) {
		t.Errorf("At out of bounds: got %v, want zero", c)
	}
}
