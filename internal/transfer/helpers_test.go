package transfer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/color-transfer/internal/colorspace"
	"github.com/ironsheep/color-transfer/internal/imaging"
)

// createGradientBuffer creates an opaque buffer with a smooth two-axis
// gradient so every Lab channel has spread.
func createGradientBuffer(t *testing.T, width, height int) *imaging.PixelBuffer {
	t.Helper()
	pb, err := imaging.NewPixelBuffer(width, height)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8(x * 255 / max(1, width-1))
			g := uint8(y * 255 / max(1, height-1))
			b := uint8((x + y) * 127 / max(1, width+height-2))
			pb.Pix[y*width+x] = colorspace.PackARGB(255, r, g, b)
		}
	}
	return pb
}

// createUniformImage creates an in-memory image filled with one color.
func createUniformImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPalettedImage creates a two-color striped image, the cheapest
// layout for very large inputs.
func createPalettedImage(width, height int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, width, height), color.Palette{
		color.NRGBA{20, 40, 60, 255},
		color.NRGBA{200, 180, 160, 255},
	})
	for i := range img.Pix {
		img.Pix[i] = uint8(i / width % 2)
	}
	return img
}

// maxChannelDiff returns the largest per-channel difference between two
// buffers of equal size.
func maxChannelDiff(t *testing.T, a, b *imaging.PixelBuffer) int {
	t.Helper()
	if a.Width != b.Width || a.Height != b.Height {
		t.Fatalf("size mismatch: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	worst := 0
	for i := range a.Pix {
		for shift := 0; shift < 32; shift += 8 {
			d := int(a.Pix[i]>>shift&0xFF) - int(b.Pix[i]>>shift&0xFF)
			if d < 0 {
				d = -d
			}
			worst = max(worst, d)
		}
	}
	return worst
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
