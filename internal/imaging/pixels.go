package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-transfer/internal/colorspace"
)

// ErrInvalidBuffer is returned for pixel buffers whose dimensions do not
// match their pixel data. It is never recovered by the fallback ladder.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// PixelBuffer is a flat row-major array of ARGB-packed 32-bit pixels.
//
// Each pixel is laid out as a<<24 | r<<16 | g<<8 | b with non-premultiplied
// components. PixelBuffer implements image.Image so it can be handed to the
// scaling helpers directly.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint32
}

// NewPixelBuffer allocates a zeroed buffer of the given dimensions.
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}, nil
}

// Validate reports whether the buffer is internally consistent.
func (p *PixelBuffer) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidBuffer, p.Width, p.Height)
	}
	if len(p.Pix) != p.Width*p.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidBuffer, len(p.Pix), p.Width, p.Height)
	}
	return nil
}

// Len returns the number of pixels.
func (p *PixelBuffer) Len() int { return len(p.Pix) }

// Clone returns a deep copy of the buffer.
func (p *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint32, len(p.Pix))
	copy(pix, p.Pix)
	return &PixelBuffer{Width: p.Width, Height: p.Height, Pix: pix}
}

// ColorModel implements image.Image.
func (p *PixelBuffer) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image. The origin is always (0, 0).
func (p *PixelBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, p.Width, p.Height) }

// At implements image.Image.
func (p *PixelBuffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return color.NRGBA{}
	}
	a, r, g, b := colorspace.UnpackARGB(p.Pix[y*p.Width+x])
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// ARGBAt returns the packed pixel at (x, y).
func (p *PixelBuffer) ARGBAt(x, y int) uint32 {
	return p.Pix[y*p.Width+x]
}

// FromImage copies any image into a new PixelBuffer.
//
// The source is never retained or modified. Images with a non-zero origin
// are translated so the result starts at (0, 0).
func FromImage(img image.Image) (*PixelBuffer, error) {
	if pb, ok := img.(*PixelBuffer); ok {
		if err := pb.Validate(); err != nil {
			return nil, err
		}
		return pb.Clone(), nil
	}

	bounds := img.Bounds()
	out, err := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	packNRGBA(out, AsNRGBA(img))
	return out, nil
}

// AsNRGBA returns img as straight-alpha NRGBA. An *image.NRGBA is returned
// as is; anything else is converted into a new image.
func AsNRGBA(img image.Image) *image.NRGBA {
	switch src := img.(type) {
	case *image.NRGBA:
		return src
	case *PixelBuffer:
		return src.ToNRGBA()
	default:
		// Clone normalizes every color model and moves the origin to (0, 0).
		return imaging.Clone(img)
	}
}

// packNRGBA fills dst from src, which must have dst's dimensions.
func packNRGBA(dst *PixelBuffer, src *image.NRGBA) {
	minX, minY := src.Rect.Min.X, src.Rect.Min.Y
	parallel.Line(dst.Height, func(start, end int) {
		for y := start; y < end; y++ {
			i := src.PixOffset(minX, minY+y)
			row := src.Pix[i : i+dst.Width*4]
			out := dst.Pix[y*dst.Width : (y+1)*dst.Width]
			for x := range out {
				j := x * 4
				out[x] = colorspace.PackARGB(row[j+3], row[j], row[j+1], row[j+2])
			}
		}
	})
}

// ToNRGBA converts the buffer to a standard library image for encoding.
func (p *PixelBuffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(p.Bounds())
	parallel.Line(p.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+p.Width*4]
			src := p.Pix[y*p.Width : (y+1)*p.Width]
			for x, px := range src {
				a, r, g, b := colorspace.UnpackARGB(px)
				i := x * 4
				row[i], row[i+1], row[i+2], row[i+3] = r, g, b, a
			}
		}
	})
	return img
}
