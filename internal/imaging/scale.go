package imaging

import (
	"image"
	"math"
	"runtime"

	"github.com/disintegration/imaging"
)

// LongEdge returns the larger of the image's width and height.
func LongEdge(img image.Image) int {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}

// FitsWithin reports whether the image's long edge is at most maxDim.
// A non-positive maxDim means no limit.
func FitsWithin(img image.Image, maxDim int) bool {
	return maxDim <= 0 || LongEdge(img) <= maxDim
}

// FitDims returns the dimensions imaging.Fit produces for a w×h image and
// a maxDim square. The short edge is truncated, never below one pixel.
func FitDims(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	aspect := float64(w) / float64(h)
	if aspect > 1 {
		return maxDim, max(1, int(float64(maxDim)/aspect))
	}
	return max(1, int(float64(maxDim)*aspect)), maxDim
}

// DownscaleForSampling returns a copy of img whose long edge is at most
// maxDim, preserving aspect ratio. Images that already fit are returned
// unchanged without copying.
//
// The box filter averages every source pixel into the result, which is
// what statistics care about; sharpness is irrelevant here.
func DownscaleForSampling(img image.Image, maxDim int) image.Image {
	if FitsWithin(img, maxDim) {
		return img
	}
	if pb, ok := img.(*PixelBuffer); ok {
		// The resampler reads unknown image types pixel by pixel through At.
		return imaging.Fit(pb.ToNRGBA(), maxDim, maxDim, imaging.Box)
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Box)
}

// Resample returns img reduced to fit within maxDim with a Catmull-Rom
// filter. When the image already fits the result is AsNRGBA(img).
func Resample(img image.Image, maxDim int) *image.NRGBA {
	if FitsWithin(img, maxDim) {
		return AsNRGBA(img)
	}
	if pb, ok := img.(*PixelBuffer); ok {
		return imaging.Fit(pb.ToNRGBA(), maxDim, maxDim, imaging.CatmullRom)
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.CatmullRom)
}

// Downscale returns a new PixelBuffer whose long edge is at most maxDim,
// resampled with a Catmull-Rom filter for output quality. When the image
// already fits, the result is a plain copy.
func Downscale(img image.Image, maxDim int) (*PixelBuffer, error) {
	if FitsWithin(img, maxDim) {
		return FromImage(img)
	}
	return FromImage(Resample(img, maxDim))
}

const (
	bytesPerPixel     = 4
	indexWeightSize   = 16 // int index + float64 weight
	catmullRomSupport = 2.0
	boxSupport        = 0.5

	// resampleSlack covers page rounding of large allocations and the
	// resampler's per-call bookkeeping.
	resampleSlack = 64 << 10
)

// PixelBytes returns the size of a w×h 8-bit RGBA image.
func PixelBytes(w, h int) uint64 {
	return uint64(w) * uint64(h) * bytesPerPixel
}

// ResampleBytes returns the bytes Resample allocates for a w×h image when
// it does not fit maxDim: the horizontal pass output (newW×h), the result,
// the filter weights and one scan line per worker. fromBuffer adds the
// NRGBA copy of a *PixelBuffer.
func ResampleBytes(w, h, maxDim int, fromBuffer bool) uint64 {
	n := fitBytes(w, h, maxDim, catmullRomSupport)
	if n > 0 && fromBuffer {
		n += PixelBytes(w, h)
	}
	return n
}

// SamplingBytes returns the bytes DownscaleForSampling allocates for a w×h
// image. fromBuffer reports whether the image is a *PixelBuffer, which is
// converted to NRGBA first.
func SamplingBytes(w, h, maxDim int, fromBuffer bool) uint64 {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return 0
	}
	n := fitBytes(w, h, maxDim, boxSupport)
	if fromBuffer {
		n += PixelBytes(w, h)
	}
	return n
}

func fitBytes(w, h, maxDim int, support float64) uint64 {
	newW, newH := FitDims(w, h, maxDim)
	if newW == w && newH == h {
		return 0
	}
	var n uint64
	if newW != w && newH != h {
		n += PixelBytes(newW, h)
	}
	n += PixelBytes(newW, newH)
	n += weightBytes(newW, w, support) + weightBytes(newH, h, support)
	// Each pass queues its rows or columns on a channel and gives every
	// worker a scan line.
	n += uint64(h+newW) * 8
	n += uint64(runtime.GOMAXPROCS(0)) * PixelBytes(w+h, 1)
	return n + resampleSlack
}

// weightBytes bounds the per-pass weight table of the resampler.
func weightBytes(dst, src int, support float64) uint64 {
	if dst == src {
		return 0
	}
	scale := max(float64(src)/float64(dst), 1)
	radius := uint64(math.Ceil(scale * support))
	// One slice header per destination pixel plus the shared tap buffer.
	return uint64(dst) * (24 + (radius+2)*2*indexWeightSize)
}
