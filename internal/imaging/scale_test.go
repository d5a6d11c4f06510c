package imaging

import (
	"image"
	"image/color"
	"runtime"
	"testing"

	"github.com/disintegration/imaging"
)

// allocatedBytes returns the heap bytes fn allocates.
func allocatedBytes(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

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

func TestLongEdge(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want int
	}{
		{"landscape", 300, 200, 300},
		{"portrait", 200, 300, 300},
		{"square", 50, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h))
			if got := LongEdge(img); got != tt.want {
				t.Errorf("LongEdge: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDownscaleForSampling_FitsUnchanged(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))

	got := DownscaleForSampling(img, 800)
	if got != image.Image(img) {
		t.Error("image within budget should be returned unchanged")
	}

	if got := DownscaleForSampling(img, 0); got != image.Image(img) {
		t.Error("non-positive budget should disable downscaling")
	}
}

func TestDownscaleForSampling_PreservesAspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1600, 900))

	got := DownscaleForSampling(img, 800)
	b := got.Bounds()
	if b.Dx() != 800 || b.Dy() != 450 {
		t.Errorf("dimensions: got %dx%d, want 800x450", b.Dx(), b.Dy())
	}
}

func TestDownscale(t *testing.T) {
	img := createPatternImage(400, 200)

	pb, err := Downscale(img, 100)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if pb.Width != 100 || pb.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", pb.Width, pb.Height)
	}

	same, err := Downscale(img, 1000)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if same.Width != 400 || same.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 400x200", same.Width, same.Height)
	}
}

func TestFitDims_MatchesFit(t *testing.T) {
	tests := []struct {
		w, h, maxDim int
		wantW, wantH int
	}{
		{8000, 6000, 0, 8000, 6000},
		{8000, 6000, 1920, 1920, 1440},
		{6000, 8000, 1080, 810, 1080},
		{640, 480, 720, 640, 480},
		{3000, 2000, 1080, 1080, 720},
		{1000, 333, 100, 100, 33},
		{10000, 1, 720, 720, 1},
	}

	for _, tt := range tests {
		w, h := FitDims(tt.w, tt.h, tt.maxDim)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("FitDims(%d, %d, %d): got %dx%d, want %dx%d", tt.w, tt.h, tt.maxDim, w, h, tt.wantW, tt.wantH)
		}
	}

	// Cross-check against the resampler on shapes that are cheap to allocate.
	for _, size := range [][3]int{{1000, 333, 100}, {333, 1000, 100}, {1201, 799, 640}, {10000, 1, 720}} {
		img := image.NewNRGBA(image.Rect(0, 0, size[0], size[1]))
		got := imaging.Fit(img, size[2], size[2], imaging.Box).Bounds()
		w, h := FitDims(size[0], size[1], size[2])
		if got.Dx() != w || got.Dy() != h {
			t.Errorf("%dx%d into %d: Fit gives %dx%d, FitDims %dx%d", size[0], size[1], size[2], got.Dx(), got.Dy(), w, h)
		}
	}
}

func TestResampleBytes_BoundsAllocation(t *testing.T) {
	img := createPalettedImage(2400, 1800)

	var out *image.NRGBA
	got := allocatedBytes(func() { out = Resample(img, 960) })
	want := ResampleBytes(2400, 1800, 960, false)

	if b := out.Bounds(); b.Dx() != 960 || b.Dy() != 720 {
		t.Fatalf("dimensions: got %dx%d, want 960x720", b.Dx(), b.Dy())
	}
	if got > want {
		t.Errorf("Resample allocated %d bytes, estimate %d", got, want)
	}
	// The horizontal pass alone is 960x1800; an estimate that ignores it
	// would sit near PixelBytes(960, 720).
	if want < PixelBytes(960, 1800)+PixelBytes(960, 720) {
		t.Errorf("estimate %d misses the intermediate pass", want)
	}
}

func TestSamplingBytes_BoundsAllocation(t *testing.T) {
	pb, err := FromImage(createPatternImage(1600, 1200))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}

	got := allocatedBytes(func() { _ = DownscaleForSampling(pb, 800) })
	want := SamplingBytes(1600, 1200, 800, true)
	if got > want {
		t.Errorf("DownscaleForSampling allocated %d bytes, estimate %d", got, want)
	}

	if n := SamplingBytes(800, 600, 800, true); n != 0 {
		t.Errorf("image within budget: got %d bytes, want 0", n)
	}
}

func TestFromImage_NRGBASkipsCopy(t *testing.T) {
	src := createPatternImage(1000, 1000)

	got := allocatedBytes(func() {
		if _, err := FromImage(src); err != nil {
			t.Errorf("FromImage failed: %v", err)
		}
	})
	// One PixelBuffer; a Clone would double it.
	if limit := PixelBytes(1000, 1000) * 3 / 2; got > limit {
		t.Errorf("FromImage(*image.NRGBA) allocated %d bytes, want at most %d", got, limit)
	}
}
