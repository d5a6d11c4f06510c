package transfer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/color-transfer/internal/colorspace"
	"github.com/ironsheep/color-transfer/internal/imaging"
)

const (
	// DefaultSampleSize is the long-edge budget images are reduced to
	// before statistics are measured.
	DefaultSampleSize = 800

	// TargetSamples is the number of pixels the sampling stride aims for.
	// Images with at most this many pixels are sampled exhaustively.
	TargetSamples = 22500

	// DegenerateStdDev is the standard deviation below which a channel is
	// treated as flat.
	DegenerateStdDev = 1e-3
)

// ChannelStats holds the distribution of one Lab channel.
type ChannelStats struct {
	Mean   float32 `json:"mean"`
	StdDev float32 `json:"std_dev"`
}

// Degenerate reports whether the channel is too flat to be normalized.
func (c ChannelStats) Degenerate() bool {
	return c.StdDev < DegenerateStdDev
}

// ImageStatistics holds per-channel statistics in the order L, a, b.
type ImageStatistics [3]ChannelStats

// L returns the lightness channel statistics.
func (s ImageStatistics) L() ChannelStats { return s[0] }

// A returns the green-red channel statistics.
func (s ImageStatistics) A() ChannelStats { return s[1] }

// B returns the blue-yellow channel statistics.
func (s ImageStatistics) B() ChannelStats { return s[2] }

// MeanLab returns the channel means as a Lab color.
func (s ImageStatistics) MeanLab() colorspace.Lab {
	return colorspace.Lab{L: float64(s[0].Mean), A: float64(s[1].Mean), B: float64(s[2].Mean)}
}

// String formats the statistics as "L(mean,sd) a(mean,sd) b(mean,sd)".
func (s ImageStatistics) String() string {
	return fmt.Sprintf("L(%.2f,%.2f) a(%.2f,%.2f) b(%.2f,%.2f)",
		s[0].Mean, s[0].StdDev, s[1].Mean, s[1].StdDev, s[2].Mean, s[2].StdDev)
}

// SampleCount returns how many of n pixels are sampled: all of them up to
// TargetSamples, exactly TargetSamples beyond that.
func SampleCount(n int) int {
	return max(0, min(n, TargetSamples))
}

// SampleIndex returns the flat raster index of sample k of SampleCount(n).
//
// Beyond TargetSamples the stride is the fraction n/TargetSamples, so the
// indices are strictly increasing and spread evenly over the whole image.
func SampleIndex(k, n int) int {
	if n <= TargetSamples {
		return k
	}
	return int(int64(k) * int64(n) / TargetSamples)
}

// ComputeStatistics measures the Lab mean and population standard deviation
// of img.
//
// Images whose long edge exceeds maxSampleSize are first reduced preserving
// aspect ratio; a non-positive maxSampleSize disables the reduction. Pixels
// are then visited in raster order at the indices given by SampleIndex, so the
// result is deterministic for a given image and budget.
func ComputeStatistics(img image.Image, maxSampleSize int) (ImageStatistics, error) {
	var stats ImageStatistics
	if img == nil || img.Bounds().Empty() {
		return stats, ErrEmptyImage
	}
	if pb, ok := img.(*imaging.PixelBuffer); ok {
		if err := pb.Validate(); err != nil {
			return stats, err
		}
	}

	sampled := imaging.DownscaleForSampling(img, maxSampleSize)
	bounds := sampled.Bounds()
	w := bounds.Dx()
	n := w * bounds.Dy()
	count := SampleCount(n)

	read := pixelReader(sampled)

	var sum, sumSq [3]float64
	for k := 0; k < count; k++ {
		i := SampleIndex(k, n)
		lab := read(bounds.Min.X+i%w, bounds.Min.Y+i/w)
		for c := 0; c < 3; c++ {
			v := lab.Channel(c)
			sum[c] += v
			sumSq[c] += v * v
		}
	}

	inv := 1.0 / float64(count)
	for c := 0; c < 3; c++ {
		mean := sum[c] * inv
		variance := sumSq[c]*inv - mean*mean
		stats[c] = ChannelStats{
			Mean:   float32(mean),
			StdDev: float32(math.Sqrt(math.Max(variance, 0))),
		}
	}

	Logger().Debug("statistics computed",
		"width", w, "height", bounds.Dy(), "samples", count, "stats", stats.String())
	return stats, nil
}

// ComputeStatisticsPair measures input and reference concurrently and
// returns both once both are done. The first error cancels nothing in
// flight but is returned after both tasks finish.
func ComputeStatisticsPair(ctx context.Context, input, reference image.Image, maxSampleSize int) (in, ref ImageStatistics, err error) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := ComputeStatistics(input, maxSampleSize)
		if err != nil {
			return fmt.Errorf("input statistics: %w", err)
		}
		in = s
		return nil
	})
	g.Go(func() error {
		s, err := ComputeStatistics(reference, maxSampleSize)
		if err != nil {
			return fmt.Errorf("reference statistics: %w", err)
		}
		ref = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return ImageStatistics{}, ImageStatistics{}, err
	}
	return in, ref, nil
}

// pixelReader returns a function reading the Lab color at (x, y), with fast
// paths for the buffer types the engine produces.
func pixelReader(img image.Image) func(x, y int) colorspace.Lab {
	switch src := img.(type) {
	case *imaging.PixelBuffer:
		return func(x, y int) colorspace.Lab {
			return colorspace.PixelToLab(src.Pix[y*src.Width+x])
		}
	case *image.NRGBA:
		return func(x, y int) colorspace.Lab {
			i := src.PixOffset(x, y)
			p := src.Pix[i : i+4 : i+4]
			return colorspace.RGBToLab(float64(p[0])/255.0, float64(p[1])/255.0, float64(p[2])/255.0)
		}
	default:
		return func(x, y int) colorspace.Lab {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return colorspace.RGBToLab(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0)
		}
	}
}
