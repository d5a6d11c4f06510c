package transfer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/color-transfer/internal/imaging"
)

// ExecMode selects how the CPU executor walks the pixel buffer.
type ExecMode int

const (
	// ExecAuto picks sequential or parallel from pixel count and headroom.
	ExecAuto ExecMode = iota
	// ExecSequential processes the buffer in a single pass on the calling
	// goroutine with no extra buffers.
	ExecSequential
	// ExecParallel splits the buffer into disjoint chunks processed
	// concurrently.
	ExecParallel
)

// String returns the mode name.
func (m ExecMode) String() string {
	switch m {
	case ExecSequential:
		return "sequential"
	case ExecParallel:
		return "parallel"
	default:
		return "auto"
	}
}

// Executor runs a Kernel over a whole PixelBuffer on the CPU.
type Executor struct {
	cfg Config
}

// NewExecutor returns an executor for cfg. Zero fields take defaults.
func NewExecutor(cfg Config) *Executor {
	return &Executor{cfg: cfg.withDefaults()}
}

// ChooseMode resolves ExecAuto for n pixels given avail bytes of headroom.
func (e *Executor) ChooseMode(n int, avail uint64) ExecMode {
	if avail < e.cfg.ParallelMinHeadroom || n > e.cfg.ParallelMaxPixels {
		return ExecSequential
	}
	return ExecParallel
}

// ChunkSize returns the number of pixels per parallel chunk for n pixels:
// max(ChunkFloor, n / (2 * Workers)).
func (e *Executor) ChunkSize(n int) int {
	size := n / (2 * e.cfg.Workers)
	if size < e.cfg.ChunkFloor {
		size = e.cfg.ChunkFloor
	}
	return size
}

// chunkTaskBytes approximates the goroutine stack and closure of one
// parallel chunk. Stacks are not heap objects, so TotalAlloc never shows
// them.
const chunkTaskBytes = 8 << 10

// Overhead returns the memory mode needs beyond the output buffer for n
// pixels: nothing when sequential, one task per chunk when parallel.
func (e *Executor) Overhead(n int, mode ExecMode) uint64 {
	if mode != ExecParallel || n == 0 {
		return 0
	}
	size := e.ChunkSize(n)
	return uint64((n+size-1)/size) * chunkTaskBytes
}

// Run applies k to every pixel of src and returns a new buffer of the same
// dimensions. src is only read.
//
// In parallel mode each chunk writes a disjoint slice of the output, so no
// locking is needed; Run returns after every chunk has finished. The
// context is consulted before work starts only: chunks already running are
// never abandoned halfway through the shared output.
func (e *Executor) Run(ctx context.Context, src *imaging.PixelBuffer, k *Kernel, mode ExecMode) (*imaging.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &imaging.PixelBuffer{
		Width:  src.Width,
		Height: src.Height,
		Pix:    make([]uint32, len(src.Pix)),
	}

	if mode != ExecParallel {
		k.applyRange(out.Pix, src.Pix)
		return out, nil
	}

	n := len(src.Pix)
	size := e.ChunkSize(n)
	Logger().Debug("parallel transfer", "pixels", n, "chunk", size, "chunks", (n+size-1)/size)

	var g errgroup.Group
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("chunk [%d,%d): %v", start, end, r)
				}
			}()
			k.applyRange(out.Pix[start:end], src.Pix[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
