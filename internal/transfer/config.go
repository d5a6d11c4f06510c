package transfer

import (
	"runtime"

	"github.com/ironsheep/color-transfer/internal/statcache"
)

const (
	// MiB is one mebibyte.
	MiB = 1 << 20

	// DefaultParallelMinHeadroom is the free heap below which the CPU
	// executor stays sequential.
	DefaultParallelMinHeadroom = 100 * MiB

	// DefaultParallelMaxPixels is the pixel count above which the CPU
	// executor stays sequential.
	DefaultParallelMaxPixels = 20_000_000

	// DefaultChunkFloor is the smallest chunk, in pixels, handed to a
	// parallel worker.
	DefaultChunkFloor = 65_536
)

// Config tunes the engine. The zero value of any field selects its default.
type Config struct {
	// SampleSize is the long-edge budget for statistics sampling when
	// memory is plentiful. The governor lowers it under pressure.
	SampleSize int

	// CacheCapacity bounds the reference-statistics cache.
	CacheCapacity int

	// ParallelMinHeadroom is the minimum available heap, in bytes, for
	// chunked parallel execution.
	ParallelMinHeadroom uint64

	// ParallelMaxPixels is the largest image processed in parallel.
	ParallelMaxPixels int

	// ChunkFloor is the minimum chunk size in pixels.
	ChunkFloor int

	// Workers is the number of CPU cores chunking is planned for.
	Workers int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SampleSize:          DefaultSampleSize,
		CacheCapacity:       statcache.DefaultCapacity,
		ParallelMinHeadroom: DefaultParallelMinHeadroom,
		ParallelMaxPixels:   DefaultParallelMaxPixels,
		ChunkFloor:          DefaultChunkFloor,
		Workers:             runtime.NumCPU(),
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleSize <= 0 {
		c.SampleSize = d.SampleSize
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = d.CacheCapacity
	}
	if c.ParallelMinHeadroom == 0 {
		c.ParallelMinHeadroom = d.ParallelMinHeadroom
	}
	if c.ParallelMaxPixels <= 0 {
		c.ParallelMaxPixels = d.ParallelMaxPixels
	}
	if c.ChunkFloor <= 0 {
		c.ChunkFloor = d.ChunkFloor
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}
