package transfer

import (
	"math"
	"runtime"
	"runtime/debug"
)

// DefaultMaxHeap is the heap ceiling assumed when neither the caller nor
// GOMEMLIMIT provides one.
const DefaultMaxHeap = 4 << 30

// Telemetry reports how much heap the engine may still allocate.
type Telemetry interface {
	// Available returns maxHeap - (totalAllocated - free) in bytes.
	Available() uint64
}

// RuntimeTelemetry measures the Go heap against a ceiling.
type RuntimeTelemetry struct {
	maxHeap uint64
}

// NewRuntimeTelemetry returns telemetry bounded by maxHeap bytes. When
// maxHeap is zero the soft memory limit (GOMEMLIMIT) is used, and
// DefaultMaxHeap when no limit is set either.
func NewRuntimeTelemetry(maxHeap uint64) *RuntimeTelemetry {
	if maxHeap == 0 {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
			maxHeap = uint64(limit)
		} else {
			maxHeap = DefaultMaxHeap
		}
	}
	return &RuntimeTelemetry{maxHeap: maxHeap}
}

// MaxHeap returns the configured ceiling.
func (t *RuntimeTelemetry) MaxHeap() uint64 { return t.maxHeap }

// Available implements Telemetry.
func (t *RuntimeTelemetry) Available() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc >= t.maxHeap {
		return 0
	}
	return t.maxHeap - ms.HeapAlloc
}

// FixedTelemetry always reports the same headroom. It is used to simulate
// memory pressure.
type FixedTelemetry uint64

// Available implements Telemetry.
func (f FixedTelemetry) Available() uint64 { return uint64(f) }
