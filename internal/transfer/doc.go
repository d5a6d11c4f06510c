// Package transfer implements statistical color transfer: it measures the
// Lab distribution of a reference photograph and reshapes a target image's
// distribution to match it.
//
// # Algorithm
//
// Both images are reduced to a sampling budget and measured per Lab channel
// (mean and population standard deviation). Each target pixel is then
// normalized against the target distribution, rescaled to the reference
// distribution and blended with the original by an intensity factor:
//
//	out = v + ((v-μin)/σin·σref + μref - v) · t
//
// Channels whose standard deviation is below 1e-3 are treated as flat and
// move toward the reference mean.
//
// # Execution
//
// Two backends implement Filter: the CPU executor, which runs sequentially or
// in disjoint parallel chunks, and the GPU shader in package gpu. Engine
// dispatches between them; Transfer always runs on the CPU and is the path
// for full-resolution output.
//
// # Memory Pressure
//
// The Governor reads available heap from a Telemetry source, lowers the
// sampling budget under pressure and walks a fixed ladder of working
// resolutions (full, 1920, 1080, 720, then 720 sequential) when a tier
// would not fit. The ladder never retries a tier and always terminates.
//
// # Caching
//
// Reference statistics are kept in a bounded LRU owned by the Engine and
// keyed by the reference's storage path.
package transfer
