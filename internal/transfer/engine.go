package transfer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/statcache"
)

// StatsCache is the reference-statistics cache type used by the engine.
type StatsCache = statcache.Cache[string, ImageStatistics]

// Option configures an Engine during creation.
type Option func(*engineOptions)

type engineOptions struct {
	cfg       Config
	telemetry Telemetry
	gpu       Filter
	loader    imaging.Loader
	cache     *StatsCache
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *engineOptions) { o.cfg = cfg }
}

// WithTelemetry sets the memory telemetry source.
// The default measures the Go runtime heap.
func WithTelemetry(t Telemetry) Option {
	return func(o *engineOptions) { o.telemetry = t }
}

// WithGPU sets the filter used by TransferGPU and Preview.
// Without it, TransferGPU always reports ErrUnavailable.
func WithGPU(f Filter) Option {
	return func(o *engineOptions) { o.gpu = f }
}

// WithLoader sets the loader used on reference-cache misses.
// The default decodes from the local filesystem.
func WithLoader(l imaging.Loader) Option {
	return func(o *engineOptions) { o.loader = l }
}

// WithCache injects a pre-built statistics cache, for example one shared
// between engines.
func WithCache(c *StatsCache) Option {
	return func(o *engineOptions) { o.cache = c }
}

// Engine is the color-transfer entry point.
//
// An Engine owns its reference-statistics cache; no state is global. All
// methods are safe for concurrent use. Per-request buffers, statistics and
// uniforms are never shared between calls.
type Engine struct {
	cfg      Config
	governor *Governor
	cpu      *CPUFilter
	gpu      Filter
	loader   imaging.Loader
	cache    *StatsCache

	pairMu     sync.Mutex
	pairTarget string
	pairRef    string
}

// New creates an Engine.
//
// Example:
//
//	shader := gpu.NewShaderFilter(gpu.NewSoftwareHost())
//	_ = shader.Init(ctx) // unavailable filters fall back to the CPU
//	eng := transfer.New(transfer.WithGPU(shader))
//	ref, err := eng.CachedReferenceStats("/photos/reference.jpg")
//	out, err := eng.Transfer(ctx, img, ref, transfer.DefaultIntensity)
func New(opts ...Option) *Engine {
	o := engineOptions{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg.withDefaults()
	if o.telemetry == nil {
		o.telemetry = NewRuntimeTelemetry(0)
	}
	if o.loader == nil {
		o.loader = imaging.NewFileLoader()
	}
	if o.cache == nil {
		o.cache = statcache.New(cfg.CacheCapacity, statcache.WithEvictHook[string, ImageStatistics](func(key string) {
			Logger().Debug("reference statistics evicted", "key", key)
		}))
	}

	gov := NewGovernor(cfg, o.telemetry)
	return &Engine{
		cfg:      cfg,
		governor: gov,
		cpu:      NewCPUFilter(gov.Executor(), o.telemetry),
		gpu:      o.gpu,
		loader:   o.loader,
		cache:    o.cache,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Governor returns the memory governor.
func (e *Engine) Governor() *Governor { return e.governor }

// Cache returns the reference-statistics cache.
func (e *Engine) Cache() *StatsCache { return e.cache }

// ComputeStatistics measures img with the governor's current sampling budget.
func (e *Engine) ComputeStatistics(img image.Image) (ImageStatistics, error) {
	return ComputeStatistics(img, e.governor.SampleBudget())
}

// Transfer applies reference statistics to input on the CPU and returns a
// new buffer. input is never modified.
//
// Resource exhaustion is recovered by the fallback ladder; the result may be
// smaller than input when a reduced tier succeeded. When every tier fails
// the error wraps ErrResourceExhausted and the caller should keep the
// original image.
func (e *Engine) Transfer(ctx context.Context, input image.Image, reference ImageStatistics, intensity float32) (*imaging.PixelBuffer, error) {
	out, tier, err := e.governor.Transfer(ctx, input, reference, intensity)
	if err != nil {
		return nil, err
	}
	if tier != TierFull {
		Logger().Info("transfer completed at reduced tier", "tier", tier.String(),
			"width", out.Width, "height", out.Height)
	}
	return out, nil
}

// TransferGPU measures both images concurrently and runs the transfer on the
// GPU filter. It returns ErrUnavailable when no GPU filter is configured or
// the filter cannot run; callers then fall back to Transfer.
func (e *Engine) TransferGPU(ctx context.Context, input, reference image.Image, intensity float32) (*imaging.PixelBuffer, error) {
	if e.gpu == nil || !e.gpu.Available() {
		return nil, ErrUnavailable
	}
	return e.applyFilter(ctx, e.gpu, input, reference, intensity)
}

// Preview produces an interactive-quality result on the GPU filter when it
// is available and on the CPU filter otherwise. Both receive the same
// Parameters.
func (e *Engine) Preview(ctx context.Context, input, reference image.Image, intensity float32) (*imaging.PixelBuffer, error) {
	if e.gpu != nil && e.gpu.Available() {
		out, err := e.applyFilter(ctx, e.gpu, input, reference, intensity)
		if !errors.Is(err, ErrUnavailable) {
			return out, err
		}
		Logger().Warn("gpu filter failed, using cpu", "filter", e.gpu.Name(), "error", err)
	}
	return e.applyFilter(ctx, e.cpu, input, reference, intensity)
}

// CPU returns the always-available CPU filter.
func (e *Engine) CPU() Filter { return e.cpu }

// PreviewBackend names the filter Preview would use right now.
func (e *Engine) PreviewBackend() string {
	if e.gpu != nil && e.gpu.Available() {
		return e.gpu.Name()
	}
	return e.cpu.Name()
}

// applyFilter measures input and reference concurrently and hands a copy of
// input to f.
func (e *Engine) applyFilter(ctx context.Context, f Filter, input, reference image.Image, intensity float32) (*imaging.PixelBuffer, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	inStats, refStats, err := ComputeStatisticsPair(ctx, input, reference, e.governor.SampleBudget())
	if err != nil {
		return nil, err
	}

	// A GPU host fills its texture in place, so filters always get a copy.
	src, err := imaging.FromImage(input)
	if err != nil {
		return nil, err
	}
	return f.Apply(ctx, src, NewParameters(inStats, refStats), intensity)
}

// CachedReferenceStats returns the statistics of the reference image
// identified by key, loading and measuring it on a cache miss.
// An unreadable reference yields an error wrapping ErrNoReference.
func (e *Engine) CachedReferenceStats(key string) (ImageStatistics, error) {
	return e.cache.GetOrLoad(key, func() (ImageStatistics, error) {
		img, err := e.loader.Load(key)
		if err != nil {
			return ImageStatistics{}, fmt.Errorf("%w: %s: %v", ErrNoReference, key, err)
		}
		stats, err := e.ComputeStatistics(img)
		if err != nil {
			return ImageStatistics{}, fmt.Errorf("%w: %s: %v", ErrNoReference, key, err)
		}
		return stats, nil
	})
}

// TransferWithReference looks up the cached statistics for referenceKey and
// applies them to input. When the reference cannot be read the transfer is
// skipped and the error wraps ErrNoReference.
func (e *Engine) TransferWithReference(ctx context.Context, input image.Image, referenceKey string, intensity float32) (*imaging.PixelBuffer, error) {
	ref, err := e.CachedReferenceStats(referenceKey)
	if err != nil {
		return nil, err
	}
	return e.Transfer(ctx, input, ref, intensity)
}

// SetPairing records the current target/reference pair. When it differs from
// the previous pair the statistics cache is cleared.
func (e *Engine) SetPairing(target, reference string) {
	e.pairMu.Lock()
	changed := e.pairTarget != target || e.pairRef != reference
	e.pairTarget, e.pairRef = target, reference
	e.pairMu.Unlock()

	if changed {
		e.cache.Clear()
	}
}

// ClearCache drops every cached reference statistic.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}
