package transfer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"

	"github.com/ironsheep/color-transfer/internal/imaging"
)

// Tier is one step of the fallback ladder.
type Tier int

// Ladder tiers, from most to least expensive. Tier720Sequential differs
// from Tier720 only by dropping the per-chunk cost of a parallel run; it
// matters when that margin decides the fit, or after Tier720 failed with a
// real allocation panic.
const (
	TierFull Tier = iota
	Tier1920
	Tier1080
	Tier720
	Tier720Sequential
)

// TierSpec describes how a tier processes an image.
type TierSpec struct {
	// MaxDim is the working long edge; 0 keeps the original resolution.
	MaxDim int
	// Mode is the executor mode used at this tier.
	Mode ExecMode
}

var ladder = [...]TierSpec{
	TierFull:          {MaxDim: 0, Mode: ExecAuto},
	Tier1920:          {MaxDim: 1920, Mode: ExecAuto},
	Tier1080:          {MaxDim: 1080, Mode: ExecAuto},
	Tier720:           {MaxDim: 720, Mode: ExecAuto},
	Tier720Sequential: {MaxDim: 720, Mode: ExecSequential},
}

// LadderLength is the maximum number of attempts a transfer makes.
const LadderLength = len(ladder)

// Spec returns the processing parameters of t.
func (t Tier) Spec() TierSpec { return ladder[t] }

// String returns a short name such as "full" or "1080px".
func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case Tier720Sequential:
		return "720px-sequential"
	default:
		if t < 0 || int(t) >= LadderLength {
			return fmt.Sprintf("tier(%d)", int(t))
		}
		return fmt.Sprintf("%dpx", ladder[t].MaxDim)
	}
}

// Next returns the tier to try after t failed with err. Only resource
// exhaustion advances the ladder; any other error, or exhaustion at the
// last tier, gives up and reports false.
func Next(t Tier, err error) (Tier, bool) {
	if err == nil || !errors.Is(err, ErrResourceExhausted) {
		return t, false
	}
	if t < TierFull || int(t) >= LadderLength-1 {
		return t, false
	}
	return t + 1, true
}

const (
	// Sampling budgets under memory pressure.
	lowMemorySampleSize      = 512
	criticalMemorySampleSize = 256
	lowMemoryHeadroom        = 256 * MiB
	criticalMemoryHeadroom   = 64 * MiB

	// attemptSlack covers statistics, uniforms and logging per attempt.
	attemptSlack = 256 << 10
)

// Governor decides budgets from available memory and drives the fallback
// ladder.
type Governor struct {
	cfg       Config
	telemetry Telemetry
	exec      *Executor
}

// NewGovernor returns a governor reading headroom from telemetry.
func NewGovernor(cfg Config, telemetry Telemetry) *Governor {
	cfg = cfg.withDefaults()
	return &Governor{cfg: cfg, telemetry: telemetry, exec: NewExecutor(cfg)}
}

// Executor returns the CPU executor used by the governor.
func (g *Governor) Executor() *Executor { return g.exec }

// SampleBudget returns the statistics sampling budget for the current
// headroom.
func (g *Governor) SampleBudget() int {
	return g.sampleBudget(g.telemetry.Available())
}

func (g *Governor) sampleBudget(avail uint64) int {
	budget := g.cfg.SampleSize
	switch {
	case avail < criticalMemoryHeadroom:
		budget = min(budget, criticalMemorySampleSize)
	case avail < lowMemoryHeadroom:
		budget = min(budget, lowMemorySampleSize)
	}
	return budget
}

// plan describes how one attempt turns an input into its working buffer.
type plan struct {
	srcW, srcH int
	w, h       int
	maxDim     int
	downscaled bool
	buffer     bool // input is a *PixelBuffer
	direct     bool // a *PixelBuffer read in place
	nrgba      bool // an *image.NRGBA packed without conversion
}

func newPlan(input image.Image, maxDim int) plan {
	b := input.Bounds()
	p := plan{srcW: b.Dx(), srcH: b.Dy(), maxDim: maxDim}
	p.w, p.h = imaging.FitDims(p.srcW, p.srcH, maxDim)
	p.downscaled = p.w != p.srcW || p.h != p.srcH
	_, p.buffer = input.(*imaging.PixelBuffer)
	if !p.downscaled {
		p.direct = p.buffer
		_, p.nrgba = input.(*image.NRGBA)
	}
	return p
}

func (p plan) pixels() int { return p.w * p.h }

// cost returns the heap bytes the attempt allocates before execution mode
// overhead: the resampler passes or the NRGBA conversion, the working
// buffer, the statistics downscale and the output buffer.
func (p plan) cost(sampleBudget int) uint64 {
	px := imaging.PixelBytes(p.w, p.h)
	var n uint64
	switch {
	case p.downscaled:
		n += imaging.ResampleBytes(p.srcW, p.srcH, p.maxDim, p.buffer) + px
	case p.direct:
	case p.nrgba:
		n += px
	default:
		n += 2 * px
	}
	n += imaging.SamplingBytes(p.w, p.h, sampleBudget, p.direct)
	return n + px
}

// prepare produces the working buffer and the image statistics are taken
// from. They hold the same pixels; the statistics source stays NRGBA where
// one exists so the sampler can read it without another conversion.
func (p plan) prepare(input image.Image) (*imaging.PixelBuffer, image.Image, error) {
	switch {
	case p.downscaled:
		small := imaging.Resample(input, p.maxDim)
		work, err := imaging.FromImage(small)
		return work, small, err
	case p.direct:
		pb := input.(*imaging.PixelBuffer)
		return pb, pb, nil
	default:
		src := imaging.AsNRGBA(input)
		work, err := imaging.FromImage(src)
		return work, src, err
	}
}

// estimate returns the plan's cost plus mode overhead, resolving ExecAuto
// from the headroom left after the cost.
func (g *Governor) estimate(p plan, mode ExecMode, avail uint64) (uint64, ExecMode) {
	need := p.cost(g.sampleBudget(avail)) + attemptSlack
	if mode == ExecAuto {
		mode = ExecSequential
		if need < avail {
			mode = g.exec.ChooseMode(p.pixels(), avail-need)
		}
	}
	return need + g.exec.Overhead(p.pixels(), mode), mode
}

// Transfer applies the reference statistics to input, walking the fallback
// ladder on resource exhaustion. Each tier is attempted once, so at most
// LadderLength attempts are made.
func (g *Governor) Transfer(ctx context.Context, input image.Image, reference ImageStatistics, intensity float32) (*imaging.PixelBuffer, Tier, error) {
	if err := validateInput(input); err != nil {
		return nil, TierFull, err
	}

	tier := TierFull
	for {
		out, err := g.attempt(ctx, input, reference, intensity, tier)
		if err == nil {
			return out, tier, nil
		}
		next, ok := Next(tier, err)
		if !ok {
			return nil, tier, err
		}
		Logger().Warn("transfer tier failed, falling back",
			"tier", tier.String(), "next", next.String(), "error", err)
		tier = next
	}
}

func (g *Governor) attempt(ctx context.Context, input image.Image, reference ImageStatistics, intensity float32, tier Tier) (out *imaging.PixelBuffer, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spec := tier.Spec()
	p := newPlan(input, spec.MaxDim)
	avail := g.telemetry.Available()
	need, mode := g.estimate(p, spec.Mode, avail)
	if need > avail {
		return nil, fmt.Errorf("%w: tier %s needs %d MiB, %d MiB available",
			ErrResourceExhausted, tier, need/MiB, avail/MiB)
	}

	// An allocation that cannot be satisfied panics rather than returning;
	// surface it as exhaustion so the ladder can continue.
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok || !isAllocationPanic(re) {
				panic(r)
			}
			out, err = nil, fmt.Errorf("%w: tier %s: %v", ErrResourceExhausted, tier, r)
		}
	}()

	work, statsSrc, err := p.prepare(input)
	if err != nil {
		return nil, err
	}

	budget := g.sampleBudget(avail - need)
	inStats, err := ComputeStatistics(statsSrc, budget)
	if err != nil {
		return nil, err
	}

	Logger().Debug("transfer attempt",
		"tier", tier.String(), "width", work.Width, "height", work.Height,
		"mode", mode.String(), "sample_budget", budget, "estimate_mib", need/MiB)

	kernel := NewKernel(NewParameters(inStats, reference), intensity)
	return g.exec.Run(ctx, work, kernel, mode)
}

// isAllocationPanic reports whether a runtime panic came from an impossible
// allocation size.
func isAllocationPanic(err runtime.Error) bool {
	msg := err.Error()
	return strings.Contains(msg, "makeslice") || strings.Contains(msg, "growslice")
}

// validateInput rejects images that must not enter the ladder.
func validateInput(input image.Image) error {
	if input == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidBuffer)
	}
	if pb, ok := input.(*imaging.PixelBuffer); ok {
		return pb.Validate()
	}
	if input.Bounds().Empty() {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidBuffer, input.Bounds())
	}
	return nil
}
