package mcmc

import (
	"context"
	"fmt"
)

// Target is the model description handed to a sampler engine: a
// parameter dimension and an unnormalized log density over those
// parameters.
type Target interface {
	Dim() int
	LogDensity(x []float64) float64
}

// GradTarget is a Target that also provides an analytic gradient,
// required by gradient-based engines. Grad fills grad and returns the
// log density at x.
type GradTarget interface {
	Target
	Grad(x, grad []float64) float64
}

// LocalTarget is a Target that can evaluate the log-density change of
// a single-coordinate update cheaply. Engines fall back to two full
// LogDensity calls when it is not implemented.
type LocalTarget interface {
	Target
	DeltaLogDensity(x []float64, i int, v float64) float64
}

// Engine runs Markov chains against a target. Implementations hold no
// state between calls; all per-chain trajectory state is internal to a
// single Run.
type Engine interface {
	Name() string
	Run(ctx context.Context, t Target, cfg Config) (*Run, error)
}

// MaxTreeDepthLimit bounds Config.MaxTreeDepth. Beyond it the shift
// computing the trajectory cap would overflow.
const MaxTreeDepthLimit = 62

// Config controls one sampling run.
type Config struct {
	// Chains is the number of independent chains. Default 4.
	Chains int
	// Iters is the number of recorded draws per chain. Default 5000.
	Iters int
	// Warmup iterations precede the recorded draws and are used for
	// step-size adaptation. Default Iters/2.
	Warmup int
	// TargetAccept is the acceptance rate the step-size adaptation
	// aims for. Default 0.8.
	TargetAccept float64
	// MaxTreeDepth caps the leapfrog trajectory length at 2^depth,
	// itself capped at 1024 steps, so depths beyond 10 do not lengthen
	// trajectories further. Default 10.
	MaxTreeDepth int
	// StepSize is the initial leapfrog step size. Default 0.1.
	StepSize float64
	// Seed seeds chain c with Seed+c.
	Seed int64
	// Init optionally provides a per-chain initial parameter vector.
	// Chains without one start from a uniform random point.
	Init [][]float64
}

func (c Config) withDefaults() Config {
	if c.Chains == 0 {
		c.Chains = 4
	}
	if c.Iters == 0 {
		c.Iters = 5000
	}
	if c.Warmup == 0 {
		c.Warmup = c.Iters / 2
	}
	if c.TargetAccept == 0 {
		c.TargetAccept = 0.8
	}
	if c.MaxTreeDepth == 0 {
		c.MaxTreeDepth = 10
	}
	if c.StepSize == 0 {
		c.StepSize = 0.1
	}
	return c
}

func (c Config) validate(dim int) error {
	if c.Chains < 1 {
		return fmt.Errorf("%w: chains = %d", ErrBadConfig, c.Chains)
	}
	if c.Iters < 1 {
		return fmt.Errorf("%w: iterations = %d", ErrBadConfig, c.Iters)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("%w: warmup = %d", ErrBadConfig, c.Warmup)
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		return fmt.Errorf("%w: target acceptance %g outside (0, 1)", ErrBadConfig, c.TargetAccept)
	}
	if c.MaxTreeDepth < 1 || c.MaxTreeDepth > MaxTreeDepthLimit {
		return fmt.Errorf("%w: max tree depth %d outside [1, %d]", ErrBadConfig, c.MaxTreeDepth, MaxTreeDepthLimit)
	}
	for i, init := range c.Init {
		if init != nil && len(init) != dim {
			return fmt.Errorf("%w: chain %d init has %d parameters, target has %d",
				ErrDimensionMismatch, i, len(init), dim)
		}
	}
	return nil
}

// Chain is the ordered draw history of one independent sampler run.
type Chain struct {
	// Draws are the recorded parameter vectors, one per iteration.
	Draws [][]float64
	// LogDensity holds the target log density of each draw.
	LogDensity []float64
	// Accepted counts accepted proposals over the recorded phase.
	Accepted int
	// Steps counts proposals over the recorded phase.
	Steps int
}

// AcceptRate is the post-warmup acceptance fraction.
func (c Chain) AcceptRate() float64 {
	if c.Steps == 0 {
		return 0
	}
	return float64(c.Accepted) / float64(c.Steps)
}

// Last returns the final draw, or nil for an empty chain.
func (c Chain) Last() []float64 {
	if len(c.Draws) == 0 {
		return nil
	}
	return c.Draws[len(c.Draws)-1]
}

// Run is the merged, immutable result of all chains. Chains never
// share state while sampling; the merge happens here, after the fact.
type Run struct {
	Chains []Chain
}

// TotalDraws is the number of recorded draws across all chains.
func (r *Run) TotalDraws() int {
	n := 0
	for _, c := range r.Chains {
		n += len(c.Draws)
	}
	return n
}

// Scalar maps every draw through f, preserving chain structure. This
// is how per-draw observables (energy per spin, for one) are derived
// for summary statistics.
func (r *Run) Scalar(f func(draw []float64) float64) [][]float64 {
	out := make([][]float64, len(r.Chains))
	for i, c := range r.Chains {
		vals := make([]float64, len(c.Draws))
		for j, d := range c.Draws {
			vals[j] = f(d)
		}
		out[i] = vals
	}
	return out
}

// Summarize computes summary statistics and convergence diagnostics
// for the scalar observable f over all chains.
func (r *Run) Summarize(f func(draw []float64) float64) Summary {
	return Summarize(r.Scalar(f))
}
