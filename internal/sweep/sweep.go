// Package sweep drives the temperature/lattice-size sweep: it runs the
// sampler for every experiment point and reduces the chains to
// thermodynamic and topological observables.
package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/xylab/internal/config"
	"github.com/san-kum/xylab/internal/lattice"
	"github.com/san-kum/xylab/internal/mcmc"
	"github.com/san-kum/xylab/internal/spin"
	"github.com/san-kum/xylab/internal/vortex"
	"github.com/san-kum/xylab/internal/xy"
)

// Point identifies one experiment: a square lattice side length and a
// bath temperature.
type Point struct {
	Size int
	Temp float64
}

// Result is the immutable record of one completed experiment point.
type Result struct {
	Point

	// MeanEnergy and EnergyVar are per-spin statistics over all draws.
	MeanEnergy float64
	EnergyVar  float64
	// SpecificHeat is Var(E_total) / N / T^2.
	SpecificHeat float64
	// VortexDensity is the mean vortex count per site over the
	// vorticity subsample.
	VortexDensity float64

	Rhat float64
	ESS  float64
	// LowConfidence marks diagnostics outside acceptance bounds. The
	// point is reported as-is, never resampled.
	LowConfidence bool
}

// Observer receives each completed point as the sweep progresses.
// Called from worker goroutines; implementations must be safe for
// concurrent use.
type Observer func(Result)

// Driver executes a configured sweep against a sampler engine.
type Driver struct {
	cfg    *config.Config
	engine mcmc.Engine
	obs    Observer
}

func New(cfg *config.Config, engine mcmc.Engine) *Driver {
	return &Driver{cfg: cfg, engine: engine}
}

// SetObserver registers a progress callback.
func (d *Driver) SetObserver(obs Observer) { d.obs = obs }

// EngineFor maps a config engine name to an implementation.
func EngineFor(name string) (mcmc.Engine, error) {
	switch name {
	case "hmc":
		return mcmc.HMC{}, nil
	case "metropolis":
		return mcmc.Metropolis{}, nil
	default:
		return nil, fmt.Errorf("unknown engine: %s", name)
	}
}

// Points expands the configured sweep grid in (size, temperature)
// order.
func (d *Driver) Points() []Point {
	temps := d.cfg.Temps.Values()
	out := make([]Point, 0, len(d.cfg.Sizes)*len(temps))
	for _, n := range d.cfg.Sizes {
		for _, t := range temps {
			out = append(out, Point{Size: n, Temp: t})
		}
	}
	return out
}

// Run validates the configuration and executes every point. Lattice
// sizes fan out across workers bounded by the core count; the
// temperatures within one size run coolest-first so warm starting can
// hand the previous point's final state to the next.
func (d *Driver) Run(ctx context.Context) ([]Result, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	temps := d.cfg.Temps.Values()
	sort.Float64s(temps)

	results := make([][]Result, len(d.cfg.Sizes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for si, size := range d.cfg.Sizes {
		si, size := si, size
		g.Go(func() error {
			lat, err := lattice.Square(size)
			if err != nil {
				return err
			}

			// Coolest temperature starts fully aligned, the reference
			// ground state for a ferromagnetic coupling.
			init := alignedInit(d.cfg.Chains, lat.Sites())

			out := make([]Result, 0, len(temps))
			for _, temp := range temps {
				res, last, err := d.runPoint(ctx, lat, temp, init)
				if err != nil {
					return err
				}
				out = append(out, res)
				if d.obs != nil {
					d.obs(res)
				}
				if d.cfg.WarmStart {
					init = last
				}
			}
			results[si] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []Result
	for _, rs := range results {
		flat = append(flat, rs...)
	}
	return flat, nil
}

func (d *Driver) runPoint(ctx context.Context, lat lattice.Lattice, temp float64, init [][]float64) (Result, [][]float64, error) {
	model := xy.New(lat, d.cfg.Coupling)
	target := xy.NewTarget(model, temp)

	run, err := d.engine.Run(ctx, target, mcmc.Config{
		Chains:       d.cfg.Chains,
		Iters:        d.cfg.Iterations,
		Warmup:       d.cfg.Warmup,
		TargetAccept: d.cfg.TargetAccept,
		MaxTreeDepth: d.cfg.MaxTreeDepth,
		Seed:         d.cfg.Seed + int64(lat.DimX*1000) + int64(temp*1e6),
		Init:         init,
	})
	if err != nil {
		return Result{}, nil, err
	}

	res := Reduce(lat, model, temp, run, d.cfg.VorticitySamples, d.cfg.VortexThreshold)

	last := make([][]float64, len(run.Chains))
	for i, c := range run.Chains {
		last[i] = c.Last()
	}
	return res, last, nil
}

// Reduce merges the chains of one experiment point into its summary
// record. It is a pure reduction over immutable chain histories.
func Reduce(lat lattice.Lattice, model xy.Model, temp float64, run *mcmc.Run, vortSamples int, vortThreshold float64) Result {
	n := float64(lat.Sites())
	target := xy.Target{Model: model, Temp: temp}

	perSpin := run.Summarize(func(draw []float64) float64 {
		return target.EnergyAngles(draw) / n
	})

	// Specific heat uses the variance of the total energy.
	var totals []float64
	for _, c := range run.Chains {
		for _, draw := range c.Draws {
			totals = append(totals, target.EnergyAngles(draw))
		}
	}
	var specificHeat float64
	if len(totals) > 1 {
		specificHeat = stat.Variance(totals, nil) / n / (temp * temp)
	}

	return Result{
		Point:         Point{Size: lat.DimX, Temp: temp},
		MeanEnergy:    perSpin.Mean,
		EnergyVar:     perSpin.Variance,
		SpecificHeat:  specificHeat,
		VortexDensity: meanVortexDensity(lat, run, vortSamples, vortThreshold),
		Rhat:          perSpin.Rhat,
		ESS:           perSpin.ESS,
		LowConfidence: perSpin.LowConfidence(),
	}
}

// meanVortexDensity averages the vortex density over the most recent
// draws of every chain, capped at samples draws in total.
func meanVortexDensity(lat lattice.Lattice, run *mcmc.Run, samples int, threshold float64) float64 {
	if samples <= 0 {
		samples = config.DefaultVorticitySamples
	}
	perChain := samples / len(run.Chains)
	if perChain < 1 {
		perChain = 1
	}

	var sum float64
	var count int
	for _, c := range run.Chains {
		start := len(c.Draws) - perChain
		if start < 0 {
			start = 0
		}
		for _, draw := range c.Draws[start:] {
			cfg := spin.FromAngles(draw)
			sum += vortex.Density(lat, cfg, threshold)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// alignedInit points every spin along +y, matching the reference
// low-temperature starting state.
func alignedInit(chains, sites int) [][]float64 {
	init := make([][]float64, chains)
	for i := range init {
		init[i] = make([]float64, sites)
		for j := range init[i] {
			init[i][j] = math.Pi / 2
		}
	}
	return init
}
