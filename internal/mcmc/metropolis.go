package mcmc

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

// Metropolis is a gradient-free engine: one iteration is a sweep of
// single-site random-walk proposals with the classic exp(delta)
// acceptance rule. The proposal width adapts toward the configured
// acceptance rate during warmup.
type Metropolis struct {
	// Step is the initial half-width of the uniform proposal. Zero
	// means 1.0.
	Step float64
}

func (Metropolis) Name() string { return "metropolis" }

func (m Metropolis) Run(ctx context.Context, t Target, cfg Config) (*Run, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(t.Dim()); err != nil {
		return nil, err
	}

	chains := make([]Chain, cfg.Chains)
	errs := make([]error, cfg.Chains)

	var wg sync.WaitGroup
	for c := 0; c < cfg.Chains; c++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + int64(idx)))
			var init []float64
			if idx < len(cfg.Init) {
				init = cfg.Init[idx]
			}
			chains[idx], errs[idx] = m.runChain(ctx, t, cfg, rng, init)
		}(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &Run{Chains: chains}, nil
}

func (m Metropolis) runChain(ctx context.Context, t Target, cfg Config, rng *rand.Rand, init []float64) (Chain, error) {
	dim := t.Dim()

	x := make([]float64, dim)
	if init != nil {
		copy(x, init)
	} else {
		for i := range x {
			x[i] = 2 * math.Pi * rng.Float64()
		}
	}

	local, hasLocal := t.(LocalTarget)
	logp := t.LogDensity(x)

	step := m.Step
	if step == 0 {
		step = 1.0
	}

	chain := Chain{
		Draws:      make([][]float64, 0, cfg.Iters),
		LogDensity: make([]float64, 0, cfg.Iters),
	}

	total := cfg.Warmup + cfg.Iters
	for iter := 0; iter < total; iter++ {
		select {
		case <-ctx.Done():
			return chain, ctx.Err()
		default:
		}

		sweepAccepted := 0
		for s := 0; s < dim; s++ {
			i := rng.Intn(dim)
			v := x[i] + (2*rng.Float64()-1)*step

			var delta float64
			if hasLocal {
				delta = local.DeltaLogDensity(x, i, v)
			} else {
				old := x[i]
				x[i] = v
				delta = t.LogDensity(x) - logp
				x[i] = old
			}

			if delta >= 0 || rng.Float64() < math.Exp(delta) {
				x[i] = v
				logp += delta
				sweepAccepted++
			}
		}

		if iter < cfg.Warmup {
			// Nudge the proposal width toward the target rate; the
			// damping keeps late warmup adjustments small.
			rate := float64(sweepAccepted) / float64(dim)
			step *= math.Exp((rate - cfg.TargetAccept) / math.Sqrt(float64(iter+1)))
			continue
		}

		chain.Steps += dim
		chain.Accepted += sweepAccepted
		chain.Draws = append(chain.Draws, append([]float64(nil), x...))
		chain.LogDensity = append(chain.LogDensity, logp)
	}

	return chain, nil
}
