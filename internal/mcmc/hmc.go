package mcmc

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

// HMC is a Hamiltonian Monte Carlo engine with leapfrog integration,
// jittered trajectory lengths, and dual-averaging step-size adaptation
// toward the configured acceptance rate. It requires a GradTarget.
type HMC struct{}

func (HMC) Name() string { return "hmc" }

func (h HMC) Run(ctx context.Context, t Target, cfg Config) (*Run, error) {
	gt, ok := t.(GradTarget)
	if !ok {
		return nil, ErrNoGradient
	}

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
			chains[idx], errs[idx] = h.runChain(ctx, gt, cfg, rng, init)
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

func (h HMC) runChain(ctx context.Context, gt GradTarget, cfg Config, rng *rand.Rand, init []float64) (Chain, error) {
	dim := gt.Dim()

	theta := make([]float64, dim)
	if init != nil {
		copy(theta, init)
	} else {
		for i := range theta {
			theta[i] = 2 * math.Pi * rng.Float64()
		}
	}

	grad := make([]float64, dim)
	logp := gt.Grad(theta, grad)

	// Dual averaging state (Hoffman & Gelman 2014, section 3.2).
	eps := cfg.StepSize
	mu := math.Log(10 * eps)
	logEpsBar := 0.0
	hBar := 0.0
	const gamma, t0, kappa = 0.05, 10.0, 0.75

	// Trajectory cap; depth is validated to [1, MaxTreeDepthLimit].
	maxLeap := 1024
	if cfg.MaxTreeDepth < 10 {
		maxLeap = 1 << cfg.MaxTreeDepth
	}

	chain := Chain{
		Draws:      make([][]float64, 0, cfg.Iters),
		LogDensity: make([]float64, 0, cfg.Iters),
	}

	r := make([]float64, dim)
	propTheta := make([]float64, dim)
	propGrad := make([]float64, dim)

	total := cfg.Warmup + cfg.Iters
	for iter := 0; iter < total; iter++ {
		select {
		case <-ctx.Done():
			return chain, ctx.Err()
		default:
		}

		for i := range r {
			r[i] = rng.NormFloat64()
		}
		kin0 := 0.0
		for _, v := range r {
			kin0 += v * v
		}
		h0 := logp - 0.5*kin0

		copy(propTheta, theta)
		copy(propGrad, grad)
		propLogp := logp

		steps := 1 + rng.Intn(maxLeap)
		for s := 0; s < steps; s++ {
			for i := range r {
				r[i] += 0.5 * eps * propGrad[i]
			}
			for i := range propTheta {
				propTheta[i] += eps * r[i]
			}
			propLogp = gt.Grad(propTheta, propGrad)
			for i := range r {
				r[i] += 0.5 * eps * propGrad[i]
			}
		}

		kin1 := 0.0
		for _, v := range r {
			kin1 += v * v
		}
		h1 := propLogp - 0.5*kin1

		alpha := math.Exp(h1 - h0)
		if math.IsNaN(alpha) {
			// Divergent trajectory: reject outright.
			alpha = 0
		}
		if alpha > 1 {
			alpha = 1
		}

		accepted := rng.Float64() < alpha
		if accepted {
			copy(theta, propTheta)
			copy(grad, propGrad)
			logp = propLogp
		}

		if iter < cfg.Warmup {
			m := float64(iter + 1)
			hBar = (1-1/(m+t0))*hBar + (cfg.TargetAccept-alpha)/(m+t0)
			logEps := mu - math.Sqrt(m)/gamma*hBar
			w := math.Pow(m, -kappa)
			logEpsBar = w*logEps + (1-w)*logEpsBar
			eps = math.Exp(logEps)
			if iter == cfg.Warmup-1 {
				eps = math.Exp(logEpsBar)
			}
			continue
		}

		chain.Steps++
		if accepted {
			chain.Accepted++
		}
		chain.Draws = append(chain.Draws, append([]float64(nil), theta...))
		chain.LogDensity = append(chain.LogDensity, logp)
	}

	return chain, nil
}
