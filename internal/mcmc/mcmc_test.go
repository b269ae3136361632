package mcmc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gaussian is a standard normal target in d dimensions.
type gaussian struct{ d int }

func (g gaussian) Dim() int { return g.d }

func (g gaussian) LogDensity(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return -0.5 * s
}

func (g gaussian) Grad(x, grad []float64) float64 {
	for i, v := range x {
		grad[i] = -v
	}
	return g.LogDensity(x)
}

func (g gaussian) DeltaLogDensity(x []float64, i int, v float64) float64 {
	return -0.5 * (v*v - x[i]*x[i])
}

// flat has no gradient, for the ErrNoGradient path.
type flat struct{}

func (flat) Dim() int                     { return 1 }
func (flat) LogDensity([]float64) float64 { return 0 }

func testConfig() Config {
	return Config{
		Chains:       4,
		Iters:        600,
		Warmup:       400,
		TargetAccept: 0.8,
		MaxTreeDepth: 4,
		Seed:         42,
		Init:         [][]float64{{0, 0}, {1, 1}, {-1, 1}, {0.5, -0.5}},
	}
}

func checkGaussianRun(t *testing.T, run *Run) {
	t.Helper()
	require.Len(t, run.Chains, 4)
	for _, c := range run.Chains {
		require.Len(t, c.Draws, 600)
		require.Len(t, c.LogDensity, 600)
	}

	first := run.Summarize(func(d []float64) float64 { return d[0] })
	assert.InDelta(t, 0.0, first.Mean, 0.25)
	assert.InDelta(t, 1.0, first.Variance, 0.5)
	assert.False(t, first.LowConfidence(), "rhat=%.3f ess=%.0f", first.Rhat, first.ESS)
}

func TestHMCSamplesGaussian(t *testing.T) {
	run, err := HMC{}.Run(context.Background(), gaussian{d: 2}, testConfig())
	require.NoError(t, err)
	checkGaussianRun(t, run)
}

func TestMetropolisSamplesGaussian(t *testing.T) {
	run, err := Metropolis{}.Run(context.Background(), gaussian{d: 2}, testConfig())
	require.NoError(t, err)
	checkGaussianRun(t, run)
}

func TestHMCRequiresGradient(t *testing.T) {
	_, err := HMC{}.Run(context.Background(), flat{}, Config{})
	assert.ErrorIs(t, err, ErrNoGradient)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		want error
	}{
		{"negative chains", func(c *Config) { c.Chains = -1 }, ErrBadConfig},
		{"negative iters", func(c *Config) { c.Iters = -5 }, ErrBadConfig},
		{"accept too high", func(c *Config) { c.TargetAccept = 1.5 }, ErrBadConfig},
		{"negative tree depth", func(c *Config) { c.MaxTreeDepth = -1 }, ErrBadConfig},
		{"tree depth overflows shift", func(c *Config) { c.MaxTreeDepth = 63 }, ErrBadConfig},
		{"init dim mismatch", func(c *Config) { c.Init = [][]float64{{1, 2, 3}} }, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Init = nil
			tt.mut(&cfg)
			_, err := Metropolis{}.Run(context.Background(), gaussian{d: 2}, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHMCRejectsBadTreeDepth(t *testing.T) {
	for _, depth := range []int{-1, 63} {
		cfg := testConfig()
		cfg.MaxTreeDepth = depth
		_, err := HMC{}.Run(context.Background(), gaussian{d: 2}, cfg)
		assert.ErrorIs(t, err, ErrBadConfig)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Metropolis{}.Run(ctx, gaussian{d: 2}, testConfig())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAcceptRateNearTarget(t *testing.T) {
	cfg := testConfig()
	run, err := Metropolis{}.Run(context.Background(), gaussian{d: 2}, cfg)
	require.NoError(t, err)

	for _, c := range run.Chains {
		assert.InDelta(t, cfg.TargetAccept, c.AcceptRate(), 0.2)
	}
}

func TestChainLast(t *testing.T) {
	var empty Chain
	assert.Nil(t, empty.Last())

	c := Chain{Draws: [][]float64{{1}, {2}}}
	assert.Equal(t, []float64{2}, c.Last())
}
