package config

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultChains, cfg.Chains)
	assert.Equal(t, DefaultIterations, cfg.Iterations)
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"no sizes", func(c *Config) { c.Sizes = nil }},
		{"zero size", func(c *Config) { c.Sizes = []int{0} }},
		{"no temps", func(c *Config) { c.Temps = TempGrid{} }},
		{"negative temp", func(c *Config) { c.Temps = TempGrid{List: []float64{-0.5}} }},
		{"zero temp", func(c *Config) { c.Temps = TempGrid{List: []float64{0}} }},
		{"zero chains", func(c *Config) { c.Chains = 0 }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"negative warmup", func(c *Config) { c.Warmup = -1 }},
		{"bad accept", func(c *Config) { c.TargetAccept = 2 }},
		{"negative tree depth", func(c *Config) { c.MaxTreeDepth = -1 }},
		{"huge tree depth", func(c *Config) { c.MaxTreeDepth = 63 }},
		{"zero coupling", func(c *Config) { c.Coupling = 0 }},
		{"bad engine", func(c *Config) { c.Engine = "exact" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTempGridExpansion(t *testing.T) {
	g := TempGrid{Min: 0.1, Max: 0.5, Step: 0.1}
	vals := g.Values()
	require.Len(t, vals, 5)
	assert.InDelta(t, 0.1, vals[0], 1e-12)
	assert.InDelta(t, 0.5, vals[4], 1e-9)
}

func TestTempGridListWins(t *testing.T) {
	g := TempGrid{Min: 0.1, Max: 2, Step: 0.1, List: []float64{0.9, 1.0}}
	assert.Equal(t, []float64{0.9, 1.0}, g.Values())
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	sort.Strings(names)
	require.NotEmpty(t, names)

	for _, name := range names {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
	}

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")

	cfg := Default()
	cfg.Sizes = []int{8, 16}
	cfg.Temps = TempGrid{List: []float64{0.8, 0.9, 1.0}}
	cfg.Engine = "metropolis"
	cfg.Seed = 99

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
