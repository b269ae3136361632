package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/xylab/internal/mcmc"
)

const (
	DefaultChains           = 4
	DefaultIterations       = 5000
	DefaultTargetAccept     = 0.8
	DefaultMaxTreeDepth     = 15
	DefaultCoupling         = 1.0
	DefaultVorticitySamples = 1000
	DefaultVortexThreshold  = 1.0
)

// Config describes one temperature/lattice-size sweep.
type Config struct {
	// Sizes lists the square lattice side lengths to sweep.
	Sizes []int `yaml:"sizes"`
	// Temps defines the temperature grid.
	Temps TempGrid `yaml:"temps"`
	// Engine selects the sampler: "hmc" or "metropolis".
	Engine string `yaml:"engine"`

	Chains       int     `yaml:"chains"`
	Iterations   int     `yaml:"iterations"`
	Warmup       int     `yaml:"warmup"`
	TargetAccept float64 `yaml:"target_accept"`
	MaxTreeDepth int     `yaml:"max_tree_depth"`

	// Coupling is the interaction sign/strength J.
	Coupling float64 `yaml:"coupling"`
	Seed     int64   `yaml:"seed"`

	// VorticitySamples caps how many draws feed the vortex density
	// estimate per point.
	VorticitySamples int     `yaml:"vorticity_samples"`
	VortexThreshold  float64 `yaml:"vortex_threshold"`

	// WarmStart seeds each temperature's chains with the final draws
	// of the previous, cooler one.
	WarmStart bool `yaml:"warm_start"`
}

// TempGrid is either an explicit list of temperatures or a closed
// [Min, Max] range walked in Step increments.
type TempGrid struct {
	Min  float64   `yaml:"min"`
	Max  float64   `yaml:"max"`
	Step float64   `yaml:"step"`
	List []float64 `yaml:"list"`
}

// Values expands the grid. The explicit list wins when both are set.
func (g TempGrid) Values() []float64 {
	if len(g.List) > 0 {
		return append([]float64(nil), g.List...)
	}
	if g.Step <= 0 {
		return nil
	}
	var out []float64
	for t := g.Min; t <= g.Max+1e-9; t += g.Step {
		out = append(out, t)
	}
	return out
}

func Default() *Config {
	return &Config{
		Sizes:            []int{4},
		Temps:            TempGrid{Min: 0.1, Max: 2.0, Step: 0.1},
		Engine:           "hmc",
		Chains:           DefaultChains,
		Iterations:       DefaultIterations,
		TargetAccept:     DefaultTargetAccept,
		MaxTreeDepth:     DefaultMaxTreeDepth,
		Coupling:         DefaultCoupling,
		VorticitySamples: DefaultVorticitySamples,
		VortexThreshold:  DefaultVortexThreshold,
		WarmStart:        true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate fails fast on malformed sweep input, before any sampling
// begins.
func (c *Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("no lattice sizes configured")
	}
	for _, n := range c.Sizes {
		if n < 1 {
			return fmt.Errorf("lattice size must be positive, got %d", n)
		}
	}
	temps := c.Temps.Values()
	if len(temps) == 0 {
		return fmt.Errorf("no temperatures configured")
	}
	for _, t := range temps {
		if t <= 0 {
			return fmt.Errorf("temperature must be positive, got %g", t)
		}
	}
	if c.Chains < 1 {
		return fmt.Errorf("chains must be positive, got %d", c.Chains)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must be non-negative, got %d", c.Warmup)
	}
	if c.TargetAccept <= 0 || c.TargetAccept >= 1 {
		return fmt.Errorf("target_accept must be in (0, 1), got %g", c.TargetAccept)
	}
	if c.MaxTreeDepth < 1 || c.MaxTreeDepth > mcmc.MaxTreeDepthLimit {
		return fmt.Errorf("max_tree_depth must be in [1, %d], got %d", mcmc.MaxTreeDepthLimit, c.MaxTreeDepth)
	}
	if c.Coupling == 0 {
		return fmt.Errorf("coupling must be non-zero")
	}
	switch c.Engine {
	case "hmc", "metropolis":
	default:
		return fmt.Errorf("unknown engine: %s", c.Engine)
	}
	return nil
}
