package config

// Presets are named sweep configurations for common experiments.
var Presets = map[string]*Config{
	// quick is a fast smoke-test sweep on a small lattice.
	"quick": {
		Sizes:            []int{4},
		Temps:            TempGrid{Min: 0.5, Max: 2.0, Step: 0.25},
		Engine:           "metropolis",
		Chains:           2,
		Iterations:       1000,
		Warmup:           500,
		TargetAccept:     DefaultTargetAccept,
		MaxTreeDepth:     DefaultMaxTreeDepth,
		Coupling:         1,
		VorticitySamples: 200,
		VortexThreshold:  DefaultVortexThreshold,
		WarmStart:        true,
	},
	// kt-scan resolves the transition region around T ~ 0.9.
	"kt-scan": {
		Sizes:            []int{4, 8, 16},
		Temps:            TempGrid{Min: 0.1, Max: 2.0, Step: 0.1},
		Engine:           "hmc",
		Chains:           DefaultChains,
		Iterations:       DefaultIterations,
		TargetAccept:     0.7,
		MaxTreeDepth:     DefaultMaxTreeDepth,
		Coupling:         1,
		VorticitySamples: DefaultVorticitySamples,
		VortexThreshold:  DefaultVortexThreshold,
		WarmStart:        true,
	},
	// large covers the full set of published lattice sizes.
	"large": {
		Sizes:            []int{4, 8, 16, 24, 32},
		Temps:            TempGrid{Min: 0.1, Max: 2.0, Step: 0.1},
		Engine:           "hmc",
		Chains:           DefaultChains,
		Iterations:       10000,
		TargetAccept:     0.7,
		MaxTreeDepth:     DefaultMaxTreeDepth,
		Coupling:         1,
		VorticitySamples: DefaultVorticitySamples,
		VortexThreshold:  DefaultVortexThreshold,
		WarmStart:        true,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	c.Sizes = append([]int(nil), p.Sizes...)
	return &c
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
