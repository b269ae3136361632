package mcmc

import "errors"

// Domain errors for sampling runs.
var (
	// ErrBadConfig indicates an invalid run configuration.
	ErrBadConfig = errors.New("mcmc: invalid sampler configuration")

	// ErrDimensionMismatch indicates an initial state whose size does
	// not match the target's parameter dimension.
	ErrDimensionMismatch = errors.New("mcmc: dimension mismatch between init and target")

	// ErrNoGradient indicates a gradient-based engine was given a
	// target without an analytic gradient.
	ErrNoGradient = errors.New("mcmc: target does not provide gradients")
)
