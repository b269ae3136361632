// Package mcmc provides Markov chain Monte Carlo sampling engines and
// their convergence diagnostics.
//
// The package defines the contract between a probabilistic model and a
// sampler:
//
//   - [Target]: parameter dimension plus unnormalized log density
//   - [GradTarget]: adds an analytic gradient for Hamiltonian methods
//   - [Engine]: runs independent chains and returns their draw history
//   - [Summary]: pooled statistics with split-Rhat and effective
//     sample size
//
// # Example
//
//	tgt := xy.NewTarget(model, temp)
//	run, _ := mcmc.HMC{}.Run(ctx, tgt, mcmc.Config{Chains: 4, Iters: 5000})
//	s := run.Summarize(energyPerSpin)
//
// # Thread Safety
//
// Engines are stateless and safe for concurrent use. Chains within one
// Run execute in parallel goroutines with no shared mutable state;
// results are merged only after every chain completes.
package mcmc
