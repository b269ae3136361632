package mcmc

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Convergence acceptance bounds. A scalar whose diagnostics fall
// outside these is reported as low confidence, never retried.
const (
	RhatLowsideBound  = 0.9
	RhatHighsideBound = 1.1
	// MinESSFraction is the smallest acceptable ratio of effective to
	// total sample size.
	MinESSFraction = 0.1
)

// Summary holds pooled statistics and convergence diagnostics for one
// scalar observable across all chains.
type Summary struct {
	Mean     float64
	Variance float64
	Rhat     float64
	ESS      float64
	// Total is the pooled draw count the diagnostics were computed on.
	Total int
}

// LowConfidence reports whether the diagnostics fall outside the
// acceptance bounds.
func (s Summary) LowConfidence() bool {
	if math.IsNaN(s.Rhat) || s.Rhat < RhatLowsideBound || s.Rhat > RhatHighsideBound {
		return true
	}
	return s.ESS < MinESSFraction*float64(s.Total)
}

// Summarize computes mean, variance, split-Rhat and effective sample
// size for a scalar traced across chains.
func Summarize(chains [][]float64) Summary {
	var pooled []float64
	for _, c := range chains {
		pooled = append(pooled, c...)
	}

	s := Summary{Total: len(pooled)}
	if len(pooled) == 0 {
		s.Rhat = math.NaN()
		return s
	}

	s.Mean = stat.Mean(pooled, nil)
	s.Variance = stat.Variance(pooled, nil)
	s.Rhat = Rhat(chains)
	s.ESS = ESS(chains)
	return s
}

// Rhat is the split potential scale reduction statistic: each chain is
// halved, and the pooled-to-within variance ratio is computed over the
// halves. Values near 1 indicate the chains agree.
func Rhat(chains [][]float64) float64 {
	halves := splitChains(chains)
	if len(halves) < 2 {
		return math.NaN()
	}

	n := len(halves[0])
	if n < 2 {
		return math.NaN()
	}

	means := make([]float64, len(halves))
	w := 0.0
	for i, c := range halves {
		means[i] = stat.Mean(c, nil)
		w += stat.Variance(c, nil)
	}
	w /= float64(len(halves))

	b := float64(n) * stat.Variance(means, nil)

	if w == 0 {
		// Zero within-chain variance: identical draws everywhere means
		// perfect agreement, anything else means the chains are stuck
		// apart.
		if b == 0 {
			return 1
		}
		return math.Inf(1)
	}

	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	return math.Sqrt(varPlus / w)
}

// ESS is the autocorrelation-adjusted effective sample size over all
// chains, using Geyer's initial monotone positive sequence on the
// combined autocorrelation estimate.
func ESS(chains [][]float64) float64 {
	chains = truncateToShortest(chains)
	m := len(chains)
	if m == 0 {
		return 0
	}
	n := len(chains[0])
	if n < 4 {
		return float64(m * n)
	}

	acovs := make([][]float64, m)
	means := make([]float64, m)
	w := 0.0
	for i, c := range chains {
		acovs[i] = autocovariance(c)
		means[i] = stat.Mean(c, nil)
		w += acovs[i][0] * float64(n) / float64(n-1)
	}
	w /= float64(m)

	var b float64
	if m > 1 {
		b = float64(n) * stat.Variance(means, nil)
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	if varPlus == 0 {
		return float64(m * n)
	}

	// rho_t = 1 - (W - mean autocovariance at lag t) / varPlus
	rho := make([]float64, n)
	for t := 0; t < n; t++ {
		mean := 0.0
		for i := range acovs {
			mean += acovs[i][t]
		}
		mean /= float64(m)
		rho[t] = 1 - (w-mean)/varPlus
	}

	tau := 1.0
	prevPair := math.Inf(1)
	for t := 1; t+1 < n; t += 2 {
		pair := rho[t] + rho[t+1]
		if pair < 0 {
			break
		}
		// Enforce monotone decrease.
		if pair > prevPair {
			pair = prevPair
		}
		prevPair = pair
		tau += 2 * pair
	}

	ess := float64(m*n) / tau
	if ess > float64(m*n) {
		ess = float64(m * n)
	}
	return ess
}

// autocovariance estimates lag autocovariances via FFT of the centered
// series, zero-padded to avoid circular wraparound.
func autocovariance(x []float64) []float64 {
	n := len(x)
	mean := stat.Mean(x, nil)

	padded := make([]float64, 2*n)
	for i, v := range x {
		padded[i] = v - mean
	}

	f := fft.FFTReal(padded)
	for i := range f {
		f[i] *= cmplx.Conj(f[i])
	}
	inv := fft.IFFT(f)

	out := make([]float64, n)
	for i := range out {
		out[i] = real(inv[i]) / float64(n)
	}
	return out
}

func splitChains(chains [][]float64) [][]float64 {
	out := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		half := len(c) / 2
		if half == 0 {
			continue
		}
		// Drop the middle element of odd-length chains.
		out = append(out, c[:half], c[len(c)-half:])
	}
	return truncateToShortest(out)
}

func truncateToShortest(chains [][]float64) [][]float64 {
	shortest := math.MaxInt
	for _, c := range chains {
		if len(c) < shortest {
			shortest = len(c)
		}
	}
	if shortest == math.MaxInt || shortest == 0 {
		return nil
	}
	out := make([][]float64, len(chains))
	for i, c := range chains {
		out[i] = c[:shortest]
	}
	return out
}
