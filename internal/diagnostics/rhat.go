// Package diagnostics computes MCMC convergence diagnostics: split R-hat
// and bulk effective sample size. Both are warning signals, not gates:
// poor values degrade confidence in the posterior but never block
// downstream use of the trace.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Warning thresholds. R-hat above RHatThreshold means the chains have
// not mixed; ESS below ESSThreshold means the posterior estimate is
// noisy.
const (
	RHatThreshold = 1.05
	ESSThreshold  = 400
)

// SplitRHat computes the potential scale reduction factor over the given
// chains, each chain split in half so within-chain drift also shows up.
// Values near 1.0 indicate convergence. Returns NaN when the input is
// degenerate (fewer than two splits or constant chains).
func SplitRHat(chains [][]float64) float64 {
	splits := splitChains(chains)
	m := len(splits)
	if m < 2 {
		return math.NaN()
	}
	n := len(splits[0])
	if n < 2 {
		return math.NaN()
	}

	chainMeans := make([]float64, m)
	chainVars := make([]float64, m)
	for i, c := range splits {
		chainMeans[i] = stat.Mean(c, nil)
		chainVars[i] = stat.Variance(c, nil)
	}

	w := stat.Mean(chainVars, nil)                      // within-chain variance
	b := float64(n) * stat.Variance(chainMeans, nil)    // between-chain variance
	varPlus := float64(n-1)/float64(n)*w + b/float64(n) // marginal posterior variance estimate

	if w <= 0 {
		return math.NaN()
	}
	return math.Sqrt(varPlus / w)
}

// splitChains halves each chain, discarding the middle draw of
// odd-length chains.
func splitChains(chains [][]float64) [][]float64 {
	out := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		half := len(c) / 2
		if half == 0 {
			continue
		}
		out = append(out, c[:half], c[len(c)-half:])
	}
	return out
}
