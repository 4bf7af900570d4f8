package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ESSBulk estimates the bulk effective sample size of a parameter across
// chains: the number of independent-equivalent draws once autocorrelation
// is accounted for. Chains are split in half (as for R-hat) and the
// combined autocorrelation uses the multi-chain estimator with Geyer's
// initial monotone positive sequence truncation.
func ESSBulk(chains [][]float64) float64 {
	splits := splitChains(chains)
	m := len(splits)
	if m == 0 {
		return math.NaN()
	}
	n := len(splits[0])
	if n < 4 {
		return math.NaN()
	}

	chainMeans := make([]float64, m)
	chainVars := make([]float64, m)
	for i, c := range splits {
		chainMeans[i] = stat.Mean(c, nil)
		chainVars[i] = stat.Variance(c, nil)
	}
	w := stat.Mean(chainVars, nil)
	varPlus := float64(n-1) / float64(n) * w
	if m > 1 {
		varPlus += stat.Variance(chainMeans, nil)
	}
	if varPlus <= 0 {
		return math.NaN()
	}

	// Mean autocovariance across chains at each lag.
	acov := make([][]float64, m)
	for i, c := range splits {
		acov[i] = autocovariance(c, chainMeans[i])
	}

	rho := make([]float64, n)
	rho[0] = 1
	for t := 1; t < n; t++ {
		meanACov := 0.0
		for i := range acov {
			meanACov += acov[i][t]
		}
		meanACov /= float64(m)
		rho[t] = 1 - (w-meanACov)/varPlus
	}

	// Geyer initial positive sequence: sum consecutive pairs while the
	// pair sums stay positive, enforcing monotone decrease.
	sum := rho[0]
	prevPair := math.Inf(1)
	for t := 1; t+1 < n; t += 2 {
		pair := rho[t] + rho[t+1]
		if pair < 0 {
			break
		}
		if pair > prevPair {
			pair = prevPair
		}
		prevPair = pair
		sum += 2 * pair
	}

	if sum <= 0 {
		return math.NaN()
	}
	ess := float64(m*n) / sum
	// The estimator can exceed the raw draw count for antithetic chains;
	// cap so the number stays interpretable.
	if max := float64(m * n); ess > max {
		ess = max
	}
	return ess
}

// autocovariance computes the biased (1/n) autocovariance function of x
// around the given mean.
func autocovariance(x []float64, mean float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for t := 0; t < n; t++ {
		s := 0.0
		for i := 0; i+t < n; i++ {
			s += (x[i] - mean) * (x[i+t] - mean)
		}
		out[t] = s / float64(n)
	}
	return out
}
