// Package changepoint specifies the Bayesian multiple-change-point model
// over log prices and reduces its posterior to dated change points.
//
// The series is partitioned into k+1 regimes by k breakpoints tau. Each
// regime has its own mean and standard deviation (one shared standard
// deviation in the simplified variant). Posteriors are inferred by MCMC:
//
//	tau_1..tau_k     ~ Uniform(0, N)                 [sorted before use]
//	mu_0..mu_k       ~ Normal(mean(y), MuScale*std(y))
//	sigma_0..sigma_k ~ HalfNormal(SigmaScale*std(y))
//	y[t]             ~ Normal(mu_j, sigma_j), j = regime at t
//
// Observation t belongs to the regime after the largest sorted breakpoint
// below it: regime(t) = #{j : tau_j < t}. Breaks are modeled as discrete,
// instantaneous transitions; k is a hyperparameter chosen by the analyst,
// not learned.
package changepoint

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/mcmc"
)

const ln2pi = 1.8378770664093453 // log(2*pi)

// Model is a fully specified change-point inference problem.
type Model struct {
	spec domain.ModelSpec

	data    []float64 // log prices
	n       int
	empMean float64 // empirical mean of log prices
	empStd  float64 // empirical std of log prices

	muPrior    distuv.Normal // shared prior for every regime mean
	sigmaScale float64       // half-normal scale for regime stddevs
}

// New validates the series against the spec and builds the model.
// Validation failures (too few observations, invalid k) are returned
// before any sampling work happens.
func New(series *domain.Series, spec domain.ModelSpec) (*Model, error) {
	if err := spec.Validate(series.Len()); err != nil {
		return nil, err
	}

	data := series.LogPrices()
	mean := stat.Mean(data, nil)
	std := math.Sqrt(stat.Variance(data, nil))

	return &Model{
		spec:       spec,
		data:       data,
		n:          len(data),
		empMean:    mean,
		empStd:     std,
		muPrior:    distuv.Normal{Mu: mean, Sigma: spec.MuScale * std},
		sigmaScale: spec.SigmaScale * std,
	}, nil
}

// Spec returns the model specification.
func (m *Model) Spec() domain.ModelSpec { return m.spec }

// Parameter vector layout (raw, unconstrained):
//
//	x[0:k]                     tau, breakpoint positions in (0, N)
//	x[k:2k+1]                  mu, regime means
//	x[2k+1:2k+1+numSigmas]     log sigma, regime stddevs in log space
func (m *Model) dim() int {
	return 2*m.spec.K + 1 + m.spec.NumSigmas()
}

// Problem assembles the mcmc target. Recorded draws are transformed:
// taus sorted per draw, sigmas exponentiated to natural units.
func (m *Model) Problem() mcmc.Problem {
	k := m.spec.K
	nSig := m.spec.NumSigmas()

	names := make([]string, 0, m.dim())
	for i := 0; i < k; i++ {
		names = append(names, fmt.Sprintf("tau[%d]", i))
	}
	for i := 0; i <= k; i++ {
		names = append(names, fmt.Sprintf("mu[%d]", i))
	}
	for i := 0; i < nSig; i++ {
		names = append(names, fmt.Sprintf("sigma[%d]", i))
	}

	step := make([]float64, m.dim())
	for i := 0; i < k; i++ {
		step[i] = float64(m.n) / 20 // breakpoint positions move in index units
	}
	for i := k; i <= 2*k; i++ {
		step[i] = m.empStd / 2
	}
	for i := 2*k + 1; i < m.dim(); i++ {
		step[i] = 0.1 // log-sigma space
	}

	return mcmc.Problem{
		Names:     names,
		LogProb:   m.logProb,
		Init:      m.init,
		Step:      step,
		Transform: m.transform,
	}
}

// logProb is the unnormalized log-posterior.
func (m *Model) logProb(x []float64) float64 {
	k := m.spec.K
	taus := x[:k]
	mus := x[k : 2*k+1]
	logSigmas := x[2*k+1:]

	// Uniform(0, N) prior: flat inside the support, -Inf outside.
	for _, t := range taus {
		if t <= 0 || t >= float64(m.n) {
			return math.Inf(-1)
		}
	}

	lp := 0.0

	for _, mu := range mus {
		lp += m.muPrior.LogProb(mu)
	}

	sigmas := make([]float64, len(logSigmas))
	for i, ls := range logSigmas {
		s := math.Exp(ls)
		sigmas[i] = s
		// Half-normal prior on sigma plus the log-Jacobian of the
		// log-space parameterization.
		lp += halfNormalLogPDF(s, m.sigmaScale) + ls
	}

	sorted := make([]float64, k)
	copy(sorted, taus)
	sort.Float64s(sorted)

	// Likelihood, segment by segment. Regime j covers indices
	// [bound(j-1), bound(j)) where bound(j) = floor(tau_sorted[j]) + 1,
	// the first index strictly greater than the breakpoint.
	start := 0
	for j := 0; j <= k; j++ {
		end := m.n
		if j < k {
			end = int(math.Floor(sorted[j])) + 1
			if end > m.n {
				end = m.n
			}
		}
		if end > start {
			sigma := sigmas[0]
			if !m.spec.SharedSigma {
				sigma = sigmas[j]
			}
			lp += segmentLogLik(m.data[start:end], mus[j], sigma)
			start = end
		}
	}

	return lp
}

// segmentLogLik is the Normal log-likelihood of a segment under a single
// mean and standard deviation.
func segmentLogLik(y []float64, mu, sigma float64) float64 {
	n := float64(len(y))
	ss := 0.0
	for _, v := range y {
		d := v - mu
		ss += d * d
	}
	return -0.5*n*(ln2pi+2*math.Log(sigma)) - ss/(2*sigma*sigma)
}

// halfNormalLogPDF evaluates the half-normal log-density at x >= 0.
func halfNormalLogPDF(x, scale float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return 0.5*math.Ln2 - 0.5*ln2pi - math.Log(scale) - x*x/(2*scale*scale)
}

// init draws a starting point: breakpoints at jittered even spacing,
// means and stddevs at jittered empirical values. The jitter keeps the
// chains distinct while starting every chain in a plausible region.
func (m *Model) init(rng *rand.Rand) []float64 {
	k := m.spec.K
	x := make([]float64, m.dim())

	for i := 0; i < k; i++ {
		center := float64(m.n) * float64(i+1) / float64(k+1)
		x[i] = clampTo(center+rng.NormFloat64()*float64(m.n)/50, 1, float64(m.n)-1)
	}
	for i := 0; i <= k; i++ {
		x[k+i] = m.empMean + rng.NormFloat64()*m.empStd/10
	}
	for i := 2*k + 1; i < m.dim(); i++ {
		x[i] = math.Log(m.empStd) + rng.NormFloat64()*0.05
	}
	return x
}

// transform maps a raw draw to the recorded vector: taus sorted,
// log-sigmas exponentiated. Mirrors the in-model sort; nothing is
// re-sorted after this point.
func (m *Model) transform(x []float64) []float64 {
	k := m.spec.K
	out := make([]float64, len(x))
	copy(out, x)
	sort.Float64s(out[:k])
	for i := 2*k + 1; i < len(out); i++ {
		out[i] = math.Exp(out[i])
	}
	return out
}

// RegimeIndex returns the regime of observation t given sorted
// breakpoints: the count of breakpoints strictly below t.
func RegimeIndex(t int, sortedTaus []float64) int {
	j := 0
	for _, tau := range sortedTaus {
		if float64(t) > tau {
			j++
		}
	}
	return j
}

func clampTo(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
