package diagnostics

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/mcmc"
)

// Summarize builds the per-parameter convergence summary table: pooled
// mean and sd, split R-hat and bulk ESS for every recorded parameter.
func Summarize(trace *mcmc.Trace) []domain.ParameterSummary {
	rows := make([]domain.ParameterSummary, trace.NumParams())
	for p, name := range trace.Names() {
		chains := make([][]float64, trace.NumChains())
		for c := range chains {
			chains[c] = trace.Chain(c, p)
		}
		pooled := trace.Pooled(p)

		rows[p] = domain.ParameterSummary{
			Parameter: name,
			Mean:      stat.Mean(pooled, nil),
			SD:        math.Sqrt(stat.Variance(pooled, nil)),
			RHat:      SplitRHat(chains),
			ESSBulk:   ESSBulk(chains),
		}
	}
	return rows
}

// Check inspects a summary table against the warning thresholds and logs
// non-fatal warnings. Returns the worst R-hat, the worst bulk ESS and
// whether both passed. NaN diagnostics count as failures.
func Check(rows []domain.ParameterSummary, log zerolog.Logger) (maxRHat, minESS float64, ok bool) {
	maxRHat = math.Inf(-1)
	minESS = math.Inf(1)
	for _, r := range rows {
		if math.IsNaN(r.RHat) || r.RHat > maxRHat {
			maxRHat = r.RHat
		}
		if math.IsNaN(r.ESSBulk) || r.ESSBulk < minESS {
			minESS = r.ESSBulk
		}
	}

	ok = true
	if math.IsNaN(maxRHat) || maxRHat > RHatThreshold {
		log.Warn().
			Float64("max_rhat", maxRHat).
			Float64("threshold", RHatThreshold).
			Msg("chains may not have converged; consider increasing tune/draws")
		ok = false
	} else {
		log.Info().Float64("max_rhat", maxRHat).Msg("R-hat OK")
	}

	if math.IsNaN(minESS) || minESS < ESSThreshold {
		log.Warn().
			Float64("min_ess_bulk", minESS).
			Float64("threshold", ESSThreshold).
			Msg("low effective sample size; posterior estimates may be unreliable")
		ok = false
	} else {
		log.Info().Float64("min_ess_bulk", minESS).Msg("ESS OK")
	}

	return maxRHat, minESS, ok
}
