package changepoint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/mcmc"
)

// ErrMissingParameter is returned when the trace lacks an expected
// breakpoint parameter.
var ErrMissingParameter = errors.New("trace missing parameter")

// Extract reduces each breakpoint's posterior draws (pooled across
// chains) to its mean, clamps it to the valid index range and maps it to
// the calendar date at that index.
//
// The trace stores per-draw sorted breakpoints, so the pooled means are
// expected to be monotone already. Monotonicity is still asserted: a
// violation would mean downstream regimes overlap, so the means are
// re-sorted with a warning rather than passed through.
func Extract(trace *mcmc.Trace, series *domain.Series, k int, log zerolog.Logger) ([]domain.ChangePoint, error) {
	means := make([]float64, k)
	for i := 0; i < k; i++ {
		name := fmt.Sprintf("tau[%d]", i)
		p, ok := trace.ParamIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
		means[i] = stat.Mean(trace.Pooled(p), nil)
	}

	if !sort.Float64sAreSorted(means) {
		log.Warn().Floats64("means", means).Msg("pooled breakpoint means not monotone, re-sorting")
		sort.Float64s(means)
	}

	cps := make([]domain.ChangePoint, k)
	for i, m := range means {
		pos := series.ClampIndex(m)
		cps[i] = domain.ChangePoint{
			Index: m,
			Pos:   pos,
			Date:  series.DateAt(pos),
		}
	}

	for i := 1; i < len(cps); i++ {
		if !cps[i-1].Date.Before(cps[i].Date) {
			log.Warn().
				Str("date", cps[i].Date.Format("2006-01-02")).
				Msg("breakpoints collapse onto the same date; k may be too high for this window")
		}
	}

	return cps, nil
}
