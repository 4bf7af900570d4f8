package domain

import "time"

// ChangePoint is a breakpoint reduced to a point estimate: the posterior
// mean of its position, clamped to the series index range and mapped to
// the nearest valid calendar date.
type ChangePoint struct {
	Index float64   // posterior mean of the breakpoint position
	Pos   int       // Index clamped to [0, N-1]
	Date  time.Time // series date at Pos
}

// Regime is a contiguous date interval with stable mean/variance,
// bounded by consecutive change points or by the series bounds.
// Intervals are half-open [Start, End) except the last regime, which
// is closed at the series end.
type Regime struct {
	ID    int       // 1-based regime number
	Start time.Time // first date in the regime (inclusive)
	End   time.Time // boundary date (exclusive, except final regime)
	Final bool      // true for the last regime: End is inclusive
}

// ImpactRecord holds per-regime statistics plus percentage deltas against
// the immediately preceding regime. Delta pointers are nil for the first
// regime, which has no prior regime to compare against.
type ImpactRecord struct {
	Regime         int       // 1-based regime number
	Start          time.Time // regime start date
	End            time.Time // regime end date
	Observations   int       // observations in the regime
	MeanPrice      float64   // mean price over the regime
	StdDev         float64   // price standard deviation (sample)
	AnnualizedVol  float64   // std of daily pct returns * sqrt(252)
	PriceChangePct *float64  // % change in mean price vs previous regime
	VolChangePct   *float64  // % change in annualized vol vs previous regime
}

// ParameterSummary is one row of the convergence summary table.
type ParameterSummary struct {
	Parameter string  // e.g. "tau[0]", "mu[2]", "sigma[1]"
	Mean      float64 // pooled posterior mean
	SD        float64 // pooled posterior standard deviation
	RHat      float64 // split R-hat (ideal 1.0)
	ESSBulk   float64 // bulk effective sample size
}
