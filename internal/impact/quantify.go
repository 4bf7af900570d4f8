// Package impact partitions a price series into regimes at the detected
// change points and quantifies the shift in price level and volatility
// between consecutive regimes.
//
// Regimes are half-open: [start, cp_1), [cp_1, cp_2), ..., [cp_k, end].
// The final regime includes the series end. The reference analysis let
// boundary dates fall into both neighboring regimes; the half-open
// convention here means every observation belongs to exactly one regime.
package impact

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"brent-regime-lab/internal/domain"
)

// TradingDaysPerYear scales daily return volatility to an annual figure.
const TradingDaysPerYear = 252

// ErrInvalidChangePoints is returned when change points do not define a
// usable partition (out of bounds or not strictly increasing).
var ErrInvalidChangePoints = errors.New("invalid change points")

// Quantify computes per-regime statistics and deltas against the
// preceding regime. Change points must be strictly increasing and
// strictly inside the series so every regime has at least one
// observation. The first record's delta fields are nil: there is no
// prior regime.
func Quantify(series *domain.Series, cps []domain.ChangePoint) ([]domain.ImpactRecord, error) {
	n := series.Len()

	bounds := make([]int, 0, len(cps)+2)
	bounds = append(bounds, 0)
	for i, cp := range cps {
		if cp.Pos <= 0 || cp.Pos >= n {
			return nil, fmt.Errorf("%w: change point %d at index %d outside (0, %d)", ErrInvalidChangePoints, i+1, cp.Pos, n)
		}
		if cp.Pos <= bounds[len(bounds)-1] {
			return nil, fmt.Errorf("%w: change point %d at index %d not after previous boundary", ErrInvalidChangePoints, i+1, cp.Pos)
		}
		bounds = append(bounds, cp.Pos)
	}
	bounds = append(bounds, n)

	records := make([]domain.ImpactRecord, 0, len(bounds)-1)
	for r := 0; r+1 < len(bounds); r++ {
		lo, hi := bounds[r], bounds[r+1]
		final := r+2 == len(bounds)

		rec := regimeStats(series, r+1, lo, hi, final)
		if r > 0 {
			prev := records[r-1]
			rec.PriceChangePct = pctChange(prev.MeanPrice, rec.MeanPrice)
			rec.VolChangePct = pctChange(prev.AnnualizedVol, rec.AnnualizedVol)
		}
		records = append(records, rec)
	}

	return records, nil
}

// regimeStats computes one regime's statistics over series indices
// [lo, hi).
func regimeStats(series *domain.Series, id, lo, hi int, final bool) domain.ImpactRecord {
	prices := make([]float64, hi-lo)
	for i := lo; i < hi; i++ {
		prices[i-lo] = series.At(i).Price
	}

	mean := stat.Mean(prices, nil)
	sd := 0.0
	if len(prices) > 1 {
		sd = math.Sqrt(stat.Variance(prices, nil))
	}

	// End date: the boundary the next regime starts at, or the series
	// end for the final regime.
	end := series.DateAt(hi - 1)
	if !final {
		end = series.DateAt(hi)
	}

	return domain.ImpactRecord{
		Regime:        id,
		Start:         series.DateAt(lo),
		End:           end,
		Observations:  hi - lo,
		MeanPrice:     mean,
		StdDev:        sd,
		AnnualizedVol: annualizedVol(prices),
	}
}

// annualizedVol is the sample standard deviation of daily percentage
// returns scaled by sqrt(252). Zero for regimes too short to hold two
// returns.
func annualizedVol(prices []float64) float64 {
	if len(prices) < 3 {
		return 0
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = prices[i]/prices[i-1] - 1
	}
	return math.Sqrt(stat.Variance(returns, nil)) * math.Sqrt(TradingDaysPerYear)
}

// pctChange returns the percentage change from prev to cur, or nil when
// prev is zero (no meaningful baseline).
func pctChange(prev, cur float64) *float64 {
	if prev == 0 {
		return nil
	}
	v := (cur - prev) / prev * 100
	return &v
}
