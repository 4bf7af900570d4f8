// Package eda evaluates the statistical properties of the price series
// that motivate a structural-break model: long-run trend via a one-year
// rolling mean, stationarity via the Augmented Dickey-Fuller test, and
// volatility clustering via a 21-day annualized rolling standard
// deviation of returns.
package eda

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"brent-regime-lab/internal/domain"
)

// Rolling window sizes in trading days.
const (
	TrendWindow      = 252 // one trading year
	VolatilityWindow = 21  // one trading month
)

// Properties holds the series-property analysis for one series.
type Properties struct {
	RollingMean []float64 // TrendWindow-day rolling mean, aligned to the series
	RollingVol  []float64 // VolatilityWindow-day annualized return volatility
	ADF         ADFResult // stationarity test on level prices
}

// Analyze computes all series properties.
func Analyze(series *domain.Series) Properties {
	prices := series.Prices()
	return Properties{
		RollingMean: rollingMean(prices, TrendWindow),
		RollingVol:  rollingVolatility(series.Returns(), VolatilityWindow),
		ADF:         ADF(prices),
	}
}

// rollingMean computes a trailing mean with an expanding head: entry i
// averages prices[max(0,i-window+1)..i], so early entries use however
// many observations exist rather than being dropped.
func rollingMean(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		sum += v
		if i >= window {
			sum -= x[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// rollingVolatility computes the trailing annualized standard deviation
// of daily returns. Output is aligned to the price series: entry 0 (no
// return yet) and windows with fewer than two returns are NaN.
func rollingVolatility(returns []float64, window int) []float64 {
	out := make([]float64, len(returns)+1)
	out[0] = math.NaN()
	for i := range returns {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		w := returns[lo : i+1]
		if len(w) < 2 {
			out[i+1] = math.NaN()
			continue
		}
		out[i+1] = math.Sqrt(stat.Variance(w, nil)) * math.Sqrt(252)
	}
	return out
}
