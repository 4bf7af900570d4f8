package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Validation errors for price series construction.
var (
	// ErrEmptySeries is returned when a series has no observations.
	ErrEmptySeries = errors.New("series has no observations")

	// ErrNonPositivePrice is returned when a price is zero or negative.
	// Log transformation requires strictly positive prices.
	ErrNonPositivePrice = errors.New("non-positive price")

	// ErrMissingPrice is returned when a price is NaN or Inf.
	ErrMissingPrice = errors.New("missing price value")

	// ErrUnsortedDates is returned when dates are not strictly increasing.
	ErrUnsortedDates = errors.New("dates not strictly increasing")
)

// PricePoint is a single (date, price) observation.
type PricePoint struct {
	Date  time.Time // calendar date, UTC midnight
	Price float64   // spot price in USD per barrel
}

// Series is an ordered daily price series with unique, strictly increasing
// dates and strictly positive prices. Immutable once constructed.
type Series struct {
	points []PricePoint
}

// NewSeries validates points and wraps them in a Series.
// Points must already be sorted by date (the loader sorts before calling).
func NewSeries(points []PricePoint) (*Series, error) {
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}

	for i, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return nil, fmt.Errorf("%w at %s", ErrMissingPrice, p.Date.Format("2006-01-02"))
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("%w: %.4f at %s", ErrNonPositivePrice, p.Price, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !points[i-1].Date.Before(p.Date) {
			return nil, fmt.Errorf("%w: %s followed by %s",
				ErrUnsortedDates,
				points[i-1].Date.Format("2006-01-02"),
				p.Date.Format("2006-01-02"))
		}
	}

	cp := make([]PricePoint, len(points))
	copy(cp, points)
	return &Series{points: cp}, nil
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.points)
}

// At returns the observation at index i.
func (s *Series) At(i int) PricePoint {
	return s.points[i]
}

// DateAt returns the date at index i.
func (s *Series) DateAt(i int) time.Time {
	return s.points[i].Date
}

// First returns the earliest observation.
func (s *Series) First() PricePoint {
	return s.points[0]
}

// Last returns the latest observation.
func (s *Series) Last() PricePoint {
	return s.points[len(s.points)-1]
}

// Points returns a copy of all observations.
func (s *Series) Points() []PricePoint {
	cp := make([]PricePoint, len(s.points))
	copy(cp, s.points)
	return cp
}

// Prices returns a copy of the price values in date order.
func (s *Series) Prices() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Price
	}
	return out
}

// LogPrices returns natural-log prices in date order.
// Safe because construction rejects non-positive prices.
func (s *Series) LogPrices() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = math.Log(p.Price)
	}
	return out
}

// Returns computes daily percentage returns: r[i] = p[i+1]/p[i] - 1.
// Length is Len()-1.
func (s *Series) Returns() []float64 {
	if len(s.points) < 2 {
		return nil
	}
	out := make([]float64, len(s.points)-1)
	for i := 1; i < len(s.points); i++ {
		out[i-1] = s.points[i].Price/s.points[i-1].Price - 1
	}
	return out
}

// Window returns the sub-series with start <= date <= end.
// Returns ErrEmptySeries if no observation falls inside the window.
func (s *Series) Window(start, end time.Time) (*Series, error) {
	lo := s.SearchDate(start)
	hi := s.SearchDate(end.AddDate(0, 0, 1))
	if lo >= hi {
		return nil, fmt.Errorf("window [%s, %s]: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), ErrEmptySeries)
	}
	return &Series{points: s.points[lo:hi]}, nil
}

// SearchDate returns the index of the first observation with date >= d,
// or Len() if every observation is earlier.
func (s *Series) SearchDate(d time.Time) int {
	lo, hi := 0, len(s.points)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.points[mid].Date.Before(d) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// ClampIndex clamps a continuous index to the valid range [0, Len()-1]
// and truncates to int. Used when mapping posterior breakpoint means
// back onto calendar dates.
func (s *Series) ClampIndex(x float64) int {
	i := int(x)
	if i < 0 {
		return 0
	}
	if i > len(s.points)-1 {
		return len(s.points) - 1
	}
	return i
}
