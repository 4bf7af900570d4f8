package impact

import (
	"errors"
	"math"
	"testing"
	"time"

	"brent-regime-lab/internal/domain"
)

func flatSeries(t *testing.T, segments ...struct {
	n     int
	price float64
}) *domain.Series {
	t.Helper()
	var points []domain.PricePoint
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	for _, seg := range segments {
		for j := 0; j < seg.n; j++ {
			points = append(points, domain.PricePoint{Date: start.AddDate(0, 0, i), Price: seg.price})
			i++
		}
	}
	s, err := domain.NewSeries(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

type seg = struct {
	n     int
	price float64
}

func cpAt(series *domain.Series, pos int) domain.ChangePoint {
	return domain.ChangePoint{Index: float64(pos), Pos: pos, Date: series.DateAt(pos)}
}

func TestQuantify_TwoRegimes(t *testing.T) {
	series := flatSeries(t, seg{10, 50}, seg{10, 100})
	cps := []domain.ChangePoint{cpAt(series, 10)}

	records, err := Quantify(series, cps)
	if err != nil {
		t.Fatalf("Quantify failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d regimes, want 2", len(records))
	}

	r1, r2 := records[0], records[1]
	if r1.Regime != 1 || r2.Regime != 2 {
		t.Errorf("regime ids = %d, %d", r1.Regime, r2.Regime)
	}
	if r1.Observations != 10 || r2.Observations != 10 {
		t.Errorf("observations = %d, %d, want 10 each", r1.Observations, r2.Observations)
	}
	if r1.MeanPrice != 50 || r2.MeanPrice != 100 {
		t.Errorf("means = %v, %v, want 50 and 100", r1.MeanPrice, r2.MeanPrice)
	}

	// First regime has no baseline.
	if r1.PriceChangePct != nil || r1.VolChangePct != nil {
		t.Error("first regime deltas should be nil")
	}
	if r2.PriceChangePct == nil || *r2.PriceChangePct != 100 {
		t.Errorf("second regime price delta = %v, want 100%%", r2.PriceChangePct)
	}
	// Flat prices: zero vol baseline, so the vol delta has no meaning.
	if r2.VolChangePct != nil {
		t.Errorf("vol delta against zero baseline = %v, want nil", r2.VolChangePct)
	}
}

func TestQuantify_RegimesCoverSeriesExactlyOnce(t *testing.T) {
	series := flatSeries(t, seg{7, 50}, seg{5, 60}, seg{8, 80})
	cps := []domain.ChangePoint{cpAt(series, 7), cpAt(series, 12)}

	records, err := Quantify(series, cps)
	if err != nil {
		t.Fatalf("Quantify failed: %v", err)
	}

	total := 0
	for i, r := range records {
		total += r.Observations
		if r.Observations < 1 {
			t.Errorf("regime %d has no observations", i+1)
		}
	}
	if total != series.Len() {
		t.Errorf("regimes cover %d observations, want %d (each exactly once)", total, series.Len())
	}

	// Contiguity: regime r ends where regime r+1 starts.
	for i := 1; i < len(records); i++ {
		if !records[i-1].End.Equal(records[i].Start) {
			t.Errorf("gap between regime %d end %s and regime %d start %s",
				i, records[i-1].End.Format("2006-01-02"), i+1, records[i].Start.Format("2006-01-02"))
		}
	}
	if !records[len(records)-1].End.Equal(series.Last().Date) {
		t.Error("final regime does not end at the series end")
	}
}

func TestQuantify_MeanWithinRegimeBounds(t *testing.T) {
	series := flatSeries(t, seg{10, 40}, seg{10, 90})
	records, err := Quantify(series, []domain.ChangePoint{cpAt(series, 10)})
	if err != nil {
		t.Fatalf("Quantify failed: %v", err)
	}
	for _, r := range records {
		if r.MeanPrice < 40 || r.MeanPrice > 90 {
			t.Errorf("regime %d mean %v outside price bounds", r.Regime, r.MeanPrice)
		}
		if r.AnnualizedVol < 0 {
			t.Errorf("regime %d annualized vol %v negative", r.Regime, r.AnnualizedVol)
		}
	}
}

func TestQuantify_InvalidChangePoints(t *testing.T) {
	series := flatSeries(t, seg{20, 50})

	tests := []struct {
		name string
		cps  []domain.ChangePoint
	}{
		{"at zero", []domain.ChangePoint{cpAt(series, 0)}},
		{"at series end", []domain.ChangePoint{{Index: 20, Pos: 20}}},
		{"not increasing", []domain.ChangePoint{cpAt(series, 10), cpAt(series, 10)}},
		{"decreasing", []domain.ChangePoint{cpAt(series, 12), cpAt(series, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Quantify(series, tt.cps); !errors.Is(err, ErrInvalidChangePoints) {
				t.Errorf("error = %v, want ErrInvalidChangePoints", err)
			}
		})
	}
}

func TestQuantify_NoChangePoints(t *testing.T) {
	series := flatSeries(t, seg{15, 50})

	records, err := Quantify(series, nil)
	if err != nil {
		t.Fatalf("Quantify failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d regimes, want 1", len(records))
	}
	if records[0].Observations != 15 {
		t.Errorf("observations = %d, want 15", records[0].Observations)
	}
}

func TestAnnualizedVol(t *testing.T) {
	if v := annualizedVol([]float64{50, 51}); v != 0 {
		t.Errorf("vol of 2 prices = %v, want 0", v)
	}
	if v := annualizedVol([]float64{50, 50, 50, 50}); v != 0 {
		t.Errorf("vol of constant prices = %v, want 0", v)
	}

	// Alternating +/-2% returns: sd of returns ~0.0207, annualized ~0.33.
	prices := []float64{100, 102, 99.96, 101.9592}
	v := annualizedVol(prices)
	if v <= 0 {
		t.Fatalf("vol = %v, want positive", v)
	}
	if math.Abs(v-math.Sqrt(252)*0.0231) > 0.1 {
		t.Errorf("vol = %v, outside expected range", v)
	}
}
