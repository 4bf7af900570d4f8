package changepoint

import (
	"errors"
	"math"
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"brent-regime-lab/internal/domain"
)

// stepSeries builds a synthetic two-regime series: n1 days around level
// lo, then n2 days around level hi, with small multiplicative noise.
func stepSeries(t *testing.T, n1, n2 int, lo, hi float64) *domain.Series {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	points := make([]domain.PricePoint, 0, n1+n2)
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n1+n2; i++ {
		level := lo
		if i >= n1 {
			level = hi
		}
		price := level * math.Exp(rng.NormFloat64()*0.01)
		points = append(points, domain.PricePoint{Date: start.AddDate(0, 0, i), Price: price})
	}
	series, err := domain.NewSeries(points)
	if err != nil {
		t.Fatalf("build step series: %v", err)
	}
	return series
}

func TestNew_ValidatesBeforeSampling(t *testing.T) {
	series := stepSeries(t, 30, 10, 50, 100) // 40 obs, below minimum

	_, err := New(series, domain.DefaultModelSpec())
	if !errors.Is(err, domain.ErrTooFewObservations) {
		t.Errorf("error = %v, want ErrTooFewObservations", err)
	}

	series = stepSeries(t, 100, 100, 50, 100)
	spec := domain.DefaultModelSpec()
	spec.K = 0
	if _, err := New(series, spec); !errors.Is(err, domain.ErrInvalidSpec) {
		t.Errorf("error = %v, want ErrInvalidSpec", err)
	}
}

func TestModel_ParameterLayout(t *testing.T) {
	series := stepSeries(t, 100, 100, 50, 100)
	spec := domain.DefaultModelSpec()
	spec.K = 2

	m, err := New(series, spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p := m.Problem()

	want := []string{"tau[0]", "tau[1]", "mu[0]", "mu[1]", "mu[2]", "sigma[0]", "sigma[1]", "sigma[2]"}
	if len(p.Names) != len(want) {
		t.Fatalf("names = %v, want %v", p.Names, want)
	}
	for i, n := range want {
		if p.Names[i] != n {
			t.Errorf("names[%d] = %s, want %s", i, p.Names[i], n)
		}
	}
	if len(p.Step) != len(want) {
		t.Errorf("step length = %d, want %d", len(p.Step), len(want))
	}
}

func TestModel_SharedSigmaLayout(t *testing.T) {
	series := stepSeries(t, 100, 100, 50, 100)
	spec := domain.DefaultModelSpec()
	spec.K = 1
	spec.SharedSigma = true

	m, err := New(series, spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p := m.Problem()

	want := []string{"tau[0]", "mu[0]", "mu[1]", "sigma[0]"}
	if len(p.Names) != len(want) {
		t.Fatalf("names = %v, want %v", p.Names, want)
	}
}

func TestLogProb_OutsideTauSupport(t *testing.T) {
	series := stepSeries(t, 100, 100, 50, 100)
	spec := domain.DefaultModelSpec()
	spec.K = 1

	m, err := New(series, spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p := m.Problem()

	rng := rand.New(rand.NewSource(1))
	x := p.Init(rng)

	x[0] = -1
	if lp := p.LogProb(x); !math.IsInf(lp, -1) {
		t.Errorf("logProb with tau<0 = %v, want -Inf", lp)
	}
	x[0] = float64(series.Len())
	if lp := p.LogProb(x); !math.IsInf(lp, -1) {
		t.Errorf("logProb with tau>=N = %v, want -Inf", lp)
	}
	x[0] = 100
	if lp := p.LogProb(x); math.IsInf(lp, 0) || math.IsNaN(lp) {
		t.Errorf("logProb inside support = %v, want finite", lp)
	}
}

func TestTransform_SortsTausAndExponentiatesSigmas(t *testing.T) {
	series := stepSeries(t, 100, 100, 50, 100)
	spec := domain.DefaultModelSpec()
	spec.K = 2

	m, err := New(series, spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// tau[0]=150, tau[1]=50 (out of order); log-sigmas 0 -> sigma 1.
	raw := []float64{150, 50, 4, 4.2, 4.5, 0, 0, 0}
	out := m.transform(raw)

	if out[0] != 50 || out[1] != 150 {
		t.Errorf("taus not sorted: %v", out[:2])
	}
	for i := 5; i < 8; i++ {
		if out[i] != 1 {
			t.Errorf("sigma[%d] = %v, want exp(0)=1", i-5, out[i])
		}
	}
	// Raw vector untouched.
	if raw[0] != 150 {
		t.Error("transform mutated its input")
	}
}

func TestRegimeIndex(t *testing.T) {
	taus := []float64{10.4, 99.7}

	tests := []struct {
		t    int
		want int
	}{
		{0, 0},
		{10, 0},
		{11, 1},
		{99, 1},
		{100, 2},
		{500, 2},
	}
	for _, tt := range tests {
		if got := RegimeIndex(tt.t, taus); got != tt.want {
			t.Errorf("RegimeIndex(%d) = %d, want %d", tt.t, got, tt.want)
		}
	}
}
