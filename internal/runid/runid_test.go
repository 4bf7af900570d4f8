package runid

import (
	"strings"
	"testing"
	"time"

	"brent-regime-lab/internal/domain"
)

func testSeries(t *testing.T, prices ...float64) *domain.Series {
	t.Helper()
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{
			Date:  time.Date(2020, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Price: p,
		}
	}
	s, err := domain.NewSeries(points)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestDatasetDigest_Deterministic(t *testing.T) {
	a := DatasetDigest(testSeries(t, 50.1, 51.2, 49.9))
	b := DatasetDigest(testSeries(t, 50.1, 51.2, 49.9))
	if a != b {
		t.Errorf("same series produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a != strings.ToLower(a) {
		t.Errorf("digest not lowercase hex: %s", a)
	}
}

func TestDatasetDigest_SensitiveToData(t *testing.T) {
	a := DatasetDigest(testSeries(t, 50.1, 51.2))
	b := DatasetDigest(testSeries(t, 50.1, 51.3))
	if a == b {
		t.Error("different prices produced the same digest")
	}
}

func TestCompute_SensitiveToSpec(t *testing.T) {
	digest := DatasetDigest(testSeries(t, 50.1, 51.2))
	base := domain.DefaultModelSpec()

	id := Compute(digest, base)
	if len(id) != 64 {
		t.Fatalf("run ID length = %d, want 64", len(id))
	}
	if id != Compute(digest, base) {
		t.Error("run ID not deterministic")
	}

	mutations := map[string]func(*domain.ModelSpec){
		"k":      func(s *domain.ModelSpec) { s.K++ },
		"draws":  func(s *domain.ModelSpec) { s.Draws++ },
		"tune":   func(s *domain.ModelSpec) { s.Tune++ },
		"chains": func(s *domain.ModelSpec) { s.Chains++ },
		"seed":   func(s *domain.ModelSpec) { s.Seed++ },
		"shared": func(s *domain.ModelSpec) { s.SharedSigma = !s.SharedSigma },
	}
	for name, mutate := range mutations {
		spec := base
		mutate(&spec)
		if Compute(digest, spec) == id {
			t.Errorf("changing %s did not change the run ID", name)
		}
	}
}

func TestShort(t *testing.T) {
	digest := DatasetDigest(testSeries(t, 50.1, 51.2))
	id := Compute(digest, domain.DefaultModelSpec())

	short := Short(id)
	if short == "" || len(short) > 12 {
		t.Errorf("short ID %q has unexpected length", short)
	}
	if short != Short(id) {
		t.Error("short ID not deterministic")
	}

	// Non-hex input falls back to a prefix.
	if got := Short("not-hex-input-string"); got != "not-hex-inp" {
		t.Errorf("fallback = %q", got)
	}
	if got := Short("tiny"); got != "tiny" {
		t.Errorf("short input fallback = %q", got)
	}
}
