package artifacts

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"brent-regime-lab/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func smallSeries(t *testing.T) *domain.Series {
	t.Helper()
	s, err := domain.NewSeries([]domain.PricePoint{
		{Date: day(1), Price: 50.5},
		{Date: day(2), Price: 51.25},
		{Date: day(3), Price: 49.875},
	})
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestRenderSeriesCSV(t *testing.T) {
	got := RenderSeriesCSV(smallSeries(t))

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if lines[0] != "date,price" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2020-01-01,50.500000" {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestRenderChangePointsCSV(t *testing.T) {
	cps := []domain.ChangePoint{
		{Index: 1.2345, Pos: 1, Date: day(2)},
	}
	got := RenderChangePointsCSV(cps)

	want := "change_point_index,date\n1.2345,2020-01-02\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderSummaryCSV_NaNDiagnosticsEmpty(t *testing.T) {
	rows := []domain.ParameterSummary{
		{Parameter: "tau[0]", Mean: 100.5, SD: 3.2, RHat: 1.0012, ESSBulk: 1523.4},
		{Parameter: "mu[0]", Mean: 4.0, SD: 0, RHat: math.NaN(), ESSBulk: math.NaN()},
	}
	got := RenderSummaryCSV(rows)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if lines[1] != "tau[0],100.500000,3.200000,1.0012,1523.4" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "mu[0],4.000000,0.000000,," {
		t.Errorf("NaN diagnostics should render empty, got %q", lines[2])
	}
}

func TestRenderImpactCSV_FirstRegimeDeltasEmpty(t *testing.T) {
	delta := 42.5
	records := []domain.ImpactRecord{
		{Regime: 1, Start: day(1), End: day(2), Observations: 10, MeanPrice: 50, StdDev: 1, AnnualizedVol: 0.3},
		{Regime: 2, Start: day(2), End: day(3), Observations: 12, MeanPrice: 71.25, StdDev: 2, AnnualizedVol: 0.4,
			PriceChangePct: &delta, VolChangePct: &delta},
	}
	got := RenderImpactCSV(records)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if !strings.HasSuffix(lines[1], ",,") {
		t.Errorf("first regime deltas not empty: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",42.50,42.50") {
		t.Errorf("second regime deltas wrong: %q", lines[2])
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")

	if err := WriteFileAtomic(path, []byte("a,b\n1,2\n")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (no temp leftovers)", len(entries))
	}

	// Overwrite works.
	if err := WriteFileAtomic(path, []byte("x\n")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "x\n" {
		t.Errorf("overwritten content = %q", data)
	}
}

func TestReadChangePoints_Roundtrip(t *testing.T) {
	series := smallSeries(t)
	cps := []domain.ChangePoint{{Index: 1.4, Pos: 1, Date: day(2)}}

	dir := t.TempDir()
	path := filepath.Join(dir, ChangePointsFile)
	if err := WriteFileAtomic(path, []byte(RenderChangePointsCSV(cps))); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadChangePoints(path, series)
	if err != nil {
		t.Fatalf("ReadChangePoints failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d change points, want 1", len(got))
	}
	if got[0].Pos != 1 || !got[0].Date.Equal(day(2)) {
		t.Errorf("roundtrip mismatch: %+v", got[0])
	}
}

func TestReadChangePoints_Missing(t *testing.T) {
	series := smallSeries(t)
	_, err := ReadChangePoints(filepath.Join(t.TempDir(), "absent.csv"), series)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
