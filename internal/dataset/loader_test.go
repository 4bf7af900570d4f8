package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestRead_CleanInput(t *testing.T) {
	input := "Date,Price\n" +
		"1987-05-20,18.63\n" +
		"1987-05-21,18.45\n" +
		"1987-05-22,18.55\n"

	series, report, err := Read(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if series.Len() != 3 {
		t.Errorf("length = %d, want 3", series.Len())
	}
	if report.RowsRead != 3 || report.DroppedDates != 0 || report.MissingFilled != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if series.At(0).Price != 18.63 {
		t.Errorf("first price = %v, want 18.63", series.At(0).Price)
	}
}

func TestRead_KaggleDateFormat(t *testing.T) {
	input := "Date,Price\n" +
		"May 20, 1987,18.63\n" +
		"May 21, 1987,18.45\n"

	series, _, err := Read(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC)
	if !series.First().Date.Equal(want) {
		t.Errorf("first date = %s, want %s", series.First().Date, want)
	}
}

func TestRead_MissingColumn(t *testing.T) {
	input := "Date\n1987-05-20\n"

	_, _, err := Read(strings.NewReader(input), testLogger())
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestRead_DropsUnparseableDates(t *testing.T) {
	input := "Date,Price\n" +
		"1987-05-20,18.63\n" +
		"not-a-date,19.00\n" +
		"1987-05-21,18.45\n"

	series, report, err := Read(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if series.Len() != 2 {
		t.Errorf("length = %d, want 2", series.Len())
	}
	if report.DroppedDates != 1 {
		t.Errorf("DroppedDates = %d, want 1", report.DroppedDates)
	}
}

func TestRead_FillsMissingPrices(t *testing.T) {
	input := "Date,Price\n" +
		"1987-05-20,\n" + // leading gap: backward-filled
		"1987-05-21,18.45\n" +
		"1987-05-22,\n" + // interior gap: forward-filled
		"1987-05-23,18.80\n"

	series, report, err := Read(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if report.MissingFilled != 2 {
		t.Errorf("MissingFilled = %d, want 2", report.MissingFilled)
	}
	if series.At(0).Price != 18.45 {
		t.Errorf("leading gap filled to %v, want 18.45 (bfill)", series.At(0).Price)
	}
	if series.At(2).Price != 18.45 {
		t.Errorf("interior gap filled to %v, want 18.45 (ffill)", series.At(2).Price)
	}
}

func TestRead_SortsAndDeduplicates(t *testing.T) {
	input := "Date,Price\n" +
		"1987-05-22,18.55\n" +
		"1987-05-20,18.63\n" +
		"1987-05-20,18.70\n" + // duplicate date, last occurrence wins
		"1987-05-21,18.45\n"

	series, report, err := Read(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if series.Len() != 3 {
		t.Errorf("length = %d, want 3", series.Len())
	}
	if report.DuplicateDates != 1 {
		t.Errorf("DuplicateDates = %d, want 1", report.DuplicateDates)
	}
	if series.At(0).Price != 18.70 {
		t.Errorf("deduped price = %v, want 18.70 (last occurrence)", series.At(0).Price)
	}
	for i := 1; i < series.Len(); i++ {
		if !series.DateAt(i - 1).Before(series.DateAt(i)) {
			t.Fatalf("dates not strictly increasing at %d", i)
		}
	}
}

func TestRead_NoUsableRows(t *testing.T) {
	input := "Date,Price\njunk,1\nmore junk,2\n"

	_, _, err := Read(strings.NewReader(input), testLogger())
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("error = %v, want ErrNoRows", err)
	}
}

func TestFillMissing_AllNaN(t *testing.T) {
	prices := []float64{math.NaN(), math.NaN()}
	filled := fillMissing(prices)
	if filled != 0 {
		t.Errorf("filled = %d, want 0 when nothing to fill from", filled)
	}
	if !math.IsNaN(prices[0]) {
		t.Error("all-NaN input should stay NaN and fail series validation later")
	}
}
