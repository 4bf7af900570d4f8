// Package dataset ingests raw Brent price CSVs and produces a cleaned,
// analysis-ready series: dates parsed (unparseable rows dropped and
// counted), prices coerced to numeric, gaps forward- then backward-filled,
// rows sorted by date. Missing prices on non-trading days are carried
// from the previous close, which is the standard convention for daily
// financial data.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"brent-regime-lab/internal/domain"
)

// Loader errors.
var (
	// ErrMissingColumn is returned when the input has fewer than two columns.
	ErrMissingColumn = errors.New("input must have date and price columns")

	// ErrNoRows is returned when no usable rows remain after cleaning.
	ErrNoRows = errors.New("no usable rows in input")
)

// Date layouts accepted in raw exports. FRED uses ISO dates; the Kaggle
// Brent dump uses long-form US dates.
var dateLayouts = []string{
	"2006-01-02",
	"Jan 02, 2006",
	"2-Jan-06",
	"01/02/2006",
}

// QualityReport counts the data-quality issues found while cleaning.
// All of them are warnings, not errors.
type QualityReport struct {
	RowsRead       int // data rows in the input (excluding header)
	DroppedDates   int // rows dropped for unparseable dates
	MissingFilled  int // prices filled by ffill/bfill
	DuplicateDates int // rows dropped as duplicate dates (last wins)
}

// Load reads and cleans a raw (date, price) CSV from path.
func Load(path string, log zerolog.Logger) (*domain.Series, *QualityReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return Read(f, log)
}

// Read cleans a raw (date, price) CSV from r. The first row is treated
// as a header. Column order is positional: date first, price second.
func Read(r io.Reader, log zerolog.Logger) (*domain.Series, *QualityReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("%w: found %d column(s)", ErrMissingColumn, len(header))
	}

	report := &QualityReport{}

	type rawRow struct {
		date  time.Time
		price float64 // NaN if unparseable or empty
	}
	var rows []rawRow

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) < 2 {
			report.DroppedDates++
			continue
		}
		report.RowsRead++

		date, ok := parseDate(rec[0])
		if !ok {
			report.DroppedDates++
			continue
		}
		rows = append(rows, rawRow{date: date, price: parsePrice(rec[1])})
	}

	if report.DroppedDates > 0 {
		log.Warn().Int("rows", report.DroppedDates).Msg("dropped rows with unparseable dates")
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoRows
	}

	// Sort by date; stable so the last of a duplicate date wins below.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	// Drop duplicate dates, keeping the last occurrence.
	dedup := rows[:0]
	for i, row := range rows {
		if i+1 < len(rows) && rows[i+1].date.Equal(row.date) {
			report.DuplicateDates++
			continue
		}
		dedup = append(dedup, row)
	}
	rows = dedup
	if report.DuplicateDates > 0 {
		log.Warn().Int("rows", report.DuplicateDates).Msg("dropped duplicate dates, kept last")
	}

	// Forward-fill, then backward-fill remaining leading gaps.
	prices := make([]float64, len(rows))
	for i, row := range rows {
		prices[i] = row.price
	}
	report.MissingFilled = fillMissing(prices)
	if report.MissingFilled > 0 {
		pct := 100 * float64(report.MissingFilled) / float64(len(prices))
		log.Info().
			Int("filled", report.MissingFilled).
			Str("pct", fmt.Sprintf("%.1f%%", pct)).
			Msg("filled missing prices (ffill/bfill)")
	}

	points := make([]domain.PricePoint, len(rows))
	for i, row := range rows {
		points[i] = domain.PricePoint{Date: row.date, Price: prices[i]}
	}

	series, err := domain.NewSeries(points)
	if err != nil {
		return nil, nil, fmt.Errorf("cleaned series failed validation: %w", err)
	}

	log.Info().
		Int("rows", series.Len()).
		Str("from", series.First().Date.Format("2006-01-02")).
		Str("to", series.Last().Date.Format("2006-01-02")).
		Msg("series loaded")

	return series, report, nil
}

// parseDate tries each accepted layout. Dates normalize to UTC midnight.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parsePrice coerces a raw field to a float, NaN when empty or malformed.
func parsePrice(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// fillMissing replaces NaN entries in place: forward-fill from the prior
// value, then backward-fill any leading NaNs from the next valid value.
// Returns the number of entries filled.
func fillMissing(prices []float64) int {
	filled := 0
	last := math.NaN()
	for i, p := range prices {
		if math.IsNaN(p) {
			if !math.IsNaN(last) {
				prices[i] = last
				filled++
			}
		} else {
			last = p
		}
	}
	// Backward pass for leading NaNs.
	next := math.NaN()
	for i := len(prices) - 1; i >= 0; i-- {
		if math.IsNaN(prices[i]) {
			if !math.IsNaN(next) {
				prices[i] = next
				filled++
			}
		} else {
			next = prices[i]
		}
	}
	return filled
}
