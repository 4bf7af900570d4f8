package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadRecords reads a CSV artifact into an ordered slice of records, one
// map per row keyed by the header. Numeric cells become float64, empty
// cells become nil (JSON null), everything else stays a string. Leading
// comment lines starting with '#' are skipped.
func ReadRecords(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	records := make([]map[string]interface{}, 0)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := make(map[string]interface{}, len(header))
		for i, key := range header {
			if i >= len(row) {
				rec[key] = nil
				continue
			}
			rec[key] = parseCell(row[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseCell converts a CSV cell to its JSON value.
func parseCell(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
