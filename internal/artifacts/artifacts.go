// Package artifacts renders and persists the CSV files that form the
// boundary to the presentation layer. The dashboard and API only ever
// read these files; they run no inference. Every write is atomic (temp
// file + rename) so a failed stage never leaves a partial artifact
// behind.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside the output directory.
const (
	SeriesFile       = "brent_prices_cleaned.csv"
	PropertiesFile   = "series_properties.csv"
	ChangePointsFile = "detected_change_points.csv"
	SummaryFile      = "model_summary.csv"
	ImpactFile       = "market_impact_analysis.csv"
	EventsFile       = "major_events.csv"
)

// WriteFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, creating parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
