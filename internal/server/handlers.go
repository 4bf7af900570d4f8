package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"brent-regime-lab/internal/artifacts"
	"brent-regime-lab/internal/observability"
)

// Handlers serves the CSV artifacts as JSON record arrays.
type Handlers struct {
	artifactsDir string
	eventsPath   string
	startedAt    time.Time
	log          zerolog.Logger
}

// NewHandlers creates handlers rooted at the artifacts directory.
func NewHandlers(artifactsDir, eventsPath string, log zerolog.Logger) *Handlers {
	if eventsPath == "" {
		eventsPath = filepath.Join(artifactsDir, artifacts.EventsFile)
	}
	return &Handlers{
		artifactsDir: artifactsDir,
		eventsPath:   eventsPath,
		startedAt:    time.Now().UTC(),
		log:          log,
	}
}

// Historical serves the cleaned price series.
func (h *Handlers) Historical(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, filepath.Join(h.artifactsDir, artifacts.SeriesFile), "Data not found")
}

// ChangePoints serves the detected change points.
func (h *Handlers) ChangePoints(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, filepath.Join(h.artifactsDir, artifacts.ChangePointsFile), "Change points not found")
}

// Convergence serves the posterior and convergence summary table.
func (h *Handlers) Convergence(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, filepath.Join(h.artifactsDir, artifacts.SummaryFile), "Model summary not found")
}

// Impact serves the per-regime impact analysis.
func (h *Handlers) Impact(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, filepath.Join(h.artifactsDir, artifacts.ImpactFile), "Impact analysis not found")
}

// Events serves the curated major events table.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, h.eventsPath, "Events not found")
}

// Health reports server liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// NotFound is the fallback for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// serveArtifact renders a CSV artifact as a JSON array of records, or a
// structured 404 when the artifact has not been produced yet.
func (h *Handlers) serveArtifact(w http.ResponseWriter, path, missingMsg string) {
	records, err := ReadRecords(path)
	if errors.Is(err, os.ErrNotExist) {
		observability.RecordArtifactMissing(filepath.Base(path))
		writeJSON(w, http.StatusNotFound, map[string]string{"error": missingMsg})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("artifact", path).Msg("read artifact")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read artifact"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
