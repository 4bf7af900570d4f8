package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"brent-regime-lab/internal/artifacts"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	s := New(Config{Addr: ":0", ArtifactsDir: dir}, zerolog.Nop())
	return s, dir
}

func doGET(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestHistorical_ServesRecords(t *testing.T) {
	s, dir := testServer(t)
	writeArtifact(t, dir, artifacts.SeriesFile, "date,price\n2020-01-01,50.500000\n2020-01-02,51.250000\n")

	rec := doGET(t, s, "/api/historical")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["date"] != "2020-01-01" {
		t.Errorf("date = %v", records[0]["date"])
	}
	if price, ok := records[0]["price"].(float64); !ok || price != 50.5 {
		t.Errorf("price = %v, want numeric 50.5", records[0]["price"])
	}
}

func TestConvergence_EmptyCellsAreNull(t *testing.T) {
	s, dir := testServer(t)
	writeArtifact(t, dir, artifacts.SummaryFile,
		"parameter,mean,sd,r_hat,ess_bulk\nmu[0],4.000000,0.100000,,\n")

	rec := doGET(t, s, "/api/convergence")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if records[0]["r_hat"] != nil {
		t.Errorf("empty cell r_hat = %v, want null", records[0]["r_hat"])
	}
}

func TestMissingArtifacts_StructuredNotFound(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		path    string
		wantMsg string
	}{
		{"/api/historical", "Data not found"},
		{"/api/change-points", "Change points not found"},
		{"/api/convergence", "Model summary not found"},
		{"/api/impact", "Impact analysis not found"},
		{"/api/events", "Events not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := doGET(t, s, tt.path)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)

	rec := doGET(t, s, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if _, ok := body["uptime_seconds"].(float64); !ok {
		t.Errorf("uptime_seconds missing or non-numeric: %v", body["uptime_seconds"])
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := testServer(t)

	rec := doGET(t, s, "/api/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Not found" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestCORSHeaders(t *testing.T) {
	s, dir := testServer(t)
	writeArtifact(t, dir, artifacts.SeriesFile, "date,price\n2020-01-01,50.000000\n")

	rec := doGET(t, s, "/api/historical")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/historical", nil)
	opt := httptest.NewRecorder()
	s.router.ServeHTTP(opt, req)
	if opt.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want 200", opt.Code)
	}
}

func TestEvents_CustomPath(t *testing.T) {
	s, _ := testServer(t)
	eventsDir := t.TempDir()
	writeArtifact(t, eventsDir, "events.csv", "date,event\n1990-08-02,Gulf War begins\n")
	s.h.eventsPath = filepath.Join(eventsDir, "events.csv")

	rec := doGET(t, s, "/api/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var records []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if records[0]["event"] != "Gulf War begins" {
		t.Errorf("event = %v", records[0]["event"])
	}
}

func TestReadRecords_CommentAndTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "props.csv")
	content := "# adf_stat=-2.100000 p_value=0.244 lags=3 stationary=false\n" +
		"date,price,rolling_mean_252d,rolling_vol_21d\n" +
		"2020-01-01,50.000000,50.000000,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (comment row skipped)", len(records))
	}
	if records[0]["rolling_vol_21d"] != nil {
		t.Errorf("empty cell = %v, want nil", records[0]["rolling_vol_21d"])
	}
	if v, ok := records[0]["price"].(float64); !ok || v != 50.0 {
		t.Errorf("price = %v, want float64 50", records[0]["price"])
	}
}
