package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	return m
}

func TestLogger_RecordsExtractionFields(t *testing.T) {
	var buf bytes.Buffer
	m := chi.NewRouter()
	m.Use(Logger(zerolog.New(&buf)))
	m.Post("/v1/extractions", func(w http.ResponseWriter, r *http.Request) {
		noteExtraction(r, "https://maps.google.com/?cid=1", "id-7", "error_record")
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/extractions", nil))

	line := logLine(t, &buf)
	if line["route"] != "/v1/extractions" || line["status"] != float64(200) {
		t.Fatalf("unexpected line: %v", line)
	}
	if line["source_url"] != "https://maps.google.com/?cid=1" || line["extraction_id"] != "id-7" || line["extraction_result"] != "error_record" {
		t.Fatalf("missing extraction fields: %v", line)
	}
	if _, ok := line["ua"]; ok {
		t.Fatalf("extraction requests do not log the user agent: %v", line)
	}
}

func TestLogger_PlainRouteHasNoExtractionFields(t *testing.T) {
	var buf bytes.Buffer
	m := chi.NewRouter()
	m.Use(Logger(zerolog.New(&buf)))
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	line := logLine(t, &buf)
	if line["status"] != float64(204) {
		t.Fatalf("status: %v", line)
	}
	if _, ok := line["source_url"]; ok {
		t.Fatalf("unexpected extraction fields: %v", line)
	}
}

func TestRoutePattern_FallsBackToPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/unrouted", nil)
	if got := routePattern(r); got != "/unrouted" {
		t.Fatalf("route = %q", got)
	}
}
