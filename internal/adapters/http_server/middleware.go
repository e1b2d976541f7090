package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"place_extractor/internal/adapters/observability"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// serve runs next and reports the status and matched route.
func serve(next http.Handler, w http.ResponseWriter, r *http.Request) (status int, route string) {
	sw := &srw{ResponseWriter: w}
	next.ServeHTTP(sw, r)
	return sw.Status(), routePattern(r)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ---- per-request extraction note ----

// extractionNote is filled in by the extraction handlers and read back by
// Logger once the response is written.
type extractionNote struct {
	sourceURL string
	id        string
	result    string // ok|error_record|invalid|busy|throttled|storage_error
}

type noteKey struct{}

func noteExtraction(r *http.Request, sourceURL, id, result string) {
	if n, ok := r.Context().Value(noteKey{}).(*extractionNote); ok {
		n.sourceURL, n.id, n.result = sourceURL, id, result
	}
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status, route := serve(next, w, r)
		observability.ObserveHTTP(route, r.Method, status, time.Since(start))
	})
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			note := &extractionNote{}
			r = r.WithContext(context.WithValue(r.Context(), noteKey{}, note))
			status, route := serve(next, w, r)

			ev := l.Info().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("remote", remoteIP(r))
			if note.result != "" {
				ev = ev.Str("source_url", note.sourceURL).Str("extraction_result", note.result)
				if note.id != "" {
					ev = ev.Str("extraction_id", note.id)
				}
			} else {
				ev = ev.Str("ua", r.UserAgent())
			}
			ev.Msg("http_request")
		})
	}
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
