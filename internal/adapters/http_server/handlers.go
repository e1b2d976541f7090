package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"place_extractor/internal/app"
	"place_extractor/internal/domain"
)

// Handlers serves extraction requests. Q may be nil when no database is configured.
type Handlers struct {
	Ex *app.ExtractionService
	Q  *app.QueryService
	// Sessions caps concurrent browser sessions; a full pool answers 503.
	Sessions *semaphore.Weighted
	// Launches throttles how often new extractions may start; over the limit answers 429.
	Launches *rate.Limiter
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type extractRequest struct {
	URL string `json:"url"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/extractions", h.createExtraction)
	s.mux.Get("/v1/extractions", h.latestExtraction)
	s.mux.Get("/v1/extractions/{id}", h.getExtraction)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env domain.Envelope) {
	etag, body := calcETagAndBody(env)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write envelope body")
	}
}

func (h *Handlers) createExtraction(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil || req.URL == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", `expected {"url": "<maps place url>"}`)
		return
	}
	if _, err := app.ValidatePlaceURL(req.URL); err != nil {
		noteExtraction(r, req.URL, "", "invalid")
		writeProblem(w, http.StatusBadRequest, "Invalid URL", err.Error())
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	if h.Launches != nil && !h.Launches.Allow() {
		noteExtraction(r, req.URL, "", "throttled")
		w.Header().Set("Retry-After", "1")
		writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "extraction rate limit reached")
		return
	}
	if h.Sessions != nil {
		if !h.Sessions.TryAcquire(1) {
			noteExtraction(r, req.URL, "", "busy")
			writeProblem(w, http.StatusServiceUnavailable, "Busy", "all browser sessions are in use")
			return
		}
		defer h.Sessions.Release(1)
	}

	env, err := h.Ex.Extract(r.Context(), req.URL, refresh)
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		noteExtraction(r, req.URL, "", "invalid")
		writeProblem(w, http.StatusBadRequest, "Invalid URL", err.Error())
		return
	case err != nil:
		noteExtraction(r, req.URL, env.ID, "storage_error")
		log.Error().Err(err).Str("url", req.URL).Msg("extraction not stored")
		writeProblem(w, http.StatusInternalServerError, "Storage Error", "extraction could not be stored")
		return
	}
	result := "ok"
	if env.Results.Failed() {
		result = "error_record"
	}
	noteExtraction(r, env.SourceURL, env.ID, result)
	writeEnvelope(w, r, http.StatusOK, env)
}

func (h *Handlers) getExtraction(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "storage is not configured")
		return
	}
	env, err := h.Q.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.readFailed(w, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, env)
}

func (h *Handlers) latestExtraction(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "storage is not configured")
		return
	}
	u := r.URL.Query().Get("url")
	if u == "" {
		writeProblem(w, http.StatusBadRequest, "Missing url", "url query parameter is required")
		return
	}
	env, err := h.Q.LatestByURL(r.Context(), u)
	if err != nil {
		h.readFailed(w, err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, env)
}

func (h *Handlers) readFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "extraction not found")
	case errors.Is(err, domain.ErrInvalidURL):
		writeProblem(w, http.StatusBadRequest, "Invalid URL", err.Error())
	default:
		log.Error().Err(err).Msg("extraction lookup failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "lookup failed")
	}
}
