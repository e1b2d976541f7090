package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "placex"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	Extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "extractions_total", Help: "Pipeline runs by result."},
		[]string{"result"}, // ok|error
	)
	ExtractionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "extraction_duration_seconds",
			Help:    "Pipeline run duration seconds.",
			Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120, 180},
		},
		[]string{"result"},
	)
	FieldOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "field_outcomes_total", Help: "Field lookups by outcome."},
		[]string{"field", "outcome"}, // outcome: found|not_found|fault
	)
	NavigationSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "navigation_steps_total", Help: "Panel interactions by result."},
		[]string{"step", "result"}, // result: ok|miss
	)
	ReviewNodes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "review_nodes",
			Help:    "Review nodes examined and kept per run.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30},
		},
		[]string{"kind"}, // candidates|kept
	)
	DateTiers = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "first_review_tier_total", Help: "Tier that produced the first review estimate."},
		[]string{"tier"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

// Serve exposes reg on a separate addr, next to the API's own /metrics route.
// An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, Extractions, ExtractionLatency,
		FieldOutcomes, NavigationSteps, ReviewNodes, DateTiers, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExtraction(failed bool, dur time.Duration) {
	result := "ok"
	if failed {
		result = "error"
	}
	Extractions.WithLabelValues(result).Inc()
	ExtractionLatency.WithLabelValues(result).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// Recorder feeds pipeline step outcomes into the drift counters.
type Recorder struct{}

func (Recorder) Field(field, outcome string) { FieldOutcomes.WithLabelValues(field, outcome).Inc() }

func (Recorder) Step(step string, ok bool) {
	result := "miss"
	if ok {
		result = "ok"
	}
	NavigationSteps.WithLabelValues(step, result).Inc()
}

func (Recorder) Reviews(candidates, kept int) {
	ReviewNodes.WithLabelValues("candidates").Observe(float64(candidates))
	ReviewNodes.WithLabelValues("kept").Observe(float64(kept))
}

func (Recorder) DateTier(tier string) { DateTiers.WithLabelValues(tier).Inc() }
