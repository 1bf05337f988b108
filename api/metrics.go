package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by path, method, and status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answerit_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "status_code"},
	)

	// RequestDurationSeconds tracks HTTP request latency in seconds.
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "answerit_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"path", "method", "status_code"},
	)

	// CacheHitsTotal counts query answers served from the semantic cache.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "answerit_cache_hits_total",
			Help: "Total number of query answers served from the cache.",
		},
	)

	// CacheMissesTotal counts query answers generated by the full pipeline.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "answerit_cache_misses_total",
			Help: "Total number of query answers generated by the pipeline.",
		},
	)
)

var registerOnce sync.Once

// RegisterMetrics registers the API metrics with the default registry.
// Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDurationSeconds,
			CacheHitsTotal,
			CacheMissesTotal,
		)
	})
}

// MetricsHandler exposes the /metrics endpoint for Prometheus to scrape.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rec.statusCode)

		RequestsTotal.WithLabelValues(r.URL.Path, r.Method, status).Inc()
		RequestDurationSeconds.WithLabelValues(r.URL.Path, r.Method, status).Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
