// Package metrics exposes Prometheus collectors for the articles service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal              *prometheus.CounterVec
	requestDurationSeconds     *prometheus.HistogramVec
	connectionErrorsTotal      *prometheus.CounterVec
	activeWorkers              prometheus.Gauge
	scrapeRunsTotal            *prometheus.CounterVec
	scrapeInsertedTotal        *prometheus.CounterVec
	scrapeDurationSeconds      prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		requestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_requests_total",
				Help: "Total number of TCP requests dispatched, labeled by route and status code.",
			},
			[]string{"route", "status"},
		)

		requestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "articles_request_duration_seconds",
				Help:    "Histogram of handler latencies, labeled by route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"route"},
		)

		connectionErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_connection_errors_total",
				Help: "Total number of connection level failures, labeled by stage.",
			},
			[]string{"stage"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "articles_active_workers",
				Help: "Number of workers currently serving a connection.",
			},
		)

		scrapeRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_scrape_runs_total",
				Help: "Total number of scrape runs, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		scrapeInsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_scrape_inserted_total",
				Help: "Total number of articles inserted by scrapes, labeled by source.",
			},
			[]string{"source"},
		)

		scrapeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "articles_scrape_duration_seconds",
				Help:    "Histogram of end to end scrape durations.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of admin HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of admin HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "articles_rate_limit_delays_seconds",
				Help:    "Histogram of outbound fetch rate limit waits, labeled by host.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one dispatched TCP request.
func ObserveRequest(route string, status int, duration time.Duration) {
	Init()
	requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	requestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveConnectionError counts a failure at the given stage (read, write, deadline).
func ObserveConnectionError(stage string) {
	Init()
	connectionErrorsTotal.WithLabelValues(stage).Inc()
}

// ObserveScrape records one scrape run.
func ObserveScrape(source, status string, inserted int, duration time.Duration) {
	Init()
	scrapeRunsTotal.WithLabelValues(source, status).Inc()
	if inserted > 0 {
		scrapeInsertedTotal.WithLabelValues(source).Add(float64(inserted))
	}
	scrapeDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the admin HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}
