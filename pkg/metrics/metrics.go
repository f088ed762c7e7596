// Package metrics defines the Prometheus metric collectors used across the
// platform and serves them for scraping on a dedicated port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/resilience"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ExtractionsTotal     *prometheus.CounterVec
	ExtractionLatency    *prometheus.HistogramVec
	KeywordsPerDocument  prometheus.Histogram
	DocumentBytes        *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	JobsProcessedTotal   *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_extractions_total",
				Help: "Total keyword extractions by status (success, empty, error, timeout).",
			},
			[]string{"status"},
		),
		ExtractionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyword_extraction_latency_seconds",
				Help:    "Keyword extraction latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"cache_status"},
		),
		KeywordsPerDocument: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keywords_per_document",
				Help:    "Number of cleaned keywords produced per document.",
				Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
		),
		DocumentBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "document_size_bytes",
				Help:    "Size of uploaded documents by format.",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		JobsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_jobs_processed_total",
				Help: "Asynchronous extraction jobs handled by the worker, by status.",
			},
			[]string{"status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ExtractionsTotal,
		m.ExtractionLatency,
		m.KeywordsPerDocument,
		m.DocumentBytes,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.JobsProcessedTotal,
		m.CircuitBreakerState,
	)

	return m
}

// ObserveBreaker matches resilience.CircuitBreakerConfig.OnStateChange.
func (m *Metrics) ObserveBreaker(name string, _, to resilience.State) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
}
