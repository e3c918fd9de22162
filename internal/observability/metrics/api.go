// Package metrics provides external API client metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics contains Prometheus metrics for the external HTTP API clients
type APIMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHitsTotal  *prometheus.CounterVec
}

// NewAPIMetrics creates and registers new API client metrics
func NewAPIMetrics(registry *prometheus.Registry) (*APIMetrics, error) {
	m := &APIMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *APIMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of external API requests",
		},
		[]string{"service", "status"}, // service: plantnet, gemini
	)

	m.requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_request_errors_total",
			Help: "Total number of external API request errors",
		},
		[]string{"service", "error_type"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "api_request_duration_seconds",
			Help: "Time taken for external API requests",
			// Both upstream APIs run with a 30 second timeout
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"service"},
	)

	m.cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Total number of API responses served from cache",
		},
		[]string{"service"},
	)

	return nil
}

// RecordRequest increments the request counter for a service.
func (m *APIMetrics) RecordRequest(service, status string) {
	m.requestsTotal.WithLabelValues(service, status).Inc()
}

// RecordRequestError increments the error counter for a service.
func (m *APIMetrics) RecordRequestError(service, errorType string) {
	m.requestErrors.WithLabelValues(service, errorType).Inc()
}

// RecordRequestDuration observes a request duration in seconds.
func (m *APIMetrics) RecordRequestDuration(service string, duration float64) {
	m.requestDuration.WithLabelValues(service).Observe(duration)
}

// RecordCacheHit increments the cache hit counter for a service.
func (m *APIMetrics) RecordCacheHit(service string) {
	m.cacheHitsTotal.WithLabelValues(service).Inc()
}

// Describe implements the Collector interface
func (m *APIMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestErrors.Describe(ch)
	m.requestDuration.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *APIMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestErrors.Collect(ch)
	m.requestDuration.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
}
