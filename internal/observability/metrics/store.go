// Package metrics provides counter-store metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics contains Prometheus metrics for the flat-file counter store
type StoreMetrics struct {
	registry *prometheus.Registry

	operationsTotal *prometheus.CounterVec
	recipientsGauge prometheus.Gauge
	speciesGauge    prometheus.Gauge
}

// NewStoreMetrics creates and registers new store metrics
func NewStoreMetrics(registry *prometheus.Registry) (*StoreMetrics, error) {
	m := &StoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *StoreMetrics) initMetrics() error {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of counter store operations",
		},
		[]string{"operation", "status"}, // operation: recipient_activity, species_occurrence
	)

	m.recipientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "store_recipients",
		Help: "Number of known recipients",
	})

	m.speciesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "store_species",
		Help: "Number of distinct recognized species",
	})

	return nil
}

// RecordOperation increments the store operation counter.
func (m *StoreMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// SetRecipients updates the known-recipient gauge.
func (m *StoreMetrics) SetRecipients(count int) {
	m.recipientsGauge.Set(float64(count))
}

// SetSpecies updates the distinct-species gauge.
func (m *StoreMetrics) SetSpecies(count int) {
	m.speciesGauge.Set(float64(count))
}

// Describe implements the Collector interface
func (m *StoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.recipientsGauge.Describe(ch)
	m.speciesGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *StoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.recipientsGauge.Collect(ch)
	m.speciesGauge.Collect(ch)
}
