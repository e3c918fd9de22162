// Package observability provides Prometheus metrics functionality for monitoring the bot.
package observability

import (
	"fmt"
	stdlog "log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/t-lnarr/plant/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Bot      *metrics.BotMetrics
	API      *metrics.APIMetrics
	Store    *metrics.StoreMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	botMetrics, err := metrics.NewBotMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot metrics: %w", err)
	}

	apiMetrics, err := metrics.NewAPIMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create API metrics: %w", err)
	}

	storeMetrics, err := metrics.NewStoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create store metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Bot:      botMetrics,
		API:      apiMetrics,
		Store:    storeMetrics,
	}, nil
}

// RegisterHandlers registers the metrics and health endpoints with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
	mux.HandleFunc("/healthz", healthzHandler)
}

// healthzHandler is the HTTP handler for the /healthz liveness endpoint.
func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      stdlog.New(os.Stderr, "metrics handler: ", stdlog.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
