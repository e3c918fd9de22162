// Package metrics provides bot conversation metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics contains Prometheus metrics for bot conversation handling
type BotMetrics struct {
	registry *prometheus.Registry

	// Inbound traffic metrics
	messagesTotal *prometheus.CounterVec
	commandsTotal *prometheus.CounterVec

	// Photo pipeline metrics
	identificationsTotal   *prometheus.CounterVec
	identificationDuration *prometheus.HistogramVec

	// Broadcast metrics
	broadcastsTotal          prometheus.Counter
	broadcastDeliveriesTotal *prometheus.CounterVec

	// Delivery metrics
	repliesTotal     *prometheus.CounterVec
	replyErrorsTotal prometheus.Counter
}

// NewBotMetrics creates and registers new bot metrics
func NewBotMetrics(registry *prometheus.Registry) (*BotMetrics, error) {
	m := &BotMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *BotMetrics) initMetrics() error {
	m.messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Total number of inbound messages handled",
		},
		[]string{"kind"}, // kind: command, photo, text
	)

	m.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of commands handled",
		},
		[]string{"command", "status"}, // status: success, rejected
	)

	m.identificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_identifications_total",
			Help: "Total number of photo identification runs",
		},
		[]string{"status"}, // status: success, error
	)

	m.identificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bot_identification_duration_seconds",
			Help: "Time taken for the full photo identification pipeline",
			// Covers the two chained 30s API calls plus download time
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"stage"}, // stage: download, recognize, advise, total
	)

	m.broadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_broadcasts_total",
		Help: "Total number of broadcast runs",
	})

	m.broadcastDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_broadcast_deliveries_total",
			Help: "Total number of per-recipient broadcast deliveries",
		},
		[]string{"status"}, // status: success, error
	)

	m.repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_replies_total",
			Help: "Total number of outbound messages and edits",
		},
		[]string{"kind"}, // kind: send, edit
	)

	m.replyErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_reply_errors_total",
		Help: "Total number of outbound delivery errors",
	})

	return nil
}

// RecordMessage increments the inbound message counter for the given kind.
func (m *BotMetrics) RecordMessage(kind string) {
	m.messagesTotal.WithLabelValues(kind).Inc()
}

// RecordCommand increments the command counter.
func (m *BotMetrics) RecordCommand(command, status string) {
	m.commandsTotal.WithLabelValues(command, status).Inc()
}

// RecordIdentification increments the identification run counter.
func (m *BotMetrics) RecordIdentification(status string) {
	m.identificationsTotal.WithLabelValues(status).Inc()
}

// RecordIdentificationDuration observes a pipeline stage duration in seconds.
func (m *BotMetrics) RecordIdentificationDuration(stage string, duration float64) {
	m.identificationDuration.WithLabelValues(stage).Observe(duration)
}

// RecordBroadcast increments the broadcast run counter.
func (m *BotMetrics) RecordBroadcast() {
	m.broadcastsTotal.Inc()
}

// RecordBroadcastDelivery increments the per-recipient delivery counter.
func (m *BotMetrics) RecordBroadcastDelivery(status string) {
	m.broadcastDeliveriesTotal.WithLabelValues(status).Inc()
}

// RecordReply increments the outbound message counter.
func (m *BotMetrics) RecordReply(kind string) {
	m.repliesTotal.WithLabelValues(kind).Inc()
}

// RecordReplyError increments the outbound delivery error counter.
func (m *BotMetrics) RecordReplyError() {
	m.replyErrorsTotal.Inc()
}

// Describe implements the Collector interface
func (m *BotMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.messagesTotal.Describe(ch)
	m.commandsTotal.Describe(ch)
	m.identificationsTotal.Describe(ch)
	m.identificationDuration.Describe(ch)
	m.broadcastsTotal.Describe(ch)
	m.broadcastDeliveriesTotal.Describe(ch)
	m.repliesTotal.Describe(ch)
	m.replyErrorsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *BotMetrics) Collect(ch chan<- prometheus.Metric) {
	m.messagesTotal.Collect(ch)
	m.commandsTotal.Collect(ch)
	m.identificationsTotal.Collect(ch)
	m.identificationDuration.Collect(ch)
	m.broadcastsTotal.Collect(ch)
	m.broadcastDeliveriesTotal.Collect(ch)
	m.repliesTotal.Collect(ch)
	m.replyErrorsTotal.Collect(ch)
}
