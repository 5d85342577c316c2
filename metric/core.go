package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all runtime-level metrics for an adapter process. Domain
// drivers register their own metrics through the MetricsRegistry.
type Metrics struct {
	// Adapter lifecycle
	AdapterState       *prometheus.GaugeVec
	CommandsDispatched *prometheus.CounterVec

	// Event publication
	EventsPublished  *prometheus.CounterVec
	EventsSuppressed *prometheus.CounterVec
	EventsBuffered   *prometheus.GaugeVec
	PublishDuration  *prometheus.HistogramVec

	// Liveness reporting
	LivenessTicks *prometheus.CounterVec

	// Transport
	TransportConnected   prometheus.Gauge
	TransportReconnects  prometheus.Counter
	TransportCircuitOpen prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all runtime metrics
func NewMetrics() *Metrics {
	return &Metrics{
		AdapterState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gladys",
				Subsystem: "adapter",
				Name:      "state",
				Help:      "Adapter lifecycle state (0=unknown, 1=active, 2=paused, 3=stopped, 4=error)",
			},
			[]string{"adapter"},
		),

		CommandsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gladys",
				Subsystem: "commands",
				Name:      "dispatched_total",
				Help:      "Total number of remote commands dispatched",
			},
			[]string{"adapter", "command", "outcome"},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gladys",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of events published to the gateway",
			},
			[]string{"adapter", "path"},
		),

		EventsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gladys",
				Subsystem: "events",
				Name:      "suppressed_total",
				Help:      "Total number of events suppressed by flow control",
			},
			[]string{"adapter", "reason"},
		),

		EventsBuffered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gladys",
				Subsystem: "events",
				Name:      "buffered",
				Help:      "Current number of events waiting in the flush buffer",
			},
			[]string{"adapter"},
		),

		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gladys",
				Subsystem: "events",
				Name:      "publish_duration_seconds",
				Help:      "Event publish call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"adapter"},
		),

		LivenessTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gladys",
				Subsystem: "liveness",
				Name:      "ticks_total",
				Help:      "Total number of liveness report ticks",
			},
			[]string{"adapter", "status"},
		),

		TransportConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gladys",
				Subsystem: "transport",
				Name:      "connected",
				Help:      "Transport connection status (0=disconnected, 1=connected)",
			},
		),

		TransportReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gladys",
				Subsystem: "transport",
				Name:      "reconnects_total",
				Help:      "Total number of transport reconnections",
			},
		),

		TransportCircuitOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gladys",
				Subsystem: "transport",
				Name:      "circuit_open",
				Help:      "Transport circuit breaker status (0=closed, 1=open)",
			},
		),
	}
}

// RecordAdapterState records the current lifecycle state of an adapter
func (m *Metrics) RecordAdapterState(adapter string, state int) {
	m.AdapterState.WithLabelValues(adapter).Set(float64(state))
}

// RecordCommand records a dispatched command and its outcome
func (m *Metrics) RecordCommand(adapter, command, outcome string) {
	m.CommandsDispatched.WithLabelValues(adapter, command, outcome).Inc()
}

// RecordPublished records events published through the given path
// ("immediate", "flush", "bypass")
func (m *Metrics) RecordPublished(adapter, path string, n int) {
	m.EventsPublished.WithLabelValues(adapter, path).Add(float64(n))
}

// RecordSuppressed records events suppressed for the given reason
// ("admission", "overflow")
func (m *Metrics) RecordSuppressed(adapter, reason string, n int) {
	m.EventsSuppressed.WithLabelValues(adapter, reason).Add(float64(n))
}

// RecordBuffered records the current flush-buffer depth
func (m *Metrics) RecordBuffered(adapter string, n int) {
	m.EventsBuffered.WithLabelValues(adapter).Set(float64(n))
}

// RecordLivenessTick records a liveness tick with status "ok" or "failed"
func (m *Metrics) RecordLivenessTick(adapter, status string) {
	m.LivenessTicks.WithLabelValues(adapter, status).Inc()
}

// RecordTransportConnected records the transport connection status
func (m *Metrics) RecordTransportConnected(connected bool) {
	if connected {
		m.TransportConnected.Set(1)
	} else {
		m.TransportConnected.Set(0)
	}
}

// RecordReconnect records one transport reconnection
func (m *Metrics) RecordReconnect() {
	m.TransportReconnects.Inc()
}

// RecordCircuitOpen records the circuit breaker opening or closing
func (m *Metrics) RecordCircuitOpen(open bool) {
	if open {
		m.TransportCircuitOpen.Set(1)
	} else {
		m.TransportCircuitOpen.Set(0)
	}
}
