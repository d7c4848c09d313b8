// Package metrics provides Prometheus instrumentation for the pairwire
// signaling server. It exposes gauges for participant and pair counts,
// counters for relayed signals and reports, and histograms for match wait
// and session duration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairwire_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// Participants tracks the current number of registered participants.
	Participants = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairwire_participants",
		Help: "Current number of registered participants",
	})

	// QueueSize tracks the current number of participants waiting for a partner.
	QueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairwire_match_queue_size",
		Help: "Current number of participants in the matching queue",
	})

	// ActivePairs tracks the current number of active sessions.
	ActivePairs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pairwire_active_pairs",
		Help: "Current number of active pairs",
	})

	// SignalsTotal counts relayed signaling messages, labeled by outcome:
	// "delivered", "dropped", or "failed".
	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pairwire_signals_total",
		Help: "Total number of signaling messages processed",
	}, []string{"result"})

	// ReportsTotal counts accepted abuse reports.
	ReportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pairwire_reports_total",
		Help: "Total number of abuse reports accepted",
	})

	// MatchWaitSeconds records how long the matched waiter sat in the queue.
	MatchWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pairwire_match_wait_seconds",
		Help:    "Queue wait time until a match was made",
		Buckets: []float64{.1, .5, 1, 2, 5, 10, 15, 20, 30, 60},
	})

	// SessionDurationSeconds records how long pairs stayed together.
	SessionDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pairwire_session_duration_seconds",
		Help:    "Duration of closed sessions",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		Participants,
		QueueSize,
		ActivePairs,
		SignalsTotal,
		ReportsTotal,
		MatchWaitSeconds,
		SessionDurationSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
