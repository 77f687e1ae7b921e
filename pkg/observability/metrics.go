package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// Metrics holds the planner's collectors.
type Metrics struct {
	NodeVisits      *prometheus.CounterVec
	NodeDuration    *prometheus.HistogramVec
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	Turns           *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on promhttp.Handler().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NodeVisits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfarer_node_visits_total",
				Help: "Total number of node executions",
			},
			[]string{"node", "mode"}, // mode: input, primed
		),
		NodeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wayfarer_node_duration_seconds",
				Help:    "Node execution duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"node"},
		),
		GatewayCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfarer_gateway_calls_total",
				Help: "Total number of search and reasoning calls",
			},
			[]string{"gateway", "purpose", "status"}, // status: success, error
		),
		GatewayDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wayfarer_gateway_duration_seconds",
				Help:    "Gateway call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 45},
			},
			[]string{"gateway"},
		),
		Turns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfarer_turns_total",
				Help: "Total number of processed user messages",
			},
			[]string{"outcome"}, // outcome: reply, searching, complete, error
		),
	}
}

// RecordTurn counts one processed message.
func (m *Metrics) RecordTurn(r domain.Reply, err error) {
	outcome := "reply"
	switch {
	case err != nil:
		outcome = "error"
	case r.Complete:
		outcome = "complete"
	case r.Searching:
		outcome = "searching"
	}
	m.Turns.WithLabelValues(outcome).Inc()
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			mode := "input"
			if e.Priming {
				mode = "primed"
			}
			m.NodeVisits.WithLabelValues(e.NodeID, mode).Inc()
			m.NodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
		},
		OnGatewayCall: func(_ context.Context, e *domain.GatewayEvent) {
			status := "success"
			if e.Err != nil {
				status = "error"
			}
			m.GatewayCalls.WithLabelValues(e.Gateway, e.Purpose, status).Inc()
			m.GatewayDuration.WithLabelValues(e.Gateway).Observe(e.Duration.Seconds())
		},
	}
}
