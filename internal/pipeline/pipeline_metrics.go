package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/warden/internal/dedup"
	"github.com/linnemanlabs/warden/internal/decide"
	"github.com/linnemanlabs/warden/internal/incident"
)

// Metrics holds Prometheus metrics for the incident pipeline.
type Metrics struct {
	SubmitsTotal      *prometheus.CounterVec
	DedupDegraded     prometheus.Counter
	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	DecisionsTotal    *prometheus.CounterVec
	Confidence        prometheus.Histogram
	AgentErrorsTotal  prometheus.Counter
	Notifications     *prometheus.CounterVec
	StatusWriteErrors prometheus.Counter
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_submits_total",
			Help: "Total alarm submissions by dedup result.",
		}, []string{"result"}),
		DedupDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_dedup_degraded_total",
			Help: "Dedup checks that failed open because the store errored.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_pipeline_runs_total",
			Help: "Total pipeline runs by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}, []string{"status"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_decisions_total",
			Help: "Total decisions by source.",
		}, []string{"source"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_decision_confidence",
			Help:    "Confidence score of produced decisions.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 .. 1.0
		}),
		AgentErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_agent_errors_total",
			Help: "Agent invocations that failed and fell back to rules.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_notifications_total",
			Help: "Total escalation notifications by severity.",
		}, []string{"severity"}),
		StatusWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_status_write_errors_total",
			Help: "Incident status writes that failed.",
		}),
	}

	reg.MustRegister(
		m.SubmitsTotal,
		m.DedupDegraded,
		m.RunsTotal,
		m.RunDuration,
		m.DecisionsTotal,
		m.Confidence,
		m.AgentErrorsTotal,
		m.Notifications,
		m.StatusWriteErrors,
	)

	return m
}

// DedupHooks returns dedup hooks that increment the corresponding metrics.
func (m *Metrics) DedupHooks() dedup.Hooks {
	return dedup.Hooks{
		OnResult: func(action dedup.Action) {
			m.SubmitsTotal.WithLabelValues(string(action)).Inc()
		},
		OnDegraded: func() {
			m.DedupDegraded.Inc()
		},
	}
}

// DecideHooks returns router hooks that increment the corresponding metrics.
func (m *Metrics) DecideHooks() decide.Hooks {
	return decide.Hooks{
		OnDecision: func(source incident.DecisionSource, confidence float64) {
			m.DecisionsTotal.WithLabelValues(string(source)).Inc()
			m.Confidence.Observe(confidence)
		},
		OnAgentError: func() {
			m.AgentErrorsTotal.Inc()
		},
	}
}
