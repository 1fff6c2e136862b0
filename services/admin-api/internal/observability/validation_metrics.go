package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_key_validator",
			Name:      "runs_total",
			Help:      "Settled key validation runs by rendered result",
		},
		[]string{"result"}, // pass, fail, error
	)

	RejectedTriggers = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "admin_key_validator",
			Name:      "rejected_triggers_total",
			Help:      "Triggers ignored because a run was already in flight",
		},
	)

	LastConfidence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "admin_key_validator",
			Name:      "last_confidence_percent",
			Help:      "Confidence of the most recent settled run",
		},
	)

	RunLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "admin_key_validator",
			Name:      "run_duration_seconds",
			Help:      "Time from trigger to settled outcome",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	InflightRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "admin_key_validator",
			Name:      "inflight_runs",
			Help:      "1 while a validation run is in flight",
		},
	)
)
