// Package metrics registers the Prometheus series emitted by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relevance gate.

	GateEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_gate_evaluations_total",
			Help: "Relevance gate evaluations by outcome (passed, blocked, neutralized).",
		},
		[]string{"outcome"},
	)

	GateScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relevance_gate_score",
			Help:    "Final relevance scores (post threshold gate).",
			Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
		},
	)

	GateReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_gate_reloads_total",
			Help: "Hot-reload attempts by status (success, error).",
		},
		[]string{"status"},
	)

	// Ingest pipeline.

	IngestKept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_kept_total",
		Help: "Events kept after normalization and filtering.",
	})

	IngestFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_filtered_total",
		Help: "Events filtered out by whitelist or empty text.",
	})

	IngestDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_dedup_total",
		Help: "Events removed by the deduplication window.",
	})

	IngestProviderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_provider_errors_total",
		Help: "Provider fetch or parse errors.",
	})

	IngestLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_pipeline_last_run_ts",
		Help: "Unix timestamp of the last ingest pipeline run.",
	})

	// Decision pipeline.

	DecisionVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_verdicts_total",
			Help: "Decisions produced, labeled by verdict.",
		},
		[]string{"verdict"},
	)

	DecisionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "decision_evaluation_seconds",
		Help:    "Latency of the full decide pipeline.",
		Buckets: prometheus.DefBuckets,
	})

	// Notifications.

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification attempts by channel and status.",
		},
		[]string{"channel", "status"},
	)

	// AI hint adapter.

	AIHintRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_hint_requests_total",
			Help: "AI hint requests by result (hit, miss, limited, disabled, error).",
		},
		[]string{"result"},
	)
)
