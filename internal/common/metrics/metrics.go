// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CreditScoresCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_scores_calculated_total",
			Help: "Credit scores produced, by pipeline outcome and risk tier",
		},
		[]string{"outcome", "risk_tier"},
	)

	CreditScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_score_value",
			Help:    "Distribution of final credit scores",
			Buckets: prometheus.LinearBuckets(300, 50, 12),
		},
	)

	CreditHistoryFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_history_fetch_failures_total",
			Help: "Historical sample loads that fell back to an empty sample",
		},
		[]string{"reason"},
	)

	CreditScoringRunsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_scoring_runs_saved_total",
			Help: "Scoring run persistence attempts by result",
		},
		[]string{"result"},
	)

	CreditWeightsCalibrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_weights_calibrated_total",
			Help: "Calibration passes by strategy and whether weights moved",
		},
		[]string{"strategy", "changed"},
	)
)
