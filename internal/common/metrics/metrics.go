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

	AffinityScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumatch_affinity_scores_total",
			Help: "Total affinity scores computed, by outcome",
		},
		[]string{"outcome"}, // scored / neutral_fallback
	)

	AffinityScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edumatch_affinity_score",
			Help:    "Distribution of computed affinity scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	DecksBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumatch_decks_built_total",
			Help: "Total deck builds, by candidate source",
		},
		[]string{"source"}, // store / fallback
	)

	DecisionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumatch_decisions_total",
			Help: "Total swipe decisions recorded, by action",
		},
		[]string{"action"},
	)

	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edumatch_matches_total",
			Help: "Total reciprocal matches created",
		},
		[]string{"super"},
	)
)
