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

	AdapterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_adapter_calls_total",
			Help: "Total number of resource adapter calls",
		},
		[]string{"category", "backend"},
	)

	AdapterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_adapter_failures_total",
			Help: "Total number of failed or timed-out adapter calls",
		},
		[]string{"category", "reason"},
	)

	AdapterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "search_adapter_duration_seconds",
			Help: "Duration of adapter calls in seconds",
		},
		[]string{"category"},
	)

	PlanExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_plan_executions_total",
			Help: "Total number of executed search plans",
		},
		[]string{"mode", "outcome"},
	)

	FallbacksUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_fallbacks_used_total",
			Help: "Total number of sequential plans served by a fallback category",
		},
		[]string{"category"},
	)

	LowConfidenceQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_low_confidence_queries_total",
			Help: "Total number of queries classified with low confidence",
		},
	)
)
