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

	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_lookups_total",
			Help: "Geography lookups by kind and outcome (remote, cache, fallback, local, empty, cancelled)",
		},
		[]string{"kind", "outcome"},
	)

	GeoLookupRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geo_lookup_retries_total",
			Help: "Remote geography calls retried after a rate limit response",
		},
	)

	LocationCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_cache_requests_total",
			Help: "Location cache reads by result",
		},
		[]string{"result"},
	)

	RecordFilterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "record_filter_duration_seconds",
			Help:    "Time spent applying filter criteria to the in-memory record list",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
)
