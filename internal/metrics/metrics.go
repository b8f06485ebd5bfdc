// Package metrics provides Prometheus metrics for the vidbridge pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsCreatedTotal counts newly created transcode jobs.
	JobsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidbridge_jobs_created_total",
		Help: "Total number of transcode jobs created.",
	})

	// JobsDedupedTotal counts submissions that joined an existing job.
	JobsDedupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidbridge_jobs_deduped_total",
		Help: "Total number of submissions deduplicated onto an existing job.",
	})

	// JobsFailedTotal counts failed jobs by pipeline stage.
	JobsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidbridge_jobs_failed_total",
		Help: "Total number of failed transcode jobs, by stage.",
	}, []string{"stage"})

	// JobsReadyTotal counts jobs that reached the Ready state.
	JobsReadyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidbridge_jobs_ready_total",
		Help: "Total number of transcode jobs that became ready.",
	})

	// JobsExpiredTotal counts jobs removed by the retention sweep.
	JobsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidbridge_jobs_expired_total",
		Help: "Total number of cached jobs expired and deleted.",
	})

	// ActiveJobs tracks the number of registry entries.
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidbridge_active_jobs",
		Help: "Current number of jobs held in the registry.",
	})

	// ReadyWaitSeconds observes how long submissions waited for readiness.
	ReadyWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidbridge_ready_wait_seconds",
		Help:    "Time submissions spent waiting for job readiness.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// ReadyOutcomeTotal counts readiness wait outcomes.
	ReadyOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidbridge_ready_outcome_total",
		Help: "Total readiness wait outcomes (ready, failed, timeout).",
	}, []string{"outcome"})

	// RateGateRejectedTotal counts submissions rejected by the creation gate.
	RateGateRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidbridge_rategate_rejected_total",
		Help: "Total submissions rejected by the global creation rate gate.",
	})

	// FileRequestsDeniedTotal counts denied static file requests by reason.
	FileRequestsDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidbridge_file_requests_denied_total",
		Help: "Total denied stream file requests, by reason.",
	}, []string{"reason"})
)

// IncJobFailed records a job failure for the given pipeline stage.
func IncJobFailed(stage string) {
	JobsFailedTotal.WithLabelValues(stage).Inc()
}

// ObserveReadyWait records the duration and outcome of a readiness wait.
func ObserveReadyWait(d time.Duration, outcome string) {
	ReadyWaitSeconds.Observe(d.Seconds())
	ReadyOutcomeTotal.WithLabelValues(outcome).Inc()
}

// IncFileRequestDenied records a denied stream file request.
func IncFileRequestDenied(reason string) {
	FileRequestsDeniedTotal.WithLabelValues(reason).Inc()
}
