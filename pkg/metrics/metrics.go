// Package metrics provides Prometheus instrumentation for taskpool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for taskpool components.
type Registry struct {
	// Pool Metrics
	PoolCapacity   *prometheus.GaugeVec
	PoolWorkers    *prometheus.GaugeVec
	PoolActive     *prometheus.GaugeVec
	PoolIdle       *prometheus.GaugeVec
	PoolQueued     *prometheus.GaugeVec
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	TasksRejected  *prometheus.CounterVec
	WorkerCrashes  *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec

	// Lease Metrics
	LeasesAcquired *prometheus.CounterVec
	LeasesReleased *prometheus.CounterVec

	// Schedule Metrics
	JobsScheduled *prometheus.CounterVec
	JobsFired     *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by taskpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Pool Metrics
		PoolCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "capacity",
				Help:      "Configured maximum number of workers",
			},
			[]string{"pool_name"},
		),

		PoolWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "workers",
				Help:      "Current number of live workers",
			},
			[]string{"pool_name"},
		),

		PoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "active_workers",
				Help:      "Number of workers executing a task or held by a lease",
			},
			[]string{"pool_name"},
		),

		PoolIdle: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "idle_workers",
				Help:      "Number of workers available for dispatch",
			},
			[]string{"pool_name"},
		),

		PoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "queued_tasks",
				Help:      "Number of tasks waiting for dispatch",
			},
			[]string{"pool_name"},
		),

		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of accepted submissions",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that resolved with an error",
			},
			[]string{"pool_name"},
		),

		TasksRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_rejected_total",
				Help:      "Total number of submissions rejected at the queue limit",
			},
			[]string{"pool_name"},
		),

		WorkerCrashes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "worker_crashes_total",
				Help:      "Total number of worker crashes",
			},
			[]string{"pool_name"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		// Lease Metrics
		LeasesAcquired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "lease",
				Name:      "acquired_total",
				Help:      "Total number of worker leases acquired",
			},
			[]string{"pool_name"},
		),

		LeasesReleased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "lease",
				Name:      "released_total",
				Help:      "Total number of worker leases released",
			},
			[]string{"pool_name"},
		),

		// Schedule Metrics
		JobsScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "schedule",
				Name:      "jobs_scheduled_total",
				Help:      "Total number of jobs registered with a scheduler",
			},
			[]string{"scheduler_name"},
		),

		JobsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "schedule",
				Name:      "jobs_fired_total",
				Help:      "Total number of job payloads submitted to a pool",
			},
			[]string{"scheduler_name"},
		),

		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "schedule",
				Name:      "jobs_failed_total",
				Help:      "Total number of job submissions that were rejected",
			},
			[]string{"scheduler_name"},
		),
	}
}
