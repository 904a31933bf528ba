// Package metrics provides Prometheus instrumentation for taskpool components.
//
// This package enables monitoring and observability for taskpool's worker
// pools, leases, and schedulers through Prometheus metrics.
//
// # Overview
//
// The metrics package provides automatic instrumentation for:
//   - Worker pools (capacity, live workers, active workers, queued tasks)
//   - Task outcomes (submitted, completed, failed, rejected, durations)
//   - Worker crashes and replacements
//   - Leases (acquired, released)
//   - Scheduling (jobs scheduled, fired, failed)
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	// Worker pool with metrics
//	p := pool.NewWithMetrics(4, factory, "converter_pool")
//
//	// Scheduler reporting into a registry
//	s := schedule.NewWithConfig(schedule.Config{
//		Pool:    p,
//		Metrics: metrics.DefaultRegistry,
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//
//	p := pool.NewWithConfigAndMetrics(
//		pool.Config{Capacity: 4, Factory: factory},
//		"custom_pool",
//		config,
//	)
//
// # Available Metrics
//
// ## Worker Pool Metrics
//
//   - taskpool_pool_capacity: Configured maximum number of workers
//   - taskpool_pool_workers: Current number of live workers
//   - taskpool_pool_active_workers: Workers executing a task or held by a lease
//   - taskpool_pool_idle_workers: Workers available for dispatch
//   - taskpool_pool_queued_tasks: Tasks waiting for dispatch
//   - taskpool_pool_tasks_submitted_total: Total accepted submissions
//   - taskpool_pool_tasks_completed_total: Total tasks completed successfully
//   - taskpool_pool_tasks_failed_total: Total tasks that resolved with an error
//   - taskpool_pool_tasks_rejected_total: Total submissions rejected at the queue limit
//   - taskpool_pool_worker_crashes_total: Total worker crashes
//   - taskpool_pool_task_duration_seconds: Time spent executing tasks
//
// ## Lease Metrics
//
//   - taskpool_lease_acquired_total: Total worker leases acquired
//   - taskpool_lease_released_total: Total worker leases released
//
// ## Schedule Metrics
//
//   - taskpool_schedule_jobs_scheduled_total: Total jobs registered
//   - taskpool_schedule_jobs_fired_total: Total job payloads submitted to a pool
//   - taskpool_schedule_jobs_failed_total: Total job submissions rejected or failed
//
// # Labels
//
// Metrics include relevant labels for filtering and aggregation:
//
//   - pool_name: User-provided name for the pool instance
//   - scheduler_name: User-provided name for the scheduler instance
//
// # Configuration
//
// Metrics can be configured globally or per-component:
//
//	config := metrics.Config{
//		Enabled:   true,                           // Enable/disable metrics
//		Registry:  prometheus.DefaultRegisterer,   // Custom registry
//		Namespace: "myapp",                        // Override default "taskpool"
//		Labels:    prometheus.Labels{"version": "1.0"}, // Additional labels
//	}
//
// # Runtime Control
//
// Components implementing the Instrumentable interface support runtime control:
//
//	p := pool.NewWithMetrics(4, factory, "api")
//	mp := p.(*pool.MetricsPool)
//	mp.DisableMetrics()           // Stop collecting metrics
//	mp.EnableMetrics(config)      // Re-enable with new config
//	enabled := mp.MetricsEnabled() // Check current state
//
// # Performance
//
// Metrics collection is designed for minimal overhead:
//   - Metrics are updated only when operations occur
//   - No background goroutines or timers
//   - Conditional metrics updates based on enabled state
//
// # Examples
//
// See the example tests for usage patterns:
//   - Example_basicUsage: Creating and updating a registry
//   - Example_customRegistry: Using custom Prometheus registries
//   - Example_metricsServer: Setting up the HTTP metrics endpoint
//   - Example_configuration: Default and custom configuration
package metrics
