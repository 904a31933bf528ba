package pool

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ever-lena/taskpool/pkg/common/errors"
	"github.com/ever-lena/taskpool/pkg/metrics"
)

// MetricsPool wraps a Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a pool with metrics enabled on a dedicated
// registry.
func NewWithMetrics(capacity int, factory Factory, name string) Pool {
	// Use a separate registry for each metrics-enabled pool to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{
		Capacity: capacity,
		Factory:  factory,
	}, name, config)
}

// NewWithConfigAndMetrics creates a pool with custom config and metrics.
// The pool's lifecycle callbacks are chained with metric observers, so
// callbacks supplied in config keep working.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) Pool {
	if !metricsConfig.Enabled {
		return NewWithConfig(config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mp := &MetricsPool{
		name:     name,
		registry: registry,
		enabled:  true,
	}

	prevWorkerStart := config.OnWorkerStart
	config.OnWorkerStart = func(workerID int) {
		if mp.enabled {
			mp.registry.PoolWorkers.WithLabelValues(mp.name).Inc()
		}
		if prevWorkerStart != nil {
			prevWorkerStart(workerID)
		}
	}

	prevWorkerStop := config.OnWorkerStop
	config.OnWorkerStop = func(workerID int) {
		if mp.enabled {
			mp.registry.PoolWorkers.WithLabelValues(mp.name).Dec()
		}
		if prevWorkerStop != nil {
			prevWorkerStop(workerID)
		}
	}

	prevTaskComplete := config.OnTaskComplete
	config.OnTaskComplete = func(workerID int, result Result) {
		mp.observeTask(result)
		if prevTaskComplete != nil {
			prevTaskComplete(workerID, result)
		}
	}

	prevCrash := config.CrashHandler
	config.CrashHandler = func(workerID int, cause error) {
		if mp.enabled {
			mp.registry.WorkerCrashes.WithLabelValues(mp.name).Inc()
		}
		if prevCrash != nil {
			prevCrash(workerID, cause)
		}
	}

	mp.pool = NewWithConfig(config)
	mp.registry.PoolCapacity.WithLabelValues(mp.name).Set(float64(config.Capacity))
	mp.updateMetrics()

	return mp
}

// observeTask records the outcome of one dispatched task.
func (mp *MetricsPool) observeTask(result Result) {
	if !mp.enabled {
		return
	}
	mp.registry.TaskDuration.WithLabelValues(mp.name).Observe(result.Duration.Seconds())
	if result.Err != nil {
		mp.registry.TasksFailed.WithLabelValues(mp.name).Inc()
	} else {
		mp.registry.TasksCompleted.WithLabelValues(mp.name).Inc()
	}
	mp.updateMetrics()
}

// updateMetrics refreshes the current state gauges.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled || mp.pool == nil {
		return
	}

	mp.registry.PoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	mp.registry.PoolIdle.WithLabelValues(mp.name).Set(float64(mp.pool.IdleWorkers()))
	mp.registry.PoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit implements the Pool interface.
func (mp *MetricsPool) Submit(payload any) (*Handle, error) {
	return mp.record(mp.pool.Submit(payload))
}

// SubmitWithTimeout implements the Pool interface.
func (mp *MetricsPool) SubmitWithTimeout(payload any, timeout time.Duration) (*Handle, error) {
	return mp.record(mp.pool.SubmitWithTimeout(payload, timeout))
}

// SubmitWithContext implements the Pool interface.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, payload any) (*Handle, error) {
	return mp.record(mp.pool.SubmitWithContext(ctx, payload))
}

func (mp *MetricsPool) record(h *Handle, err error) (*Handle, error) {
	if mp.enabled {
		switch {
		case err == nil:
			mp.registry.TasksSubmitted.WithLabelValues(mp.name).Inc()
		case stderrors.Is(err, errors.ErrPoolSaturated):
			mp.registry.TasksRejected.WithLabelValues(mp.name).Inc()
		}
		mp.updateMetrics()
	}
	return h, err
}

// Acquire implements the Pool interface.
func (mp *MetricsPool) Acquire(ctx context.Context) (*Lease, error) {
	lease, err := mp.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	mp.observeLease(lease)
	return lease, nil
}

// TryAcquire implements the Pool interface.
func (mp *MetricsPool) TryAcquire() (*Lease, bool) {
	lease, ok := mp.pool.TryAcquire()
	if !ok {
		return nil, false
	}
	mp.observeLease(lease)
	return lease, true
}

func (mp *MetricsPool) observeLease(lease *Lease) {
	if !mp.enabled {
		return
	}
	mp.registry.LeasesAcquired.WithLabelValues(mp.name).Inc()
	lease.onRelease = func() {
		mp.registry.LeasesReleased.WithLabelValues(mp.name).Inc()
		mp.updateMetrics()
	}
	mp.updateMetrics()
}

// Shutdown implements the Pool interface.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownForced implements the Pool interface.
func (mp *MetricsPool) ShutdownForced() <-chan struct{} {
	return mp.pool.ShutdownForced()
}

// ShutdownWithTimeout implements the Pool interface.
func (mp *MetricsPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	return mp.pool.ShutdownWithTimeout(timeout)
}

// Capacity implements the Pool interface.
func (mp *MetricsPool) Capacity() int {
	return mp.pool.Capacity()
}

// Size implements the Pool interface.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize implements the Pool interface.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()

	if mp.enabled {
		mp.registry.PoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	}

	return queueSize
}

// ActiveWorkers implements the Pool interface.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()

	if mp.enabled {
		mp.registry.PoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	}

	return activeWorkers
}

// IdleWorkers implements the Pool interface.
func (mp *MetricsPool) IdleWorkers() int {
	return mp.pool.IdleWorkers()
}

// TotalSubmitted implements the Pool interface.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted implements the Pool interface.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// TotalCrashed implements the Pool interface.
func (mp *MetricsPool) TotalCrashed() int64 {
	return mp.pool.TotalCrashed()
}

// TotalRejected implements the Pool interface.
func (mp *MetricsPool) TotalRejected() int64 {
	return mp.pool.TotalRejected()
}

// State implements the Pool interface.
func (mp *MetricsPool) State() State {
	return mp.pool.State()
}

// Err implements the Pool interface.
func (mp *MetricsPool) Err() error {
	return mp.pool.Err()
}

// Stats implements the Pool interface.
func (mp *MetricsPool) Stats() Stats {
	return mp.pool.Stats()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	mp.enabled = config.Enabled

	if config.Registry != nil {
		mp.registry = metrics.NewRegistry(config.Registry)
	}

	if mp.enabled {
		mp.updateMetrics()
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled
}
