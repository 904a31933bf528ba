package pool

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ever-lena/taskpool/pkg/common/errors"
)

// worker owns one Runtime and executes dispatched tasks one at a time.
// The task channel has capacity one and is only written by the
// coordinator while the worker is idle or leased, so the send never
// blocks.
type worker struct {
	id      int
	pool    *taskPool
	runtime Runtime
	taskCh  chan *Handle
	stopCh  chan struct{}

	// current is the handle buffered or executing on this worker.
	// Guarded by pool.mu.
	current *Handle
}

func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if cb := w.pool.config.OnWorkerStart; cb != nil {
		cb(w.id)
	}

	for {
		select {
		case <-w.stopCh:
			w.drainOnStop()
			w.exit()
			return
		case h := <-w.taskCh:
			if !w.execute(h) {
				w.exit()
				return
			}
		}
	}
}

// drainOnStop handles a task that reached the channel buffer before the
// stop signal was observed. Under graceful shutdown the task still
// runs; under forced shutdown it is rejected.
func (w *worker) drainOnStop() {
	select {
	case h := <-w.taskCh:
		if w.pool.forced.Load() {
			h.resolve(Result{
				Err:      fmt.Errorf("%w: shutdown forced", errors.ErrPoolClosed),
				WorkerID: w.id,
			})
			w.pool.completeTask(w, h, false)
		} else {
			w.execute(h)
		}
	default:
	}
}

// exit closes the worker's runtime and reports the stop. Each worker
// exits exactly once, so the runtime is closed exactly once.
func (w *worker) exit() {
	_ = w.runtime.Close()
	if cb := w.pool.config.OnWorkerStop; cb != nil {
		cb(w.id)
	}
}

// execute runs one task on the worker's runtime and resolves its
// handle. It reports false when the runtime panicked; the worker is
// then considered dead and must not accept further work.
func (w *worker) execute(h *Handle) (alive bool) {
	if cb := w.pool.config.OnTaskStart; cb != nil {
		cb(w.id, h.payload)
	}

	h.armTimeout(w.id)
	start := time.Now()

	var (
		value   any
		err     error
		crashed bool
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				crashed = true
				err = fmt.Errorf("%w: %v\nstack trace:\n%s", errors.ErrWorkerCrashed, r, debug.Stack())
			}
		}()
		value, err = w.runtime.Run(h.ctx, h.payload)
	}()
	duration := time.Since(start)

	if crashed {
		if cb := w.pool.config.CrashHandler; cb != nil {
			cb(w.id, err)
		}
	}

	// Resolution is first-wins: a timeout timer or forced shutdown may
	// have already resolved the handle, in which case this is a no-op.
	h.resolve(Result{Value: value, Err: err, WorkerID: w.id, Duration: duration})
	h.stopTimer()

	if cb := w.pool.config.OnTaskComplete; cb != nil {
		res, _ := h.TryResult()
		cb(w.id, res)
	}

	return w.pool.completeTask(w, h, crashed)
}
