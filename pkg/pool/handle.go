package pool

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ever-lena/taskpool/pkg/common/errors"
)

// Handle is the completion handle returned by Submit. It resolves
// exactly once with the task's Result, whether the task completed,
// failed, timed out, was cancelled, or was rejected at shutdown.
//
// All methods are safe for concurrent use.
type Handle struct {
	pool    *taskPool
	payload any

	// ctx is the task context handed to the worker runtime. It is
	// cancelled when the handle resolves, when Cancel is called, or
	// when the caller context from SubmitWithContext fires.
	ctx    context.Context
	cancel context.CancelFunc

	// timeout is the effective per-task deadline, 0 for none.
	// The timer is armed when the task is dispatched, so time spent in
	// the queue does not count against the deadline.
	timeout time.Duration
	timer   *time.Timer

	// elem and workerID are guarded by pool.mu. elem is non-nil while
	// the task waits in the pending queue; workerID is -1 until
	// dispatch.
	elem     *list.Element
	workerID int

	// leased marks a task run through a Lease. Completion leaves the
	// worker with the lease holder instead of returning it to the idle
	// set.
	leased bool

	once sync.Once
	done chan struct{}
	res  Result
}

func newHandle(p *taskPool, parent context.Context, payload any, timeout time.Duration) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		pool:     p,
		payload:  payload,
		ctx:      ctx,
		cancel:   cancel,
		timeout:  timeout,
		workerID: -1,
		done:     make(chan struct{}),
	}
}

// Done returns a channel that is closed when the handle resolves.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// IsDone reports whether the handle has resolved without blocking.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Result blocks until the handle resolves and returns the task's value
// and error.
func (h *Handle) Result() (any, error) {
	<-h.done
	return h.res.Value, h.res.Err
}

// ResultWithContext blocks until the handle resolves or ctx is done.
// A context error does not resolve the handle; the task keeps running
// and the result can still be retrieved later.
func (h *Handle) ResultWithContext(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.res.Value, h.res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryResult returns the full Result without blocking. The second return
// is false if the handle has not resolved yet.
func (h *Handle) TryResult() (Result, bool) {
	select {
	case <-h.done:
		return h.res, true
	default:
		return Result{WorkerID: -1}, false
	}
}

// Cancel cancels the task. A task still in the pending queue is removed
// immediately and its handle resolves with context.Canceled at no cost.
// A task already dispatched to a worker only receives a cancellation
// signal through its context; its handle resolves whenever the worker
// finishes.
func (h *Handle) Cancel() {
	p := h.pool
	p.mu.Lock()
	if h.elem != nil {
		p.pending.Remove(h.elem)
		h.elem = nil
		p.mu.Unlock()
		h.resolve(Result{Err: context.Canceled, WorkerID: -1})
		p.noteResolved()
		return
	}
	p.mu.Unlock()
	h.cancel()
}

// resolve records the result and closes the done channel. Only the
// first call has any effect. The task context is cancelled as part of
// resolution so a still-running runtime observes the outcome.
func (h *Handle) resolve(res Result) {
	h.once.Do(func() {
		h.res = res
		h.cancel()
		close(h.done)
	})
}

// markDispatchedLocked transitions the handle from pending to
// dispatched. Caller must hold pool.mu.
func (h *Handle) markDispatchedLocked(workerID int) {
	h.elem = nil
	h.workerID = workerID
}

// armTimeout starts the per-task deadline timer. It runs on the worker
// goroutine just before execution begins.
func (h *Handle) armTimeout(workerID int) {
	if h.timeout <= 0 {
		return
	}
	d := h.timeout
	h.timer = time.AfterFunc(d, func() {
		h.resolve(Result{
			Err:      fmt.Errorf("%w after %v", errors.ErrTaskTimeout, d),
			WorkerID: workerID,
			Duration: d,
		})
	})
}

// stopTimer releases the deadline timer. It runs on the worker
// goroutine after execution, so it never races with armTimeout.
func (h *Handle) stopTimer() {
	if h.timer != nil {
		h.timer.Stop()
	}
}
