package pool

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/ever-lena/taskpool/pkg/common/errors"
)

// leaseWaiter represents one blocked Acquire call. The ready channel is
// buffered so the coordinator's handoff never blocks; a nil delivery
// means the pool can no longer produce a worker.
type leaseWaiter struct {
	ready  chan *worker
	cancel <-chan struct{}
}

// Acquire implements the Pool interface.
func (p *taskPool) Acquire(ctx context.Context) (*Lease, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return nil, errors.ErrPoolClosed
	}
	if err := p.fatalErr; err != nil {
		p.mu.Unlock()
		return nil, err
	}
	// Fast path: an idle worker with no queued tasks competing for it.
	if len(p.idle) > 0 && p.pending.Len() == 0 {
		w := p.takeIdleLocked()
		p.mu.Unlock()
		return &Lease{pool: p, worker: w}, nil
	}
	lw := &leaseWaiter{ready: make(chan *worker, 1), cancel: ctx.Done()}
	p.waiters = append(p.waiters, lw)
	p.mu.Unlock()

	select {
	case w := <-lw.ready:
		if w == nil {
			return nil, p.closedErr()
		}
		return &Lease{pool: p, worker: w}, nil
	case <-ctx.Done():
		// A worker may have been handed off concurrently with the
		// cancellation; it must go back or capacity leaks.
		if w := p.abandonWaiter(lw); w != nil {
			p.releaseWorker(w)
		}
		return nil, ctx.Err()
	}
}

// TryAcquire implements the Pool interface.
func (p *taskPool) TryAcquire() (*Lease, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running || p.fatalErr != nil {
		return nil, false
	}
	if len(p.idle) == 0 || p.pending.Len() > 0 {
		return nil, false
	}
	w := p.takeIdleLocked()
	return &Lease{pool: p, worker: w}, true
}

// takeIdleLocked removes and returns the oldest idle worker.
// Caller must hold p.mu and have checked the set is non-empty.
func (p *taskPool) takeIdleLocked() *worker {
	w := p.idle[0]
	p.idle = p.idle[1:]
	return w
}

// closedErr distinguishes exhaustion from ordinary shutdown for
// waiters woken without a worker.
func (p *taskPool) closedErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fatalErr != nil {
		return p.fatalErr
	}
	return errors.ErrPoolClosed
}

// abandonWaiter removes a cancelled waiter from the list. If a worker
// was delivered concurrently, it is returned so the caller can hand it
// back.
func (p *taskPool) abandonWaiter(lw *leaseWaiter) *worker {
	p.mu.Lock()
	for i, cand := range p.waiters {
		if cand == lw {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	select {
	case w := <-lw.ready:
		return w
	default:
		return nil
	}
}

// notifyWaitersLocked hands idle workers to blocked Acquire calls in
// FIFO order. Queued tasks take priority: waiters are only served while
// the pending queue is empty. Caller must hold p.mu.
func (p *taskPool) notifyWaitersLocked() {
	for len(p.waiters) > 0 && len(p.idle) > 0 && p.pending.Len() == 0 {
		lw := p.waiters[0]
		p.waiters = p.waiters[1:]
		select {
		case <-lw.cancel:
			// Abandoned; the waiter's goroutine cleans up after itself.
			continue
		default:
		}
		lw.ready <- p.takeIdleLocked()
	}
}

// failWaitersLocked wakes every blocked Acquire without a worker.
// Caller must hold p.mu.
func (p *taskPool) failWaitersLocked() {
	for _, lw := range p.waiters {
		lw.ready <- nil
	}
	p.waiters = nil
}

// releaseWorker returns a leased worker to the idle set and triggers a
// dispatch pass. During shutdown the worker is left alone; its stop
// signal is already pending.
func (p *taskPool) releaseWorker(w *worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.workers[w.id]; !ok {
		return
	}
	if p.state != Running {
		return
	}
	p.idle = append(p.idle, w)
	p.dispatchLocked()
}

// Lease is exclusive ownership of one worker obtained through Acquire
// or TryAcquire. The holder may run any number of payloads sequentially
// on the leased worker before calling Release.
//
// Every lease must be matched by exactly one Release. A worker crash
// during Run counts as the matching release: the pool replaces the
// worker immediately and the eventual Release call becomes a no-op.
type Lease struct {
	pool   *taskPool
	worker *worker

	// onRelease, when set, observes the first Release call.
	onRelease func()

	mu       sync.Mutex
	released bool
	crashed  bool
}

// WorkerID returns the id of the leased worker.
func (l *Lease) WorkerID() int {
	return l.worker.id
}

// Run executes one payload on the leased worker and blocks until the
// task resolves. Cancelling ctx signals the runtime, but Run still
// waits for the worker to finish so the worker is never handed back
// mid-task. Calls are serialized; the pool's TaskTimeout applies.
func (l *Lease) Run(ctx context.Context, payload any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil, errors.ErrLeaseReleased
	}
	if l.crashed {
		return nil, errors.ErrWorkerCrashed
	}

	p := l.pool
	h := newHandle(p, ctx, payload, p.config.TaskTimeout)
	h.leased = true

	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		h.cancel()
		return nil, errors.ErrPoolClosed
	}
	atomic.AddInt64(&p.totalSubmitted, 1)
	h.workerID = l.worker.id
	l.worker.current = h
	l.worker.taskCh <- h
	p.mu.Unlock()

	<-h.done
	if stderrors.Is(h.res.Err, errors.ErrWorkerCrashed) {
		l.crashed = true
	}
	return h.res.Value, h.res.Err
}

// Release returns the worker to the pool and triggers a dispatch pass
// for any queued tasks or blocked Acquire calls. It is idempotent.
func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	if cb := l.onRelease; cb != nil {
		cb()
	}
	if l.crashed {
		// The replacement worker already restored capacity.
		return
	}
	l.pool.releaseWorker(l.worker)
}
