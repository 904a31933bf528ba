package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ever-lena/taskpool/pkg/common/errors"
)

// Submit implements the Pool interface.
func (p *taskPool) Submit(payload any) (*Handle, error) {
	return p.submit(context.Background(), payload, p.config.TaskTimeout)
}

// SubmitWithTimeout implements the Pool interface. A zero timeout falls
// back to the pool's TaskTimeout; a negative timeout is invalid.
func (p *taskPool) SubmitWithTimeout(payload any, timeout time.Duration) (*Handle, error) {
	if timeout < 0 {
		return nil, errors.NewValidationError("pool", "timeout", timeout, "cannot be negative").
			WithHint("use 0 to fall back to the pool's TaskTimeout")
	}
	if timeout == 0 {
		timeout = p.config.TaskTimeout
	}
	return p.submit(context.Background(), payload, timeout)
}

// SubmitWithContext implements the Pool interface.
func (p *taskPool) SubmitWithContext(ctx context.Context, payload any) (*Handle, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return p.submit(ctx, payload, p.config.TaskTimeout)
}

func (p *taskPool) submit(parent context.Context, payload any, timeout time.Duration) (*Handle, error) {
	h := newHandle(p, parent, payload, timeout)

	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		h.cancel()
		return nil, errors.ErrPoolClosed
	}
	if err := p.fatalErr; err != nil {
		p.mu.Unlock()
		h.cancel()
		return nil, err
	}
	if p.config.QueueLimit > 0 && p.pending.Len() >= p.config.QueueLimit {
		atomic.AddInt64(&p.totalRejected, 1)
		p.mu.Unlock()
		h.cancel()
		return nil, errors.ErrPoolSaturated
	}
	atomic.AddInt64(&p.totalSubmitted, 1)
	h.elem = p.pending.PushBack(h)
	p.dispatchLocked()
	p.mu.Unlock()
	return h, nil
}

// dispatchLocked pairs queued tasks with idle workers in strict arrival
// order, then offers any remaining idle workers to blocked Acquire
// calls. Caller must hold p.mu.
//
// The channel send cannot block: a worker in the idle set always has an
// empty task channel.
func (p *taskPool) dispatchLocked() {
	for p.pending.Len() > 0 && len(p.idle) > 0 {
		e := p.pending.Front()
		h := e.Value.(*Handle)

		// Tasks cancelled while queued are dropped at the head so they
		// never consume a worker.
		if err := h.ctx.Err(); err != nil {
			p.pending.Remove(e)
			h.elem = nil
			h.resolve(Result{Err: err, WorkerID: -1})
			p.noteResolved()
			continue
		}

		if p.config.DispatchRate != nil {
			res := p.config.DispatchRate.Reserve()
			if !res.OK() {
				res.Cancel()
			} else if d := res.Delay(); d > 0 {
				res.Cancel()
				p.scheduleDispatchLocked(d)
				return
			}
		}

		w := p.takeIdleLocked()
		p.pending.Remove(e)
		h.markDispatchedLocked(w.id)
		w.current = h
		w.taskCh <- h
	}
	p.notifyWaitersLocked()
}

// scheduleDispatchLocked arms a retry for when the dispatch limiter can
// provide a token. Caller must hold p.mu.
func (p *taskPool) scheduleDispatchLocked(d time.Duration) {
	if p.dispatchTimer != nil {
		return
	}
	p.dispatchTimer = time.AfterFunc(d, func() {
		p.mu.Lock()
		p.dispatchTimer = nil
		if p.state == Running {
			p.dispatchLocked()
		}
		p.mu.Unlock()
	})
}

// noteResolved counts the resolution of an accepted handle.
func (p *taskPool) noteResolved() {
	atomic.AddInt64(&p.totalCompleted, 1)
}

// completeTask updates coordinator state after a worker finished a
// dispatched task. It reports whether the worker may keep running.
func (p *taskPool) completeTask(w *worker, h *Handle, crashed bool) (alive bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.current = nil
	p.noteResolved()

	if crashed {
		atomic.AddInt64(&p.totalCrashed, 1)
		delete(p.workers, w.id)
		if p.state == Running {
			go p.replaceWorker()
		}
		return false
	}
	if h.leased {
		// The lease still holds the worker; Release hands it back.
		return true
	}
	if p.state == Running {
		p.idle = append(p.idle, w)
		p.dispatchLocked()
	}
	return true
}

// replaceWorker builds a replacement runtime for a crashed worker and
// registers it as idle. The factory runs outside the coordinator lock.
// On factory failure the pool shrinks; losing the last worker is fatal
// and recorded as ErrPoolExhausted.
func (p *taskPool) replaceWorker() {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return
	}
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	rt, err := p.config.Factory(id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running {
		if err == nil {
			_ = rt.Close()
		}
		return
	}
	if err != nil {
		if len(p.workers) == 0 {
			p.fatalErr = fmt.Errorf("%w: %v", errors.ErrPoolExhausted, err)
			p.failPendingLocked(p.fatalErr)
			p.failWaitersLocked()
		}
		return
	}
	w := p.registerWorkerLocked(id, rt)
	p.workerWg.Add(1)
	go w.run()
	p.dispatchLocked()
}

// failPendingLocked rejects every queued task with err.
// Caller must hold p.mu.
func (p *taskPool) failPendingLocked(err error) {
	for e := p.pending.Front(); e != nil; e = p.pending.Front() {
		h := e.Value.(*Handle)
		p.pending.Remove(e)
		h.elem = nil
		h.resolve(Result{Err: err, WorkerID: -1})
		p.noteResolved()
	}
}

// Shutdown implements the Pool interface.
func (p *taskPool) Shutdown() <-chan struct{} {
	return p.beginShutdown(false)
}

// ShutdownForced implements the Pool interface.
func (p *taskPool) ShutdownForced() <-chan struct{} {
	return p.beginShutdown(true)
}

// ShutdownWithTimeout implements the Pool interface.
func (p *taskPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	done := p.beginShutdown(false)
	go func() {
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-done:
		case <-t.C:
			p.force()
		}
	}()
	return done
}

func (p *taskPool) beginShutdown(forced bool) <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.state = Draining
		if p.dispatchTimer != nil {
			p.dispatchTimer.Stop()
			p.dispatchTimer = nil
		}
		p.failPendingLocked(errors.ErrPoolClosed)
		p.failWaitersLocked()
		close(p.shutdownCh)
		for _, w := range p.workers {
			close(w.stopCh)
		}
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			p.mu.Lock()
			p.state = Stopped
			p.workers = make(map[int]*worker)
			p.idle = nil
			p.mu.Unlock()
			close(p.done)
		}()
	})
	if forced {
		p.force()
	}
	return p.done
}

// force escalates an in-progress shutdown. In-flight handles resolve
// with ErrPoolClosed and their task contexts are cancelled; workers
// exit once their runtime observes the cancellation.
func (p *taskPool) force() {
	p.forceOnce.Do(func() {
		p.forced.Store(true)
		p.mu.Lock()
		for _, w := range p.workers {
			if h := w.current; h != nil {
				h.resolve(Result{
					Err:      fmt.Errorf("%w: shutdown forced", errors.ErrPoolClosed),
					WorkerID: w.id,
				})
			}
		}
		p.mu.Unlock()
	})
}

// Capacity implements the Pool interface.
func (p *taskPool) Capacity() int {
	return p.config.Capacity
}

// Size implements the Pool interface.
func (p *taskPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// QueueSize implements the Pool interface.
func (p *taskPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Len()
}

// ActiveWorkers implements the Pool interface.
func (p *taskPool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers) - len(p.idle)
}

// IdleWorkers implements the Pool interface.
func (p *taskPool) IdleWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// TotalSubmitted implements the Pool interface.
func (p *taskPool) TotalSubmitted() int64 {
	return atomic.LoadInt64(&p.totalSubmitted)
}

// TotalCompleted implements the Pool interface.
func (p *taskPool) TotalCompleted() int64 {
	return atomic.LoadInt64(&p.totalCompleted)
}

// TotalCrashed implements the Pool interface.
func (p *taskPool) TotalCrashed() int64 {
	return atomic.LoadInt64(&p.totalCrashed)
}

// TotalRejected implements the Pool interface.
func (p *taskPool) TotalRejected() int64 {
	return atomic.LoadInt64(&p.totalRejected)
}

// State implements the Pool interface.
func (p *taskPool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err implements the Pool interface.
func (p *taskPool) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fatalErr
}

// Stats implements the Pool interface.
func (p *taskPool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Capacity:  p.config.Capacity,
		Workers:   len(p.workers),
		Active:    len(p.workers) - len(p.idle),
		Idle:      len(p.idle),
		Queued:    p.pending.Len(),
		Waiting:   len(p.waiters),
		Submitted: atomic.LoadInt64(&p.totalSubmitted),
		Completed: atomic.LoadInt64(&p.totalCompleted),
		Crashed:   atomic.LoadInt64(&p.totalCrashed),
		Rejected:  atomic.LoadInt64(&p.totalRejected),
	}
}
