package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ever-lena/taskpool/internal/testutil"
)

func TestHandleTryResultBeforeDone(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(80*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	h, err := p.Submit("payload")
	testutil.AssertNoError(t, err)

	_, ok := h.TryResult()
	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, h.IsDone(), false)

	<-h.Done()

	res, ok := h.TryResult()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertNoError(t, res.Err)
	testutil.AssertEqual(t, res.Value.(string), "payload")
	testutil.AssertEqual(t, res.Duration >= 80*time.Millisecond, true)
}

func TestHandleResultWithContext(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(100*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	h, err := p.Submit("payload")
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = h.ResultWithContext(ctx)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)

	// Giving up on the wait does not give up on the task.
	value, err := h.Result()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, value.(string), "payload")
}

func TestHandleCancelPending(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(80*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	h1, err := p.Submit("running")
	testutil.AssertNoError(t, err)
	h2, err := p.Submit("queued")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, p.QueueSize(), 1)

	// Cancelling a queued task removes it immediately.
	h2.Cancel()
	testutil.AssertEqual(t, p.QueueSize(), 0)

	_, err = h2.Result()
	testutil.AssertErrorIs(t, err, context.Canceled)

	// The queued task never reached a worker.
	res, _ := h2.TryResult()
	testutil.AssertEqual(t, res.WorkerID, -1)

	_, err = h1.Result()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(1))
}

func TestHandleCancelDispatched(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(5*time.Second, &executed))
	defer func() { <-p.Shutdown() }()

	h, err := p.Submit("payload")
	testutil.AssertNoError(t, err)
	testutil.WaitForInt32(t, &executed, 1, time.Second)

	// A dispatched task gets a context signal, not an eviction. The
	// cooperative runtime returns promptly.
	start := time.Now()
	h.Cancel()

	_, err = h.Result()
	testutil.AssertErrorIs(t, err, context.Canceled)
	testutil.AssertEqual(t, time.Since(start) < time.Second, true)

	// Cancellation is not a crash.
	testutil.AssertEqual(t, p.TotalCrashed(), int64(0))
	testutil.AssertEventually(t, func() bool { return p.IdleWorkers() == 1 })
}

func TestHandleCancelIdempotent(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(60*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	_, err := p.Submit("running")
	testutil.AssertNoError(t, err)
	h, err := p.Submit("queued")
	testutil.AssertNoError(t, err)

	h.Cancel()
	h.Cancel()

	_, err = h.Result()
	testutil.AssertErrorIs(t, err, context.Canceled)
	testutil.AssertEventually(t, func() bool {
		return p.TotalCompleted() == p.TotalSubmitted()
	})
}

func TestCallerContextCancelsQueuedTask(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(60*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	_, err := p.Submit("running")
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h, err := p.SubmitWithContext(ctx, "queued")
	testutil.AssertNoError(t, err)
	cancel()

	// The cancelled task is dropped when it reaches the head of the
	// queue instead of consuming the worker.
	_, err = h.Result()
	testutil.AssertErrorIs(t, err, context.Canceled)
	testutil.AssertEqual(t, atomic.LoadInt32(&executed) <= 2, true)
}
