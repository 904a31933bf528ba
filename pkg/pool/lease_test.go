package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ever-lena/taskpool/internal/testutil"
	tperrors "github.com/ever-lena/taskpool/pkg/common/errors"
)

func TestAcquireRelease(t *testing.T) {
	p := New(2, echoFactory())
	defer func() { <-p.Shutdown() }()

	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, p.IdleWorkers(), 1)
	testutil.AssertEqual(t, p.ActiveWorkers(), 1)

	value, err := lease.Run(context.Background(), "direct")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, value.(string), "direct")

	lease.Release()
	testutil.AssertEqual(t, p.IdleWorkers(), 2)
	testutil.AssertEqual(t, p.ActiveWorkers(), 0)
	testutil.AssertEqual(t, p.TotalSubmitted(), int64(1))
	testutil.AssertEqual(t, p.TotalCompleted(), int64(1))
}

func TestAcquireReleaseSymmetry(t *testing.T) {
	p := New(3, echoFactory())
	defer func() { <-p.Shutdown() }()

	for i := 0; i < 10; i++ {
		before := p.IdleWorkers()
		lease, err := p.Acquire(context.Background())
		testutil.AssertNoError(t, err)
		lease.Release()
		testutil.AssertEqual(t, p.IdleWorkers(), before)
	}
	testutil.AssertEqual(t, p.IdleWorkers(), 3)
}

func TestAcquireBlocksUntilWorkerFree(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(80*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	h, err := p.Submit("busy")
	testutil.AssertNoError(t, err)

	// The only worker is busy, so Acquire waits for it.
	start := time.Now()
	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	defer lease.Release()

	testutil.AssertEqual(t, h.IsDone(), true)
	testutil.AssertEqual(t, time.Since(start) >= 50*time.Millisecond, true)
}

func TestAcquireContextDeadline(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(150*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	_, err := p.Submit("busy")
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned wait must not leak the worker.
	testutil.AssertEventually(t, func() bool { return p.IdleWorkers() == 1 })
	lease, ok := p.TryAcquire()
	testutil.AssertEqual(t, ok, true)
	lease.Release()
}

func TestTryAcquire(t *testing.T) {
	p := New(1, echoFactory())
	defer func() { <-p.Shutdown() }()

	lease, ok := p.TryAcquire()
	testutil.AssertEqual(t, ok, true)

	_, ok = p.TryAcquire()
	testutil.AssertEqual(t, ok, false)

	lease.Release()
	lease2, ok := p.TryAcquire()
	testutil.AssertEqual(t, ok, true)
	lease2.Release()
}

func TestLeaseRunSequential(t *testing.T) {
	p := New(2, echoFactory())
	defer func() { <-p.Shutdown() }()

	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	defer lease.Release()

	id := lease.WorkerID()
	for i := 0; i < 5; i++ {
		value, err := lease.Run(context.Background(), i)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, value.(int), i)
	}
	testutil.AssertEqual(t, lease.WorkerID(), id)
}

func TestLeaseRunAfterRelease(t *testing.T) {
	p := New(1, echoFactory())
	defer func() { <-p.Shutdown() }()

	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	lease.Release()

	_, err = lease.Run(context.Background(), "late")
	testutil.AssertErrorIs(t, err, tperrors.ErrLeaseReleased)
}

func TestLeaseDoubleRelease(t *testing.T) {
	p := New(2, echoFactory())
	defer func() { <-p.Shutdown() }()

	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	lease.Release()
	lease.Release()

	testutil.AssertEqual(t, p.IdleWorkers(), 2)
	testutil.AssertEqual(t, p.Size(), 2)
}

func TestLeaseCrash(t *testing.T) {
	var executed, closed int32
	factory := func(id int) (Runtime, error) {
		return &testRuntime{workerID: id, panicOn: "die", executed: &executed, closed: &closed}, nil
	}
	p := New(1, factory)
	defer func() { <-p.Shutdown() }()

	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)

	_, err = lease.Run(context.Background(), "die")
	testutil.AssertErrorIs(t, err, tperrors.ErrWorkerCrashed)

	// The crashed lease is dead. Further runs fail without touching a
	// worker.
	ran := atomic.LoadInt32(&executed)
	_, err = lease.Run(context.Background(), "again")
	testutil.AssertErrorIs(t, err, tperrors.ErrWorkerCrashed)
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), ran)

	// The pool replaced the worker on its own; Release is a no-op.
	testutil.AssertEventually(t, func() bool { return p.Size() == 1 })
	testutil.AssertEventually(t, func() bool { return p.IdleWorkers() == 1 })
	lease.Release()
	testutil.AssertEqual(t, p.IdleWorkers(), 1)

	lease2, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	value, err := lease2.Run(context.Background(), "alive")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, value.(string), "alive")
	lease2.Release()
}

func TestQueuedTasksServedBeforeWaiters(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(30*time.Millisecond, &executed))
	defer func() { <-p.Shutdown() }()

	h1, err := p.Submit("first")
	testutil.AssertNoError(t, err)
	h2, err := p.Submit("second")
	testutil.AssertNoError(t, err)

	// Acquire must not jump the queue: both submitted tasks finish
	// before the lease is granted.
	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)
	defer lease.Release()

	testutil.AssertEqual(t, h1.IsDone(), true)
	testutil.AssertEqual(t, h2.IsDone(), true)
}

func TestShutdownWakesWaiters(t *testing.T) {
	var executed int32
	p := New(1, slowFactory(200*time.Millisecond, &executed))

	_, err := p.Submit("busy")
	testutil.AssertNoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		p.Shutdown()
	}()

	_, err = p.Acquire(context.Background())
	testutil.AssertErrorIs(t, err, tperrors.ErrPoolClosed)
	<-p.Shutdown()
}

func TestLeaseRunAfterShutdown(t *testing.T) {
	p := New(1, echoFactory())

	lease, err := p.Acquire(context.Background())
	testutil.AssertNoError(t, err)

	<-p.Shutdown()

	_, err = lease.Run(context.Background(), "late")
	testutil.AssertErrorIs(t, err, tperrors.ErrPoolClosed)
	lease.Release()
	testutil.AssertEqual(t, p.State(), Stopped)
}
