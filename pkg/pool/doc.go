/*
Package pool provides a bounded pool of isolated workers for Go applications.

A pool owns a fixed number of workers, each wrapping a fresh Runtime built by a
caller-supplied factory. Payloads submitted to the pool are dispatched to idle
workers in strict arrival order; at most Capacity payloads execute concurrently.
This pattern is essential for fanning expensive, crash-prone work out across
isolated execution contexts with predictable resource usage.

Basic usage:

	p := pool.New(4, pool.FactoryOf(func(ctx context.Context, payload any) (any, error) {
		// Do work
		return transform(payload), nil
	}))
	defer func() { <-p.Shutdown() }()

	h, err := p.Submit(job)
	if err != nil {
		log.Printf("Failed to submit: %v", err)
		return
	}

	value, err := h.Result()
	if err != nil {
		log.Printf("Task failed: %v", err)
	}

Key Features:

The pool provides:
  - Fixed number of workers for predictable resource usage
  - Optional bounded pending queue to prevent memory exhaustion
  - Strict FIFO dispatch among queued tasks
  - Completion handles that resolve exactly once per accepted task
  - Crash recovery: a panicking runtime is replaced with a fresh one
  - Direct worker leases for callers that need exclusive access
  - Graceful and forced shutdown with completion guarantees
  - Real-time counters and state inspection

Runtime Interface:

Workers execute payloads through a Runtime:

	type Runtime interface {
		Run(ctx context.Context, payload any) (any, error)
		Close() error
	}

A Factory builds one Runtime per worker and is invoked again whenever a crashed
worker is replaced:

	factory := func(id int) (pool.Runtime, error) {
		return newInterpreter(id)
	}

For stateless work, RuntimeFunc and FactoryOf avoid the boilerplate:

	factory := pool.FactoryOf(func(ctx context.Context, payload any) (any, error) {
		return doWork(ctx, payload)
	})

Configuration Options:

Advanced configuration is available through the Config struct:

	config := pool.Config{
		Capacity:    8,
		Factory:     factory,
		QueueLimit:  1000,
		TaskTimeout: 30 * time.Second,
		CrashHandler: func(workerID int, cause error) {
			log.Printf("Worker %d crashed: %v", workerID, cause)
		},
		OnTaskComplete: func(workerID int, result Result) {
			log.Printf("Worker %d finished in %v", workerID, result.Duration)
		},
	}
	p := pool.NewWithConfig(config)

Submission Methods:

Multiple ways to submit payloads:

	// Basic submission
	h, err := p.Submit(payload)

	// With a per-task deadline
	h, err := p.SubmitWithTimeout(payload, time.Second)

	// Bound to a caller context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := p.SubmitWithContext(ctx, payload)

Submission fails immediately with ErrPoolSaturated when the pending queue is at
its limit and with ErrPoolClosed after shutdown has begun. An accepted
submission always returns a handle that resolves exactly once.

Completion Handles:

Each accepted task is represented by a Handle:

	h, _ := p.Submit(payload)

	// Block until done
	value, err := h.Result()

	// Or poll
	if res, ok := h.TryResult(); ok {
		fmt.Println(res.Value, res.Duration)
	}

	// Or select
	select {
	case <-h.Done():
	case <-time.After(time.Second):
	}

Cancelling a handle that is still queued removes it immediately; the handle
resolves with context.Canceled and the task never consumes a worker. A task
already dispatched only receives a cancellation signal through its context.

Worker Leases:

Acquire provides direct, exclusive access to one worker:

	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	out, err := lease.Run(ctx, payload)

Blocked Acquire calls are served in FIFO order once the pending task queue is
empty. Every lease must be matched by exactly one Release; a worker crash
during a leased Run counts as the release, because the pool replaces the dead
worker immediately.

Failure Handling:

A runtime that returns an error fails only that task; the worker stays in
rotation. A runtime that panics is considered crashed: its handle resolves
with ErrWorkerCrashed, the worker is removed, and a replacement is built with
the factory. If replacement keeps failing and the last worker is gone, the
pool records ErrPoolExhausted, rejects the remaining queue, and reports the
error through Err.

	if err := p.Err(); err != nil {
		// ErrPoolExhausted: no workers left
	}

Shutdown:

Graceful shutdown lets in-flight tasks finish and rejects everything still
queued with ErrPoolClosed:

	<-p.Shutdown()

Forced shutdown additionally cancels in-flight task contexts and resolves
their handles with ErrPoolClosed:

	<-p.ShutdownForced()

	// Or graceful with an escalation deadline
	<-p.ShutdownWithTimeout(30 * time.Second)

Both forms guarantee that every accepted handle has resolved by the time the
returned channel closes. A runtime that ignores context cancellation delays
worker exit; handles still resolve, but the shutdown channel waits for the
runtime to return.

Shared Memory:

Payloads are treated as owned by the worker while a task runs. When two sides
genuinely need to share a buffer, a SharedRegion makes the intent explicit and
leaves synchronization with the caller:

	region := pool.NewSharedRegion(1 << 20)
	h, _ := p.Submit(frame{Region: region, Offset: 0})

Monitoring and Metrics:

The pool provides real-time counters:

	fmt.Printf("Live workers: %d\n", p.Size())
	fmt.Printf("Queue size: %d\n", p.QueueSize())
	fmt.Printf("Active workers: %d\n", p.ActiveWorkers())
	fmt.Printf("Total submitted: %d\n", p.TotalSubmitted())
	fmt.Printf("Total crashed: %d\n", p.TotalCrashed())

For Prometheus integration, NewWithConfigAndMetrics wraps a pool with the
taskpool metrics registry; see the metrics package.

Best Practices:

1. Size pools based on workload characteristics:
  - CPU-bound: capacity = CPU cores
  - I/O-bound: capacity = 2-4x CPU cores
  - Heavyweight runtimes: capacity bounded by memory per runtime

2. Choose appropriate queue limits:
  - Bounded queues give fast ErrPoolSaturated feedback under overload
  - Unbounded queues suit bursty workloads with trusted producers

3. Handle context cancellation in long-running runtimes:
  - Check ctx.Done() in loops
  - Return ctx.Err() when cancelled, so timeouts and forced shutdown
    release workers promptly

4. Treat payloads as transferred:
  - Do not mutate a payload after submitting it
  - Use SharedRegion when sharing is intentional

Thread Safety:

All pool operations are safe for concurrent use from multiple goroutines.
Coordinator state is mutated under a single lock, so queue order, the idle
set, and the counters always agree.
*/
package pool
