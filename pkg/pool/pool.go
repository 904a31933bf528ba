package pool

import (
	"container/list"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ever-lena/taskpool/pkg/common/errors"
	"github.com/ever-lena/taskpool/pkg/common/validation"
)

// Runtime is an isolated execution context owned by a single worker.
// A runtime processes one payload at a time and shares no state with
// the pool or with other runtimes except through explicit payloads.
type Runtime interface {
	// Run executes one payload and returns its result.
	// It should respect context cancellation and return any error encountered.
	Run(ctx context.Context, payload any) (any, error)

	// Close releases the runtime's resources. It is called exactly once,
	// when the worker stops or after the runtime crashed.
	Close() error
}

// Factory produces a fresh Runtime for the worker with the given id.
// It is called once per worker at pool construction and again whenever
// a crashed worker is replaced.
type Factory func(id int) (Runtime, error)

// RuntimeFunc adapts a function to the Runtime interface.
// Close is a no-op.
type RuntimeFunc func(ctx context.Context, payload any) (any, error)

// Run implements the Runtime interface for RuntimeFunc.
func (f RuntimeFunc) Run(ctx context.Context, payload any) (any, error) {
	return f(ctx, payload)
}

// Close implements the Runtime interface for RuntimeFunc.
func (f RuntimeFunc) Close() error { return nil }

// FactoryOf returns a Factory that hands every worker the same
// stateless RuntimeFunc.
func FactoryOf(f RuntimeFunc) Factory {
	return func(int) (Runtime, error) {
		return f, nil
	}
}

// Result represents the outcome of one submitted task.
type Result struct {
	// Value is the payload returned by the worker runtime
	Value any

	// Err is any error that occurred while executing the task
	Err error

	// WorkerID identifies which worker executed the task, or -1 if the
	// task never reached a worker
	WorkerID int

	// Duration is how long the task took to execute
	Duration time.Duration
}

// State describes the lifecycle phase of a pool.
type State int32

const (
	// Running means the pool accepts submissions and dispatches tasks.
	Running State = iota

	// Draining means shutdown has begun; in-flight work is finishing.
	Draining

	// Stopped means all workers have exited.
	Stopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Capacity  int
	Workers   int
	Active    int
	Idle      int
	Queued    int
	Waiting   int
	Submitted int64
	Completed int64
	Crashed   int64
	Rejected  int64
}

// Pool dispatches submitted payloads to a bounded set of isolated
// workers. At most Capacity tasks execute concurrently; tasks submitted
// beyond capacity wait in strict arrival order.
type Pool interface {
	// Submit enqueues a payload for execution and returns a handle that
	// resolves exactly once with the task's Result.
	// It fails with ErrPoolSaturated when the pending queue is full and
	// with ErrPoolClosed after shutdown has begun.
	Submit(payload any) (*Handle, error)

	// SubmitWithTimeout submits a payload with a per-task deadline that
	// overrides the pool's TaskTimeout. When the deadline passes, the
	// handle resolves with ErrTaskTimeout and the worker is signaled to
	// stop via its task context.
	SubmitWithTimeout(payload any, timeout time.Duration) (*Handle, error)

	// SubmitWithContext submits a payload bound to the caller's context.
	// Cancelling the context before dispatch removes the task from the
	// queue; after dispatch the cancellation is forwarded to the worker
	// as a best-effort signal.
	SubmitWithContext(ctx context.Context, payload any) (*Handle, error)

	// Acquire blocks until a worker is idle, marks it busy, and returns
	// a lease for direct use. Blocked callers are served in FIFO order
	// after the pending task queue. Every lease must be matched by
	// exactly one Release, or the pool permanently loses capacity.
	Acquire(ctx context.Context) (*Lease, error)

	// TryAcquire acquires an idle worker without blocking.
	TryAcquire() (*Lease, bool)

	// Shutdown initiates a graceful shutdown: in-flight tasks complete
	// and resolve with their results, still-pending queued tasks are
	// rejected with ErrPoolClosed, and subsequent submissions fail with
	// ErrPoolClosed. The returned channel closes once every worker has
	// stopped and every handle has resolved.
	Shutdown() <-chan struct{}

	// ShutdownForced initiates a forced shutdown: in-flight tasks are
	// cancelled and their handles may resolve with ErrPoolClosed instead
	// of a result.
	ShutdownForced() <-chan struct{}

	// ShutdownWithTimeout shuts down gracefully, escalating to a forced
	// shutdown if workers are still busy when the timeout expires.
	ShutdownWithTimeout(timeout time.Duration) <-chan struct{}

	// Capacity returns the configured maximum number of workers.
	Capacity() int

	// Size returns the current number of live workers (idle plus busy).
	// It can drop below Capacity while a crashed worker is being
	// replaced, or permanently if replacement fails.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for
	// dispatch.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently unavailable
	// for dispatch (executing a task or held by a lease).
	ActiveWorkers() int

	// IdleWorkers returns the number of workers available for dispatch.
	IdleWorkers() int

	// TotalSubmitted returns the number of accepted submissions.
	// Rejected submissions are not counted.
	TotalSubmitted() int64

	// TotalCompleted returns the number of accepted handles that have
	// resolved, whether with a result, a failure, or a rejection at
	// shutdown. After shutdown completes it equals TotalSubmitted.
	TotalCompleted() int64

	// TotalCrashed returns the number of worker crashes observed.
	TotalCrashed() int64

	// TotalRejected returns the number of submissions rejected with
	// ErrPoolSaturated.
	TotalRejected() int64

	// State reports the pool's lifecycle phase.
	State() State

	// Err returns the pool's fatal error, if any. It is non-nil only
	// after repeated replacement failures left the pool with no workers
	// (ErrPoolExhausted).
	Err() error

	// Stats returns a consistent snapshot of all counters.
	Stats() Stats
}

// Config holds configuration options for creating a pool.
type Config struct {
	// Capacity is the maximum number of concurrent workers.
	// Must be greater than 0.
	Capacity int

	// Factory produces the isolated runtime for each worker.
	// Must not be nil.
	Factory Factory

	// QueueLimit is the maximum number of pending tasks before Submit
	// fails with ErrPoolSaturated. If 0, the queue is unbounded.
	QueueLimit int

	// TaskTimeout is the default deadline for individual task execution.
	// Zero means no deadline. Can be overridden per task with
	// SubmitWithTimeout.
	TaskTimeout time.Duration

	// DispatchRate limits how fast queued tasks are handed to workers.
	// If nil, dispatch is not rate limited.
	DispatchRate *rate.Limiter

	// CrashHandler is called when a worker runtime panics mid-task.
	// The cause includes the recovered value and a stack trace.
	CrashHandler func(workerID int, cause error)

	// OnWorkerStart is called when a worker starts.
	// Useful for per-worker bookkeeping.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a dispatched task begins execution.
	OnTaskStart func(workerID int, payload any)

	// OnTaskComplete is called after a dispatched task resolves, with
	// the final Result. Tasks cancelled or rejected before dispatch do
	// not trigger it.
	OnTaskComplete func(workerID int, result Result)
}

// DefaultConfig returns a default pool configuration with one worker per
// CPU and an unbounded queue. Factory must be set before use.
func DefaultConfig() Config {
	return Config{
		Capacity: runtime.NumCPU(),
	}
}

// taskPool implements the Pool interface.
type taskPool struct {
	config Config

	mu       sync.Mutex
	state    State
	workers  map[int]*worker
	idle     []*worker
	pending  *list.List // of *Handle, FIFO
	waiters  []*leaseWaiter
	nextID   int
	fatalErr error

	dispatchTimer *time.Timer // armed while dispatch waits on DispatchRate

	totalSubmitted int64
	totalCompleted int64
	totalCrashed   int64
	totalRejected  int64

	shutdownOnce sync.Once
	forceOnce    sync.Once
	forced       atomic.Bool
	shutdownCh   chan struct{}
	done         chan struct{}
	workerWg     sync.WaitGroup
}

// New creates a pool with the given capacity and worker factory.
// It panics on invalid input or if the factory fails; use NewSafe for
// error returns.
func New(capacity int, factory Factory) Pool {
	return NewWithConfig(Config{
		Capacity: capacity,
		Factory:  factory,
	})
}

// NewWithConfig creates a pool with the given configuration.
// It panics on invalid input or if the factory fails; use
// NewWithConfigSafe for error returns.
func NewWithConfig(config Config) Pool {
	p, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewSafe creates a pool with validation that returns an error instead
// of panicking. This is the recommended way to create pools for
// production use.
func NewSafe(capacity int, factory Factory) (Pool, error) {
	return NewWithConfigSafe(Config{
		Capacity: capacity,
		Factory:  factory,
	})
}

// NewWithConfigSafe creates a pool with validation that returns an
// error instead of panicking. Workers are started eagerly; if the
// factory fails for any worker, the already-created runtimes are closed
// and the error is returned.
func NewWithConfigSafe(config Config) (Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	p := &taskPool{
		config:     config,
		workers:    make(map[int]*worker, config.Capacity),
		idle:       make([]*worker, 0, config.Capacity),
		pending:    list.New(),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}

	// Eager start: all workers exist before the first submission so the
	// capacity invariant is observable immediately.
	for i := 0; i < config.Capacity; i++ {
		id := p.nextID
		p.nextID++
		rt, err := config.Factory(id)
		if err != nil {
			for _, w := range p.workers {
				_ = w.runtime.Close()
			}
			return nil, errors.NewOperationError("pool", "New", err).
				WithContext("worker factory failed during startup")
		}
		p.registerWorkerLocked(id, rt)
	}

	for _, w := range p.workers {
		p.workerWg.Add(1)
		go w.run()
	}

	return p, nil
}

func validateConfig(config Config) error {
	if err := validation.ValidatePositive("pool", "capacity", config.Capacity); err != nil {
		return err
	}
	if config.Factory == nil {
		return errors.NewValidationError("pool", "factory", nil, "cannot be nil").
			WithHint("provide a Factory that builds a worker Runtime")
	}
	if err := validation.ValidateNonNegative("pool", "queueLimit", config.QueueLimit); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("pool", "taskTimeout", config.TaskTimeout); err != nil {
		return err
	}
	return nil
}

// registerWorkerLocked adds a new idle worker for the given runtime.
// Callers must either hold p.mu or, during construction, have exclusive
// access to the pool.
func (p *taskPool) registerWorkerLocked(id int, rt Runtime) *worker {
	w := &worker{
		id:      id,
		pool:    p,
		runtime: rt,
		taskCh:  make(chan *Handle, 1),
		stopCh:  make(chan struct{}),
	}
	p.workers[id] = w
	p.idle = append(p.idle, w)
	return w
}
