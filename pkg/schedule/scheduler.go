package schedule

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ever-lena/taskpool/pkg/metrics"
	"github.com/ever-lena/taskpool/pkg/pool"
)

// Scheduler submits payloads into a worker pool at scheduled times.
type Scheduler interface {
	// One-time scheduling
	Schedule(id string, payload any, runAt time.Time) (*Job, error)
	ScheduleAfter(id string, payload any, delay time.Duration) (*Job, error)

	// Recurring scheduling
	ScheduleEvery(id string, payload any, interval time.Duration) (*Job, error)
	ScheduleCron(id string, cronExpr string, payload any) (*Job, error)

	// Job management
	Cancel(id string) bool
	CancelAll()
	Jobs() []*Job

	// Lifecycle
	Start() error
	Stop() <-chan struct{}
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds scheduler configuration.
type Config struct {
	// Pool receives due payloads. When nil, an owned pool is built from
	// Factory and shut down by Stop.
	Pool pool.Pool

	// Factory builds the owned pool's workers when Pool is nil.
	Factory pool.Factory

	// PoolCapacity sizes the owned pool (default: 4).
	PoolCapacity int

	// Location for cron expression evaluation (default: time.Local).
	Location *time.Location

	// TickInterval is how often due jobs are checked (default: 50ms).
	TickInterval time.Duration

	// MaxJobs caps the number of scheduled jobs (default: 10000).
	MaxJobs int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock

	// OnResult observes the outcome of every fired job, including
	// submissions the pool rejected.
	OnResult func(id string, result pool.Result)

	// Metrics, when set, counts scheduled/fired/failed jobs under Name.
	Metrics *metrics.Registry

	// Name labels this scheduler's metrics (default: "scheduler").
	Name string
}

type scheduledJob struct {
	id       string
	payload  any
	runAt    time.Time
	interval time.Duration
	cronExpr string
	cronNext cron.Schedule
	created  time.Time
	runs     int64
}

type scheduler struct {
	pool         pool.Pool
	ownPool      bool
	location     *time.Location
	tickInterval time.Duration
	maxJobs      int
	clock        Clock
	cronParser   cron.Parser
	onResult     func(id string, result pool.Result)
	metrics      *metrics.Registry
	name         string

	mu      sync.RWMutex
	jobs    map[string]*scheduledJob
	done    chan struct{}
	running bool
}

// New creates a scheduler that submits into the given pool.
func New(p pool.Pool) Scheduler {
	return NewWithConfig(Config{Pool: p})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) Scheduler {
	p := cfg.Pool
	ownPool := false
	if p == nil && cfg.Factory != nil {
		capacity := cfg.PoolCapacity
		if capacity <= 0 {
			capacity = 4
		}
		p = pool.New(capacity, cfg.Factory)
		ownPool = true
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	maxJobs := cfg.MaxJobs
	if maxJobs <= 0 {
		maxJobs = 10000
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	name := cfg.Name
	if name == "" {
		name = "scheduler"
	}

	return &scheduler{
		pool:         p,
		ownPool:      ownPool,
		location:     location,
		tickInterval: tickInterval,
		maxJobs:      maxJobs,
		clock:        clock,
		cronParser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		onResult:     cfg.OnResult,
		metrics:      cfg.Metrics,
		name:         name,
		jobs:         make(map[string]*scheduledJob),
	}
}

func (s *scheduler) Schedule(id string, payload any, runAt time.Time) (*Job, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if runAt.IsZero() {
		return nil, fmt.Errorf("job run time cannot be zero")
	}
	return s.add(&scheduledJob{
		id:      id,
		payload: payload,
		runAt:   runAt,
		created: s.clock.Now(),
	})
}

func (s *scheduler) ScheduleAfter(id string, payload any, delay time.Duration) (*Job, error) {
	if delay < 0 {
		return nil, fmt.Errorf("delay cannot be negative, got %v", delay)
	}
	return s.Schedule(id, payload, s.clock.Now().Add(delay))
}

func (s *scheduler) ScheduleEvery(id string, payload any, interval time.Duration) (*Job, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	now := s.clock.Now()
	return s.add(&scheduledJob{
		id:       id,
		payload:  payload,
		runAt:    now,
		interval: interval,
		created:  now,
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, payload any) (*Job, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if cronExpr == "" {
		return nil, fmt.Errorf("cron expression cannot be empty")
	}
	sched, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	now := s.clock.Now()
	return s.add(&scheduledJob{
		id:       id,
		payload:  payload,
		runAt:    sched.Next(now.In(s.location)),
		cronExpr: cronExpr,
		cronNext: sched,
		created:  now,
	})
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("job ID cannot be empty")
	}
	if len(id) > 255 {
		return fmt.Errorf("job ID too long (max 255 characters)")
	}
	return nil
}

func (s *scheduler) add(job *scheduledJob) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.id]; exists {
		return nil, fmt.Errorf("job with ID %q already exists, use a different ID or cancel the existing job first", job.id)
	}
	if len(s.jobs) >= s.maxJobs {
		return nil, fmt.Errorf("cannot schedule job: maximum number of jobs (%d) reached", s.maxJobs)
	}

	s.jobs[job.id] = job
	if s.metrics != nil {
		s.metrics.JobsScheduled.WithLabelValues(s.name).Inc()
	}
	return &Job{s: s, entry: job}, nil
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		delete(s.jobs, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = make(map[string]*scheduledJob)
}

func (s *scheduler) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, &Job{s: s, entry: job})
	}

	// Sort by next run time
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].entry.runAt.Before(jobs[j].entry.runAt)
	})

	return jobs
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running, call Stop() first")
	}
	if s.pool == nil {
		return fmt.Errorf("scheduler has no pool: provide Config.Pool or Config.Factory")
	}

	s.running = true
	s.done = make(chan struct{})

	go s.run(s.done, time.NewTicker(s.tickInterval))
	return nil
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.done)
	}
	own := s.ownPool
	p := s.pool
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if own {
			<-p.Shutdown()
		}
	}()

	return stopped
}

func (s *scheduler) run(done chan struct{}, ticker *time.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.processDueJobs()
		}
	}
}

func (s *scheduler) processDueJobs() {
	now := s.clock.Now()

	s.mu.Lock()
	if len(s.jobs) == 0 {
		s.mu.Unlock()
		return
	}

	due := make([]*scheduledJob, 0, len(s.jobs))
	for id, job := range s.jobs {
		if now.After(job.runAt) || now.Equal(job.runAt) {
			due = append(due, job)

			// Handle rescheduling
			if job.interval > 0 {
				job.runAt = now.Add(job.interval)
			} else if job.cronNext != nil {
				job.runAt = job.cronNext.Next(now.In(s.location))
			} else {
				delete(s.jobs, id)
			}
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		s.fire(job)
	}
}

// fire submits one due job into the pool. The result is observed off the
// tick loop so a slow callback never delays other jobs.
func (s *scheduler) fire(job *scheduledJob) {
	h, err := s.pool.Submit(job.payload)
	if err != nil {
		if s.metrics != nil {
			s.metrics.JobsFailed.WithLabelValues(s.name).Inc()
		}
		if cb := s.onResult; cb != nil {
			go cb(job.id, pool.Result{Err: err, WorkerID: -1})
		}
		return
	}

	atomic.AddInt64(&job.runs, 1)
	if s.metrics != nil {
		s.metrics.JobsFired.WithLabelValues(s.name).Inc()
	}
	if s.onResult != nil || s.metrics != nil {
		go s.watch(job.id, h)
	}
}

func (s *scheduler) watch(id string, h *pool.Handle) {
	<-h.Done()
	res, _ := h.TryResult()
	if res.Err != nil && s.metrics != nil {
		s.metrics.JobsFailed.WithLabelValues(s.name).Inc()
	}
	if cb := s.onResult; cb != nil {
		cb(id, res)
	}
}
