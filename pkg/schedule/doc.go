// Package schedule provides deferred, periodic, and cron-based submission
// of payloads into a worker pool.
//
// The scheduler keeps a registry of jobs, checks for due jobs on a fixed
// tick, and submits each due payload to its pool. Execution itself is the
// pool's business: capacity limits, completion handles, crash recovery,
// and shutdown semantics all come from pkg/pool.
//
// Basic Usage:
//
//	p := pool.New(4, factory)
//	defer func() { <-p.Shutdown() }()
//
//	s := schedule.New(p)
//	defer func() { <-s.Stop() }()
//	s.Start()
//
//	// Run once, five seconds from now
//	s.ScheduleAfter("warmup", "warm caches", 5*time.Second)
//
//	// Run every minute
//	s.ScheduleEvery("poll", "poll upstream", time.Minute)
//
//	// Run at half past every hour (seconds field first)
//	s.ScheduleCron("report", "0 30 * * * *", "build report")
//
// Job Handles:
//
// Every Schedule call returns a *Job handle for inspection and targeted
// cancellation:
//
//	job, err := s.ScheduleEvery("poll", "poll upstream", time.Minute)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("next run: %v\n", job.NextRun())
//	fmt.Printf("fired so far: %d\n", job.Runs())
//	job.Cancel()
//
// Cancelling through a stale handle is safe: a handle only ever cancels
// the exact job it was returned for, never a later job that reused the ID.
//
// Observing Results:
//
// The pool resolves every submission through a completion handle; the
// scheduler can bridge those results back to a callback:
//
//	config := schedule.Config{
//		Pool: p,
//		OnResult: func(id string, result pool.Result) {
//			if result.Err != nil {
//				log.Printf("job %s failed: %v", id, result.Err)
//			}
//		},
//	}
//	s := schedule.NewWithConfig(config)
//
// OnResult also reports submissions the pool rejected, for example when
// the pool is saturated or already shut down.
//
// Owned Pools:
//
// A scheduler constructed with a Factory instead of a Pool builds its own
// pool and shuts it down when stopped:
//
//	s := schedule.NewWithConfig(schedule.Config{
//		Factory:      factory,
//		PoolCapacity: 2,
//	})
//	s.Start()
//	// ...
//	<-s.Stop() // drains the owned pool too
//
// Cron Expressions:
//
// Cron parsing uses the six-field form with a seconds column, plus the
// descriptor shortcuts:
//
//	"*/10 * * * * *"  - every 10 seconds
//	"0 30 14 * * 1-5" - 2:30 PM on weekdays
//	"@hourly"         - top of every hour
//
// Timing:
//
// Due jobs are detected on the scheduler's tick (default 50ms), so fire
// times are accurate to within one tick interval. The Clock used for due
// checks is injectable for tests.
//
// Thread Safety:
//
// All Scheduler and Job methods are safe for concurrent use.
package schedule
