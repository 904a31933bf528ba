package schedule

import (
	"sync/atomic"
	"time"
)

// Job is a handle to one scheduled job. It stays valid after the job
// fires or is cancelled; inspection methods then report the final state.
type Job struct {
	s     *scheduler
	entry *scheduledJob
}

// ID returns the job's identifier.
func (j *Job) ID() string {
	return j.entry.id
}

// Payload returns the payload submitted on every fire.
func (j *Job) Payload() any {
	return j.entry.payload
}

// Created returns when the job was scheduled.
func (j *Job) Created() time.Time {
	return j.entry.created
}

// Interval returns the repeat interval, zero for one-time and cron jobs.
func (j *Job) Interval() time.Duration {
	return j.entry.interval
}

// CronExpr returns the cron expression, empty for non-cron jobs.
func (j *Job) CronExpr() string {
	return j.entry.cronExpr
}

// Runs returns how many times the job has been submitted to the pool.
func (j *Job) Runs() int64 {
	return atomic.LoadInt64(&j.entry.runs)
}

// NextRun returns the next scheduled fire time, or the zero time when
// the job is no longer scheduled.
func (j *Job) NextRun() time.Time {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	if j.s.jobs[j.entry.id] != j.entry {
		return time.Time{}
	}
	return j.entry.runAt
}

// Active reports whether the job is still scheduled. A cancelled or
// completed one-time job is inactive even if its ID was reused.
func (j *Job) Active() bool {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	return j.s.jobs[j.entry.id] == j.entry
}

// Cancel removes this job from the schedule. It reports whether the job
// was still scheduled. Cancelling never affects a later job that reused
// the same ID.
func (j *Job) Cancel() bool {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if j.s.jobs[j.entry.id] == j.entry {
		delete(j.s.jobs, j.entry.id)
		return true
	}
	return false
}
