/*
Package taskpool provides a bounded pool of isolated workers for
concurrent task execution, with completion handles, crash recovery, and
scheduled submission.

Worker Pool (pkg/pool):
  - pool: Bounded pool with per-task result handles and FIFO dispatch
  - leases: Manual acquire/release of workers for pinned task sequences
  - batch: Fan a slice of items out across the pool

Scheduling (pkg/schedule):
  - One-time, interval, and cron-driven submission into a pool

Observability (pkg/metrics):
  - Prometheus registry and a metered pool decorator

Example usage:

	import (
		"github.com/ever-lena/taskpool/pkg/pool"
	)

	p := pool.New(4, pool.FactoryOf(convert)) // 4 isolated workers

	h, err := p.Submit(payload)
	if err != nil {
		return err
	}
	value, err := h.Result()
*/
package taskpool
