package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Process submits every item to the pool and collects the results in
// input order. Each result value must be assignable to R or Process
// fails. The first error cancels the context shared by the remaining
// items and is returned once every started task has resolved.
//
// In-flight submissions are limited to the pool's capacity, so a pool
// whose QueueLimit is at least its Capacity cannot be saturated by
// Process.
func Process[T, R any](ctx context.Context, p Pool, items []T) ([]R, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Capacity())

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			h, err := p.SubmitWithContext(ctx, item)
			if err != nil {
				return err
			}
			value, err := h.Result()
			if err != nil {
				return err
			}
			if value == nil {
				// A nil result leaves the zero value in place.
				return nil
			}
			r, ok := value.(R)
			if !ok {
				return fmt.Errorf("item %d: result type %T is not %T", i, value, results[i])
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
