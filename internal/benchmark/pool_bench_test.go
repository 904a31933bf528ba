package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/ever-lena/taskpool/pkg/pool"
)

func echoFactory() pool.Factory {
	return pool.FactoryOf(func(_ context.Context, payload any) (any, error) {
		return payload, nil
	})
}

// BenchmarkPoolSubmit measures task submission performance.
func BenchmarkPoolSubmit(b *testing.B) {
	capacities := []int{2, 4, 8}

	for _, capacity := range capacities {
		b.Run(workerLabel(capacity), func(b *testing.B) {
			p, err := pool.NewSafe(capacity, echoFactory())
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-p.Shutdown() }()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = p.Submit(i)
			}
		})
	}
}

// BenchmarkPoolSubmitWithContext measures context-aware submission.
func BenchmarkPoolSubmitWithContext(b *testing.B) {
	p, err := pool.NewSafe(4, echoFactory())
	if err != nil {
		b.Fatalf("failed to create pool: %v", err)
	}
	defer func() { <-p.Shutdown() }()

	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.SubmitWithContext(ctx, i)
	}
}

// BenchmarkPoolThroughput measures end-to-end task execution.
func BenchmarkPoolThroughput(b *testing.B) {
	p, err := pool.NewSafe(4, echoFactory())
	if err != nil {
		b.Fatalf("failed to create pool: %v", err)
	}
	defer func() { <-p.Shutdown() }()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Submit(i)
	}

	// Wait for all tasks to complete
	for p.TotalCompleted() < int64(b.N) {
		time.Sleep(time.Microsecond)
	}
}

// BenchmarkPoolWithWork measures performance with actual work.
func BenchmarkPoolWithWork(b *testing.B) {
	workDurations := []time.Duration{
		0,
		time.Microsecond,
		10 * time.Microsecond,
	}

	for _, workDuration := range workDurations {
		label := "NoWork"
		if workDuration > 0 {
			label = workDuration.String()
		}

		dur := workDuration // capture for closure
		factory := pool.FactoryOf(func(_ context.Context, payload any) (any, error) {
			if dur > 0 {
				time.Sleep(dur)
			}
			return payload, nil
		})

		b.Run(label, func(b *testing.B) {
			p, err := pool.NewSafe(4, factory)
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-p.Shutdown() }()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = p.Submit(i)
			}

			// Wait for completion
			for p.TotalCompleted() < int64(b.N) {
				time.Sleep(time.Microsecond)
			}
		})
	}
}

// BenchmarkPoolScaling measures performance with different pool shapes.
func BenchmarkPoolScaling(b *testing.B) {
	scales := []struct {
		workers int
		queue   int
	}{
		{1, 0},
		{2, 0},
		{4, 0},
		{8, 0},
		{4, 100},
		{4, 1000},
	}

	for _, scale := range scales {
		b.Run(scaleLabel(scale.workers, scale.queue), func(b *testing.B) {
			config := pool.Config{
				Capacity:   scale.workers,
				Factory:    echoFactory(),
				QueueLimit: scale.queue,
			}
			p, err := pool.NewWithConfigSafe(config)
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-p.Shutdown() }()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				h, err := p.Submit(i)
				if err != nil {
					// Saturated; wait out the backlog before retrying
					time.Sleep(time.Microsecond)
					continue
				}
				_ = h
			}
		})
	}
}

// BenchmarkPoolBatch measures typed batch processing.
func BenchmarkPoolBatch(b *testing.B) {
	sizes := []int{10, 100, 1000}

	for _, size := range sizes {
		b.Run(sizeLabel(size), func(b *testing.B) {
			p, err := pool.NewSafe(4, echoFactory())
			if err != nil {
				b.Fatalf("failed to create pool: %v", err)
			}
			defer func() { <-p.Shutdown() }()

			items := make([]int, size)
			for i := range items {
				items[i] = i
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := pool.Process[int, int](context.Background(), p, items); err != nil {
					b.Fatalf("batch failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkPoolShutdown measures graceful shutdown performance.
func BenchmarkPoolShutdown(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p, err := pool.NewSafe(4, echoFactory())
		if err != nil {
			b.Fatalf("failed to create pool: %v", err)
		}

		for j := 0; j < 10; j++ {
			_, _ = p.Submit(j)
		}

		<-p.Shutdown()
	}
}

// workerLabel returns a readable label for worker counts.
func workerLabel(workers int) string {
	return string(rune('0'+workers)) + "workers"
}

// scaleLabel returns a label for scale configuration.
func scaleLabel(workers, queue int) string {
	if queue == 0 {
		return workerLabel(workers) + "_unbounded"
	}
	return workerLabel(workers) + "_q" + sizeLabel(queue)
}

// sizeLabel returns a readable label for benchmark sizes.
func sizeLabel(size int) string {
	switch {
	case size >= 10000:
		return "10k"
	case size >= 1000:
		return "1k"
	case size >= 100:
		return "100"
	default:
		return "10"
	}
}
