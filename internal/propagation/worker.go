package propagation

import (
	"context"
	"log/slog"
	"sync"
)

// job is a unit of work for the worker pool.
type job struct {
	index int
}

// result is the outcome of a single job.
type result struct {
	index int
	err   error
}

// WorkerPool manages a fixed number of goroutines for index-addressed work.
// Each job writes its own slot of the caller's output, so results never
// depend on scheduling order.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run calls fn for every index in [0, n) on the pool. It returns the error of
// the lowest failing index, or ctx.Err() if the context was cancelled before
// all jobs were handed out.
func (wp *WorkerPool) Run(ctx context.Context, n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}

	jobs := make(chan job, wp.workers*2)
	results := make(chan result, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < min(wp.workers, n); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				r := result{index: j.index, err: fn(j.index)}
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- job{index: i}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		firstErr   error
		firstIndex = n
		done       int
		failed     int
	)
	for r := range results {
		done++
		if r.err == nil {
			continue
		}
		failed++
		wp.logger.Warn("job failed",
			"index", r.index,
			"error", r.err,
		)
		if r.index < firstIndex {
			firstIndex, firstErr = r.index, r.err
		}
	}

	if err := ctx.Err(); err != nil && done < n {
		return err
	}
	if failed > 0 {
		wp.logger.Debug("pool run finished with failures", "jobs", n, "failed", failed)
	}
	return firstErr
}
