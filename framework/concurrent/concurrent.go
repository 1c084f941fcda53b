package concurrent

import (
	"context"
	"errors"
	"sync"
)

// ForEachWithLimit executes fn for each item with at most limit running at once.
// Items not started before ctx is cancelled report ctx.Err().
func ForEachWithLimit[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	_, err := MapWithLimit(ctx, items, limit, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}

// MapWithLimit applies fn to each item with a concurrency limit.
// Order of results matches order of items.
func MapWithLimit[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	if limit <= 0 {
		limit = 1
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i, item := range items {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			default:
			}

			results[i], errs[i] = fn(ctx, item)
		}(i, item)
	}

	wg.Wait()
	return results, join(errs)
}

// Burst runs fn for every item on a pool of workers goroutines. Workers are
// started first and released together, so the first batch of calls leaves
// as close to simultaneously as the scheduler allows. Order of results
// matches order of items.
func Burst[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = len(items)
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	gate := make(chan struct{})
	var ready, done sync.WaitGroup
	ready.Add(workers)
	done.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer done.Done()
			ready.Done()
			<-gate
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				results[i], errs[i] = fn(ctx, items[i])
			}
		}()
	}

	ready.Wait()
	close(gate)
	done.Wait()

	return results, join(errs)
}

// Collector gathers results from multiple concurrent operations.
type Collector[T any] struct {
	mu      sync.Mutex
	results []T
	errs    []error
	wg      sync.WaitGroup
}

// NewCollector creates a new Collector
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

// Go runs fn in a goroutine and collects its result
func (c *Collector[T]) Go(fn func() (T, error)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := fn()
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.errs = append(c.errs, err)
		} else {
			c.results = append(c.results, result)
		}
	}()
}

// Wait waits for all operations to complete and returns results and errors
func (c *Collector[T]) Wait() ([]T, error) {
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errs) > 0 {
		return c.results, errors.Join(c.errs...)
	}
	return c.results, nil
}

// Errors returns the collected errors (must be called after Wait)
func (c *Collector[T]) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

func join(errs []error) error {
	var all []error
	for _, err := range errs {
		if err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}
