// Package parallel provides chunked data-parallel execution helpers for
// batched tensor computations. Callers are responsible for ensuring that the
// per-range functions touch disjoint output indices.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Parallelize splits items across the available CPU cores and runs fn on each
// contiguous range [start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so that every item lands in exactly one chunk.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items does not exceed
// threshold, avoiding goroutine overhead for small batches.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ParallelizeWithError behaves like Parallelize for range functions that can
// fail, such as batched linear solves on possibly singular systems. The first
// error encountered is returned and no partial results are reported; callers
// must treat the shared output as undefined when an error is returned.
func ParallelizeWithError(items int, fn func(start, end int) error) error {
	if items == 0 {
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	var g errgroup.Group
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}

// ParallelizeWithErrorThreshold runs fn sequentially when items does not
// exceed threshold.
func ParallelizeWithErrorThreshold(items, threshold int, fn func(start, end int) error) error {
	if items <= threshold {
		return fn(0, items)
	}
	return ParallelizeWithError(items, fn)
}
