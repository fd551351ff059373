package hgmd

import "golang.org/x/sync/errgroup"

// parallelRanges splits [0, n) into contiguous chunks, one per worker, and
// runs fn on each chunk in its own goroutine. Chunks don't overlap, so fn
// may write to per-index output slots without synchronization. Errors from
// workers are collected after all chunks finish; the first one is
// returned. numWorkers <= 1 runs fn once on the whole range.
func parallelRanges(n, numWorkers int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}
	if numWorkers <= 1 || n == 1 {
		return fn(0, n)
	}

	perWorker := (n + numWorkers - 1) / numWorkers

	var g errgroup.Group
	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := min(start+perWorker, n)
		if start >= n {
			break
		}
		g.Go(func() error { return fn(start, end) })
	}
	return g.Wait()
}
