package velox

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// workerPool bounds the concurrency used to dispatch independent
// sub-block encodes. It is a constructor-time parameter of the block
// engine rather than hidden package-level state, so tests can force
// single-threaded, deterministic execution (spec.md §5).
type workerPool struct {
	limit int
}

// newWorkerPool constructs a pool with the given maximum concurrency.
// A limit <= 0 means "unbounded" (one goroutine per task, as if there
// were no pool at all); a limit of 1 runs every task synchronously in
// submission order, which is how tests force determinism.
func newWorkerPool(limit int) *workerPool {
	return &workerPool{limit: limit}
}

// defaultWorkerPool returns a pool sized to the number of hardware
// threads, the reference size from spec.md §5.
func defaultWorkerPool() *workerPool {
	return newWorkerPool(runtime.NumCPU())
}

// run executes n independent tasks, indexed 0..n-1, and returns their
// results gathered in index order. A task's error aborts the whole
// batch; run returns the first error encountered.
func (p *workerPool) run(n int, task func(i int) ([]byte, error)) ([][]byte, error) {
	results := make([][]byte, n)

	g := new(errgroup.Group)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			out, err := task(i)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
