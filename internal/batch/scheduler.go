package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of CVs analyzed in parallel when the
// caller does not override it.
const DefaultConcurrency = 3

// RunQueue drains items through worker with at most concurrency in flight.
// Items are dequeued in intake order; no worker sits idle while work
// remains. RunQueue blocks until every item has been handed to a worker
// and every worker has returned.
func RunQueue(ctx context.Context, items []WorkItem, concurrency int, worker func(ctx context.Context, w WorkItem)) {
	if len(items) == 0 {
		return
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	queue := make(chan WorkItem, len(items))
	for _, w := range items {
		queue <- w
	}
	close(queue)

	g := new(errgroup.Group)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for w := range queue {
				worker(ctx, w)
			}
			return nil
		})
	}
	// Workers never return errors; failures are per-item.
	_ = g.Wait()
}
