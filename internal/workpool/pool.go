// Package workpool runs independent per-item jobs on a bounded set of workers.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item, stored at the item's input index
type Result[R any] struct {
	Value R
	Err   error
}

// Map applies fn to every item using at most workers goroutines.
// Results keep input order. A failing item never stops the others; once ctx
// is cancelled the remaining items report ctx.Err() without running.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}

	// a plain Group: item errors stay in results and never cancel siblings
	var g errgroup.Group
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result[R]{Err: err}
				return nil
			}
			v, err := fn(ctx, item)
			results[i] = Result[R]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
