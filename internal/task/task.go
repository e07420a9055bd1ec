// Package task holds the building blocks shared by every pipeline stage: the
// task contract, fatal errors, a bounded worker pool and the dependency
// graph the orchestrator runs.
package task

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"nusmods-scraper/internal/components/telemetry"
)

type Task[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
}

// ForEach runs fn on every item with at most limit running at once. Results
// keep the order of items. Non fatal errors are reported and the item is
// dropped, the first fatal error cancels the remaining items and is
// returned.
func ForEach[In, Out any](
	ctx context.Context,
	tel telemetry.API,
	limit int,
	items []In,
	fn func(ctx context.Context, item In) (Out, error),
) ([]Out, error) {
	if limit <= 0 {
		limit = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	results := make([]Out, len(items))
	ok := make([]bool, len(items))
	for i, item := range items {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			out, err := fn(groupCtx, item)
			if err != nil {
				if IsFatal(err) || groupCtx.Err() != nil {
					return err
				}
				tel.ReportBroken(report_item_failed, fmt.Errorf("item %v: %w", item, err))
				return nil
			}
			results[i] = out
			ok[i] = true
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	kept := make([]Out, 0, len(items))
	for i, out := range results {
		if ok[i] {
			kept = append(kept, out)
		}
	}
	return kept, nil
}

const report_item_failed = "task.item"
