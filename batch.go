package vers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ConvertAll converts independent records to version to, running up to
// concurrency conversions at once (no limit when concurrency <= 0). A zero
// to means the latest version. Each record's current version is detected
// separately.
//
// Results keep the order of records. The first failure cancels the
// conversions still running; they stop before their next step.
func (v *Vers) ConvertAll(ctx context.Context, to Version, records []any, concurrency int) ([]any, error) {
	if to.IsZero() {
		latest, err := v.Latest()
		if err != nil {
			return nil, err
		}
		to = latest
	}

	out := make([]any, len(records))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, rec := range records {
		g.Go(func() error {
			converted, err := v.To(gctx, to, rec)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			out[i] = converted
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
