package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pidsim/internal/pid"
)

// Compare runs every variant in variants against the same setpoint
// concurrently. Results keep the order of variants. Runs share observers and
// collector from opts, so those must be safe for concurrent use.
func Compare(ctx context.Context, setpoint float64, variants []pid.Variant, opts ...Option) ([]*Result, error) {
	if len(variants) == 0 {
		variants = pid.Variants()
	}

	results := make([]*Result, len(variants))
	g, ctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			res, err := New(Config{Variant: v, Setpoint: setpoint}, opts...).Run(ctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
