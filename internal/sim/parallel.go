package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulators side by side, each on its own
// bodies and relations.
type Ensemble struct {
	sims  []*Simulator
	limit int
}

// NewEnsemble runs at most limit simulators at once; limit <= 0 runs all.
func NewEnsemble(limit int, sims ...*Simulator) *Ensemble {
	return &Ensemble{sims: sims, limit: limit}
}

// Run returns the results in simulator order. Simulator i uses cfgs[i],
// or cfgs[0] when fewer configs are given. The first failure cancels the
// simulators still running.
func (e *Ensemble) Run(ctx context.Context, cfgs []Config) ([]*Result, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("ensemble needs at least one config")
	}
	results := make([]*Result, len(e.sims))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, s := range e.sims {
		cfg := cfgs[0]
		if i < len(cfgs) {
			cfg = cfgs[i]
		}
		g.Go(func() error {
			res, err := s.Run(ctx, cfg)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
