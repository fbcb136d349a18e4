// Package preload warms a list of assets and reports progress as each one
// settles. Failures are logged and counted, never fatal.
package preload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Progress struct {
	Done   int
	Total  int
	Failed int
	Last   string
}

// Fraction is Done/Total; an empty batch counts as complete.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Done) / float64(p.Total)
}

func (p Progress) Complete() bool { return p.Done >= p.Total }

type Preloader struct {
	// Concurrency above 1 fetches in parallel; 0 and 1 await in order.
	Concurrency int
	// Timeout bounds each fetch; 0 means no per-resource limit.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Run fetches every resource and calls progress after each one settles.
// It returns the final progress and ctx.Err() if ctx ended first.
func (p *Preloader) Run(ctx context.Context, resources []Resource, progress func(Progress)) (Progress, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	var mu sync.Mutex
	state := Progress{Total: len(resources)}
	settle := func(r Resource, err error) {
		mu.Lock()
		state.Done++
		state.Last = r.Name
		if err != nil {
			state.Failed++
			log.Warn("preload failed", zap.String("resource", r.Name), zap.String("kind", string(r.Kind)), zap.Error(err))
		} else {
			log.Debug("preloaded", zap.String("resource", r.Name))
		}
		snap := state
		progress(snap)
		mu.Unlock()
	}

	if p.Concurrency <= 1 {
		for _, r := range resources {
			if err := ctx.Err(); err != nil {
				return state, err
			}
			settle(r, p.fetch(ctx, r))
		}
		return state, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(p.Concurrency)
	for _, r := range resources {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			settle(r, p.fetch(ctx, r))
			return nil
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return state, ctx.Err()
}

func (p *Preloader) fetch(ctx context.Context, r Resource) error {
	if r.Fetch == nil {
		return nil
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return r.Fetch(ctx)
}
