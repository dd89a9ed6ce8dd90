package optimize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirkon/vartrace/internal/ir"
	"github.com/sirkon/vartrace/internal/variables"
)

// UnitResult is an outcome of optimization of one unit.
type UnitResult struct {
	Unit    *ir.Unit
	Sweeps  int
	Changes int
	Err     error
}

// OptimizeUnits optimizes independent units of one registry, at most opts.Workers
// at a time. Units not started before ctx is done fail with its error. The returned
// error joins errors of all failed units.
func OptimizeUnits(ctx context.Context, reg *variables.Registry, units []*ir.Unit, opts Options) ([]UnitResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]UnitResult, len(units))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, unit := range units {
		results[i].Unit = unit
		if err := ctx.Err(); err != nil {
			results[i].Err = fmt.Errorf("optimize %s: %w", unit.Scope.Name, err)
			continue
		}

		select {
		case <-ctx.Done():
			results[i].Err = fmt.Errorf("optimize %s: %w", unit.Scope.Name, ctx.Err())
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()

			s := NewScheduler(reg, unit, opts)
			err := s.Run()
			results[i].Sweeps = s.Sweeps()
			results[i].Changes = s.Changes()
			results[i].Err = err
		}()
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}

	return results, errors.Join(errs...)
}
