package dispatch

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"triage/internal/element"
	"triage/internal/retry"
)

// Summary counts terminal element outcomes for one main-phase batch.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
}

// Total returns the number of attempted elements.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

// Func processes one element to a terminal outcome. The error is non-nil only
// when the whole run must abort.
type Func func(context.Context, element.Element) (retry.Outcome, error)

// Runner decides serial versus pooled execution of a main phase.
type Runner struct {
	// Parallel selects the worker pool; serial execution otherwise.
	Parallel bool
	// Workers bounds the pool size; the host's GOMAXPROCS when zero.
	Workers int
}

// Mode names the dispatch mode for phase logs.
func (r Runner) Mode() string {
	if r.Parallel {
		return "parallel"
	}
	return "serial"
}

// Run executes fn over all elements and returns the outcome summary. No
// ordering is guaranteed across elements in parallel mode.
func (r Runner) Run(ctx context.Context, elements []element.Element, fn Func) (Summary, error) {
	if !r.Parallel {
		return r.runSerial(ctx, elements, fn)
	}
	return r.runPool(ctx, elements, fn)
}

func (r Runner) runSerial(ctx context.Context, elements []element.Element, fn Func) (Summary, error) {
	var summary Summary
	for _, el := range elements {
		outcome, err := fn(ctx, el)
		if err != nil {
			return summary, err
		}
		summary.count(outcome)
	}
	return summary, nil
}

func (r Runner) runPool(ctx context.Context, elements []element.Element, fn Func) (Summary, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var succeeded, skipped, failed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, el := range elements {
		el := el
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcome, err := fn(groupCtx, el)
			if err != nil {
				return err
			}
			switch outcome {
			case retry.Succeeded:
				succeeded.Add(1)
			case retry.Skipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}

	err := group.Wait()
	summary := Summary{
		Succeeded: int(succeeded.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	return summary, err
}

func (s *Summary) count(outcome retry.Outcome) {
	switch outcome {
	case retry.Succeeded:
		s.Succeeded++
	case retry.Skipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
