package retry

import (
	"context"

	"triage/internal/faults"
)

// DefaultMaxAttempts bounds the attempt loop when a policy does not say
// otherwise.
const DefaultMaxAttempts = 5

// Outcome is the terminal state of one element's attempt loop.
type Outcome int

const (
	// Succeeded means the attempt completed, with or without a write.
	Succeeded Outcome = iota
	// Skipped means the extension point declined the element; benign.
	Skipped
	// Exhausted means every attempt failed with a retryable error; the run
	// is marked errored.
	Exhausted
	// Faulted means an unclassified error was recorded and the run moved on;
	// the run is not marked errored by this alone.
	Faulted
)

// String names the outcome for logs and ledger rows.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Exhausted:
		return "exhausted"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Policy controls the attempt loop.
type Policy struct {
	// MaxAttempts bounds attempts per element; DefaultMaxAttempts when zero.
	MaxAttempts int
	// Strict propagates unclassified errors instead of degrading them to
	// Faulted. Used in development so bugs abort at the first element.
	Strict bool
}

// Events receives per-transition callbacks so the stage can log element
// records. Any callback may be nil.
type Events struct {
	OnSkip      func(reason error)
	OnRetry     func(attempt int, reason error)
	OnExhausted func(err error)
	OnFault     func(err error)
}

// Run drives attempt through the state machine until the element reaches a
// terminal state. The returned error is non-nil only when the run must abort:
// an unclassified error under Strict, or a fatal-class error.
func (p Policy) Run(ctx context.Context, attempt func(context.Context) error, ev Events) (Outcome, error) {
	max := p.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}

	var lastErr error
	for n := 1; n <= max; n++ {
		err := attempt(ctx)
		switch faults.Classify(err) {
		case faults.ClassNone:
			return Succeeded, nil
		case faults.ClassSkip:
			if ev.OnSkip != nil {
				ev.OnSkip(err)
			}
			return Skipped, nil
		case faults.ClassRetry:
			lastErr = err
			if ev.OnRetry != nil {
				ev.OnRetry(n, err)
			}
		case faults.ClassFatal:
			return Faulted, err
		default:
			if p.Strict {
				return Faulted, err
			}
			if ev.OnFault != nil {
				ev.OnFault(err)
			}
			return Faulted, nil
		}
	}

	if ev.OnExhausted != nil {
		ev.OnExhausted(lastErr)
	}
	return Exhausted, nil
}
