package retry_test

import (
	"context"
	"errors"
	"testing"

	"triage/internal/faults"
	"triage/internal/retry"
)

func TestSkipIsTerminalAndNeverRetried(t *testing.T) {
	attempts := 0
	skips := 0
	outcome, err := retry.Policy{}.Run(context.Background(), func(context.Context) error {
		attempts++
		return faults.Skipf("already analysed")
	}, retry.Events{OnSkip: func(error) { skips++ }})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != retry.Skipped {
		t.Fatalf("outcome = %v, want Skipped", outcome)
	}
	if attempts != 1 {
		t.Fatalf("skip was retried: %d attempts", attempts)
	}
	if skips != 1 {
		t.Fatalf("expected one skip event, got %d", skips)
	}
}

func TestRetryThenSucceed(t *testing.T) {
	attempts := 0
	retries := 0
	outcome, err := retry.Policy{}.Run(context.Background(), func(context.Context) error {
		attempts++
		if attempts <= 3 {
			return faults.Retryf("unsuccessful storage")
		}
		return nil
	}, retry.Events{OnRetry: func(int, error) { retries++ }})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != retry.Succeeded {
		t.Fatalf("outcome = %v, want Succeeded", outcome)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
	if retries != 3 {
		t.Fatalf("expected 3 retry events, got %d", retries)
	}
}

func TestRetryExhaustsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	exhausted := false
	outcome, err := retry.Policy{}.Run(context.Background(), func(context.Context) error {
		attempts++
		return faults.Retryf("connection reset")
	}, retry.Events{OnExhausted: func(error) { exhausted = true }})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != retry.Exhausted {
		t.Fatalf("outcome = %v, want Exhausted", outcome)
	}
	if attempts != retry.DefaultMaxAttempts {
		t.Fatalf("expected exactly %d attempts, got %d", retry.DefaultMaxAttempts, attempts)
	}
	if !exhausted {
		t.Fatal("expected exhausted event")
	}
}

func TestCustomMaxAttempts(t *testing.T) {
	attempts := 0
	outcome, _ := retry.Policy{MaxAttempts: 2}.Run(context.Background(), func(context.Context) error {
		attempts++
		return faults.Retryf("still failing")
	}, retry.Events{})

	if outcome != retry.Exhausted || attempts != 2 {
		t.Fatalf("outcome=%v attempts=%d, want Exhausted after 2", outcome, attempts)
	}
}

func TestUnclassifiedFaultsInProduction(t *testing.T) {
	boom := errors.New("nil pointer dereference")
	faulted := 0
	outcome, err := retry.Policy{}.Run(context.Background(), func(context.Context) error {
		return boom
	}, retry.Events{OnFault: func(error) { faulted++ }})

	if err != nil {
		t.Fatalf("production mode must not propagate: %v", err)
	}
	if outcome != retry.Faulted {
		t.Fatalf("outcome = %v, want Faulted", outcome)
	}
	if faulted != 1 {
		t.Fatalf("expected one fault event, got %d", faulted)
	}
}

func TestUnclassifiedPropagatesUnderStrict(t *testing.T) {
	boom := errors.New("nil pointer dereference")
	_, err := retry.Policy{Strict: true}.Run(context.Background(), func(context.Context) error {
		return boom
	}, retry.Events{})

	if !errors.Is(err, boom) {
		t.Fatalf("strict mode should propagate the original error, got %v", err)
	}
}
