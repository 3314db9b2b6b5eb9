package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var fastPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastPolicy, nil, "flaky op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastPolicy, nil, "doomed op", func(context.Context) error {
		calls++
		return errors.New("still broken")
	})
	if err == nil {
		t.Fatalf("expected an error after exhaustion")
	}
	if calls != fastPolicy.MaxAttempts {
		t.Fatalf("expected %d calls, got %d", fastPolicy.MaxAttempts, calls)
	}
	if !strings.Contains(err.Error(), "retry budget exhausted") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	t.Parallel()

	marker := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), fastPolicy, nil, "auth op", func(context.Context) error {
		calls++
		return Permanent(marker)
	})
	if calls != 1 {
		t.Fatalf("expected a single call for a permanent error, got %d", calls)
	}
	if !errors.Is(err, marker) {
		t.Fatalf("expected the original error to be preserved, got %v", err)
	}
	if !IsPermanent(err) {
		t.Fatalf("expected the permanent marker to survive")
	}
}

func TestDoStopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastPolicy, nil, "cancelled op", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if err == nil {
		t.Fatalf("expected an error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries after cancellation, got %d calls", calls)
	}
}

func TestBackoffDelayRespectsCap(t *testing.T) {
	t.Parallel()

	policy := Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 4 * time.Second}
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if delay := backoffDelay(policy, attempt); delay > policy.MaxDelay {
			t.Fatalf("attempt %d: delay %v exceeds cap %v", attempt, delay, policy.MaxDelay)
		}
	}
}
