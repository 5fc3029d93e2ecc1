package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"NFTProjector/internal/retry"
)

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:    attempts,
		BaseInterval:   time.Millisecond,
		MaxInterval:    2 * time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
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
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestDoStopsOnTerminal(t *testing.T) {
	sentinel := errors.New("bad data")
	calls := 0
	err := retry.Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return retry.Terminal(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("error: got %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastPolicy(4), func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 4 {
		t.Errorf("calls: got %d, want 4", calls)
	}
}

func TestDoHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry.Do(ctx, fastPolicy(100), func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestIsTerminalWrapped(t *testing.T) {
	inner := errors.New("inner")
	wrapped := retry.Terminal(inner)
	if !retry.IsTerminal(wrapped) {
		t.Error("Terminal not detected")
	}
	if retry.IsTerminal(inner) {
		t.Error("plain error detected as terminal")
	}
	if retry.Terminal(nil) != nil {
		t.Error("Terminal(nil) should be nil")
	}
}
