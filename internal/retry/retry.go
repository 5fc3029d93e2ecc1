// Package retry provides a bounded retry policy for outbound calls.
// Callers mark data errors as Terminal so they fail immediately; everything
// else is treated as transient up to the attempt ceiling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy bounds a retry loop: attempt ceiling, capped exponential backoff
// and a per-attempt timeout. Zero-valued fields fall back to Default().
type Policy struct {
	MaxAttempts    int
	BaseInterval   time.Duration
	MaxInterval    time.Duration
	AttemptTimeout time.Duration
}

// Default mirrors the resolver's historical knobs: a high attempt ceiling
// with the backoff capped at five seconds.
func Default() Policy {
	return Policy{
		MaxAttempts:    1000,
		BaseInterval:   time.Second,
		MaxInterval:    5 * time.Second,
		AttemptTimeout: 10 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	d := Default()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseInterval <= 0 {
		p.BaseInterval = d.BaseInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = d.AttemptTimeout
	}
	return p
}

// backoff returns the sleep before attempt n (1-based), doubling from
// BaseInterval and capped at MaxInterval.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseInterval
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxInterval {
			return p.MaxInterval
		}
	}
	if d > p.MaxInterval {
		return p.MaxInterval
	}
	return d
}

type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal marks err as non-retryable; Do stops immediately.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err was marked via Terminal.
func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// Do runs op until it succeeds, returns a terminal error, the context ends,
// or the attempt ceiling is reached.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		err := op(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		if IsTerminal(err) {
			var t *terminalError
			errors.As(err, &t)
			return t.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("retry: %d attempts exhausted: %w", p.MaxAttempts, lastErr)
}
