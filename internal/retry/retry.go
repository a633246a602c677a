package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Policy describes how many times an operation is attempted and how long
// to wait between attempts. The delay doubles from BaseDelay and is capped
// at MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Retryable reports whether err is worth another attempt. Nil retries
	// everything except permanent and context errors. Cancellation of the
	// context passed to Do is never retried.
	Retryable func(error) bool

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// None attempts an operation exactly once.
func None() Policy {
	return Policy{MaxAttempts: 1}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The returned error wraps the last failure.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !p.shouldRetry(ctx, err) {
			var perm *permanentError
			if errors.As(err, &perm) {
				return perm.err
			}
			return err
		}
		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

// Delay returns the wait after the given 1-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if attempt < 1 {
		attempt = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || IsPermanent(err) {
		return false
	}
	if p.Retryable != nil {
		// a per-attempt deadline is the caller's call to make
		return p.Retryable(err)
	}
	return !errors.Is(err, context.DeadlineExceeded)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
