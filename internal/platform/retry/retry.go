// Package retry implements a small bounded-retry helper with error
// classification, used around the upstream AI collaborators.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Action tells Do how to treat a failed attempt.
type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, use normal backoff
	After               // rate-limited, use the longer backoff
)

// Classify maps an attempt error to an Action.
type Classify func(err error) Action

// Operation is one attempt. It receives the outer context; implementations
// derive their own per-attempt timeout from it.
type Operation[T any] func(ctx context.Context) (T, error)

// Policy bounds the retry loop. Backoff doubles after each failed attempt.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
	OnRetry          func(attempt int, err error, backoff time.Duration)
}

// Do runs op until it succeeds, classify returns Stop, attempts are
// exhausted, or ctx is cancelled.
func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var zero T
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		if action == After {
			backoff = p.RateLimitBackoff
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

// PermanentError wraps an error that classify marked as non-retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
