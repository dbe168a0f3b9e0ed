package ai

import (
	"context"
	"errors"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/platform/retry"
)

var (
	// ErrUpstreamTimeout indicates the upstream call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timed out")

	// ErrRateLimited indicates the upstream returned 429.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstream covers all other upstream failures, including an open
	// circuit breaker.
	ErrUpstream = errors.New("upstream error")
)

// ClassifyError maps collaborator errors onto the retry policy's actions.
// Everything upstream is considered transient; only a cancelled caller
// context stops the loop.
func ClassifyError(err error) retry.Action {
	switch {
	case errors.Is(err, context.Canceled):
		return retry.Stop
	case errors.Is(err, ErrRateLimited):
		return retry.After
	default:
		return retry.Retry
	}
}
