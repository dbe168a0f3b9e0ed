package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/platform/retry"
)

var fastPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   1 * time.Millisecond,
	RateLimitBackoff: 5 * time.Millisecond,
}

func alwaysRetry(error) retry.Action { return retry.Retry }
func alwaysStop(error) retry.Action  { return retry.Stop }

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if val != "ok" || calls != 3 {
		t.Fatalf("expected ok after 3 calls, got %q after %d", val, calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysRetry, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != fastPolicy.MaxAttempts {
		t.Fatalf("expected %d calls, got %d", fastPolicy.MaxAttempts, calls)
	}
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysStop, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("permanent")
	})
	var permErr *retry.PermanentError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermanentError, got %T: %v", err, err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_RateLimitedUsesLongerBackoff(t *testing.T) {
	var seen []time.Duration
	p := fastPolicy
	p.OnRetry = func(_ int, _ error, backoff time.Duration) {
		seen = append(seen, backoff)
	}
	classify := func(error) retry.Action { return retry.After }

	_, _ = retry.Do(context.Background(), p, classify, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("rate limited")
	})

	if len(seen) != 2 {
		t.Fatalf("expected 2 retries, got %d", len(seen))
	}
	if seen[0] != p.RateLimitBackoff {
		t.Fatalf("expected first backoff %v, got %v", p.RateLimitBackoff, seen[0])
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := retry.Policy{MaxAttempts: 3, InitialBackoff: time.Minute}
	_, err := retry.Do(ctx, p, alwaysRetry, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
