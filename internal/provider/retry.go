package provider

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jaa/songmeta/internal/config"
)

// Policy is the retry budget for one logical query.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Exponent    float64
	MaxDelay    time.Duration
}

func PolicyFromConfig(b config.Batch) Policy {
	return Policy{
		MaxAttempts: b.MaxAttempts,
		BaseDelay:   seconds(b.RetryBaseSeconds),
		Exponent:    b.RetryExponent,
		MaxDelay:    seconds(b.RetryMaxSeconds),
	}
}

// Delay is the wait after the given failed attempt (1-based). A provider's
// Retry-After hint raises the delay but never past MaxDelay.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	exponent := p.Exponent
	if exponent < 1 {
		exponent = 1
	}
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(exponent, float64(attempt-1)))
	if hint > delay {
		delay = hint
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// RetryEvent describes a failed attempt that will be retried.
type RetryEvent struct {
	Attempt int
	Delay   time.Duration
	Err     error
}

type RetryClient struct {
	next    Client
	policy  Policy
	sleep   func(ctx context.Context, d time.Duration) error
	onRetry func(RetryEvent)
}

type RetryOption func(*RetryClient)

func OnRetry(fn func(RetryEvent)) RetryOption {
	return func(r *RetryClient) {
		r.onRetry = fn
	}
}

// Retry retries Retryable errors from next until the policy's attempt budget
// is spent. Other errors are returned as soon as they occur.
func Retry(next Client, policy Policy, opts ...RetryOption) *RetryClient {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	r := &RetryClient{next: next, policy: policy, sleep: sleepContext}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RetryClient) Query(ctx context.Context, prompt string) (string, error) {
	trace := traceFrom(ctx)
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if trace != nil {
			trace.Attempts++
		}
		text, err := r.next.Query(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !Retryable(err) {
			return "", err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		var hint time.Duration
		var rl *RateLimitError
		if errors.As(err, &rl) {
			hint = rl.RetryAfter
		}
		delay := r.policy.Delay(attempt, hint)
		if r.onRetry != nil {
			r.onRetry(RetryEvent{Attempt: attempt, Delay: delay, Err: err})
		}
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", &ExhaustedError{Attempts: r.policy.MaxAttempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
