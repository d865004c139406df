// Package retry runs outbound calls under a bounded exponential-backoff policy.
package retry

import (
	"context"
	"errors"
	"time"
)

const defaultAttemptTimeout = 60 * time.Second

// Policy bounds how often and how patiently a call is retried.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	RateLimitBackoff time.Duration
	AttemptTimeout   time.Duration
}

// Decision tells Do what to do with a failed attempt.
type Decision int

const (
	Retry Decision = iota
	RetryAfterRateLimit
	Stop
)

// Classifier maps an attempt error onto a Decision.
type Classifier func(err error) Decision

// Do calls fn until it succeeds, the classifier stops it, or attempts run out.
//
// Each attempt runs on a context detached from ctx and bounded by AttemptTimeout,
// so an attempt already issued completes even if ctx is cancelled. Cancellation of ctx
// only prevents further attempts. The last attempt error is returned unchanged, except when ctx
// ends during a backoff wait: then the result also matches ctx.Err() under errors.Is.
func Do(ctx context.Context, p Policy, classify Classifier, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	timeout := p.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		err := fn(attemptCtx)
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		decision := Retry
		if !timedOut && classify != nil {
			decision = classify(err)
		}
		if decision == Stop || attempt == attempts {
			return lastErr
		}

		wait := p.backoff(attempt)
		if decision == RetryAfterRateLimit && p.RateLimitBackoff > wait {
			wait = p.RateLimitBackoff
		}

		select {
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		case <-time.After(wait):
		}
	}

	return lastErr
}

func (p Policy) backoff(attempt int) time.Duration {
	wait := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.MaxBackoff > 0 && wait >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && wait > p.MaxBackoff {
		return p.MaxBackoff
	}
	return wait
}
