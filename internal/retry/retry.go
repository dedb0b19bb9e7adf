package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"fotoprotokoll/internal/services"
)

const (
	defaultMaxAttempts = 6
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Policy controls how an operation is retried. The zero value uses the
// defaults: 6 attempts, 1s base delay doubling per attempt, 30s cap.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Sleep overrides how delays are waited out (useful for tests). When nil
	// a context-aware sleep is used.
	Sleep func(context.Context, time.Duration) error

	// Jitter produces a random fraction in [0,1) added to each backoff as a
	// fraction of the base delay. When nil, rand.Float64 is used.
	Jitter func() float64
}

// ErrExhausted wraps the last failure after the attempt budget runs out.
var ErrExhausted = errors.New("retry attempts exhausted")

// Do runs fn until it succeeds, fails permanently, or the attempt budget is
// spent. Attempt numbers passed to fn are 1-based.
func Do[T any](ctx context.Context, policy Policy, op string, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := policy.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !services.IsTransient(err) {
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		if attempt == attempts {
			break
		}

		delay := policy.delay(attempt, err)
		if err := policy.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrExhausted, attempts, lastErr)
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) base() time.Duration {
	if p.BaseDelay <= 0 {
		return defaultBaseDelay
	}
	return p.BaseDelay
}

func (p Policy) cap() time.Duration {
	if p.MaxDelay <= 0 {
		return defaultMaxDelay
	}
	return p.MaxDelay
}

// delay computes the wait before the next attempt. A Retry-After hint from a
// rate-limited response takes precedence over the computed backoff; both are
// capped at MaxDelay.
func (p Policy) delay(attempt int, err error) time.Duration {
	maxDelay := p.cap()

	var statusErr *services.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		if statusErr.RetryAfter > maxDelay {
			return maxDelay
		}
		return statusErr.RetryAfter
	}

	base := p.base()
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}

	jitter := rand.Float64
	if p.Jitter != nil {
		jitter = p.Jitter
	}
	delay += time.Duration(jitter() * float64(base))

	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, delay)
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
