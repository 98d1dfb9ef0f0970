// ABOUTME: Retry utilities for API calls with exponential backoff
// ABOUTME: Wraps every LLM and embedding call with a per-attempt timeout
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%.
// A zero or negative base delay means no backoff.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	if baseDelay <= 0 {
		return 0
	}
	// Exponential: 2^attempt * base, capped at 30 seconds before it can overflow
	backoff := 30 * time.Second
	if baseDelay < backoff>>uint(attempt) {
		backoff = baseDelay << uint(attempt)
	}
	// rand.Int64N needs a positive bound
	if backoff < 2 {
		return backoff
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
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

// Retry calls fn up to maxRetries+1 times, backing off between attempts.
// Each attempt gets its own timeout when timeout > 0.
func Retry[T any](ctx context.Context, maxRetries int, baseDelay, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, CalculateBackoff(baseDelay, attempt)); err != nil {
				return zero, fmt.Errorf("attempt %d: %w", attempt+1, err)
			}
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		result, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if ctx.Err() != nil {
			return zero, lastErr
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", maxRetries+1, lastErr)
}
