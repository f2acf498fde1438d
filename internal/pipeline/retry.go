package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/guideparse/internal/grobid"
)

// IsRetryable reports whether GROBID refused the call because it was busy.
func IsRetryable(err error) bool {
	var retryErr *grobid.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(min(attempt, 5)))*time.Second, 30*time.Second)
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const DefaultMaxRetries = 3

// backoffFunc is swapped out in tests.
var backoffFunc = Backoff

// withRetry calls fn up to attempts times while it fails with a retryable
// error, sleeping between tries.
func withRetry[T any](ctx context.Context, attempts int, log *slog.Logger, fn func() (T, error)) (T, error) {
	attempts = max(attempts, 1)
	var (
		out T
		err error
	)
	for attempt := range attempts {
		out, err = fn()
		if err == nil || !IsRetryable(err) || attempt == attempts-1 {
			return out, err
		}
		wait := backoffFunc(attempt)
		log.Warn("retryable grobid error", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, err
}
