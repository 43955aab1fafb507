package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks connection failures to a remote backend.
var ErrNetwork = errors.New("network error")

// RetryableError marks an error as worth retrying.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is a retry policy: up to Attempts calls, sleeping Delay after the
// first failure and doubling the sleep after each further one.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// Retry policies used by the Redis backends.
var (
	// NetworkBackoff rides out short connection failures.
	NetworkBackoff = Backoff{Attempts: 3, Delay: time.Second}

	// ContentionBackoff retries optimistic transactions that lost a race.
	ContentionBackoff = Backoff{Attempts: 8, Delay: 2 * time.Millisecond}
)

// Retry calls fn until it succeeds, returns an error not wrapped with
// Retryable, runs out of attempts, or ctx ends. It returns fn's last error,
// or ctx.Err() when ctx ends while waiting.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff retries fn with NetworkBackoff.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return NetworkBackoff.Retry(ctx, fn)
}
