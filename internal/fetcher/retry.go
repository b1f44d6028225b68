package fetcher

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// retryConfig controls download retries with exponential backoff and jitter.
type retryConfig struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitterFraction float64
}

func defaultRetryConfig(attempts int) retryConfig {
	if attempts <= 0 {
		attempts = 3
	}
	return retryConfig{
		maxAttempts:    attempts,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     10 * time.Second,
		multiplier:     2.0,
		jitterFraction: 0.25,
	}
}

// transientError marks a download failure that is safe to retry, such as
// a 5xx response or a dropped connection.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// isTransient reports whether err is worth retrying: an explicit
// transientError, a network timeout, or a connection-level failure.
// Client errors (4xx) and parse failures are permanent.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *transientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// retry executes fn until it succeeds, returns a permanent error, or all
// attempts are used. Context cancellation stops retries immediately.
func retry[T any](ctx context.Context, cfg retryConfig, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !isTransient(lastErr) {
			return zero, lastErr
		}
		if attempt >= cfg.maxAttempts-1 {
			break
		}

		delay := backoff(attempt, cfg)
		zap.L().Warn("fetcher: retrying after transient failure",
			zap.String("op", name),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func backoff(attempt int, cfg retryConfig) time.Duration {
	delay := float64(cfg.initialBackoff) * math.Pow(cfg.multiplier, float64(attempt))
	if delay > float64(cfg.maxBackoff) {
		delay = float64(cfg.maxBackoff)
	}
	if cfg.jitterFraction > 0 {
		jitter := delay * cfg.jitterFraction * (2*rand.Float64() - 1)
		delay += jitter
	}
	return time.Duration(delay)
}
