package store

import (
	"context"
	"math"
	"math/rand"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	JitterFraction float64 // 0.0 to 1.0, fraction of delay to randomize
}

// DefaultCommitRetryConfig is tuned for Firestore batch commits, which
// occasionally fail with contention or a dropped connection.
var DefaultCommitRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialDelay:   200 * time.Millisecond,
	MaxDelay:       2 * time.Second,
	BackoffFactor:  2.0,
	JitterFraction: 0.2,
}

// IsTransient reports whether a Firestore error is worth retrying. Batch
// commits are atomic, so a failed commit changed nothing.
func IsTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}

// WithRetry executes fn with exponential backoff + jitter. It stops when fn
// succeeds, retryable rejects the error, the context is cancelled, or
// retries are exhausted.
func WithRetry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt >= cfg.MaxRetries {
			break
		}

		delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
		if delay > float64(cfg.MaxDelay) {
			delay = float64(cfg.MaxDelay)
		}
		if cfg.JitterFraction > 0 {
			delay += delay * cfg.JitterFraction * (rand.Float64()*2 - 1)
			if delay < 0 {
				delay = float64(cfg.InitialDelay)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(delay)):
		}
	}

	return lastErr
}
