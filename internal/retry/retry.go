// Package retry re-runs store and remote operations that fail with transient errors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loykin/j2g/internal/common"
)

// Config holds the backoff policy.
type Config struct {
	MaxRetries      int           // retries after the first attempt
	InitialDelay    time.Duration // delay before the first retry
	MaxDelay        time.Duration // cap for the exponential delay
	BackoffFactor   float64       // multiplier per retry
	RetryableErrors []string      // lowercase fragments of transient error messages
}

// DefaultRetryConfig returns the policy used by the history store.
func DefaultRetryConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"timeout",
			"temporary failure",
			"deadlock",
			"database is locked",
			"sqlite_busy",
			"too many clients",
			"broken pipe",
			"eof",
		},
	}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying regardless of its message.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsRetryable reports whether err matches one of the transient fragments.
func (rc *Config) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p permanentError
	if errors.As(err, &p) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range rc.RetryableErrors {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// Delay returns the wait before retry number attempt (zero-based).
func (rc *Config) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}
	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.BackoffFactor, float64(attempt)))
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}
	return delay
}

// WithRetry runs op until it succeeds, fails permanently, or the retries run out.
func WithRetry(ctx context.Context, config *Config, op func() error) error {
	_, err := WithRetryValue(ctx, config, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// WithRetryValue is WithRetry for operations that produce a value.
func WithRetryValue[T any](ctx context.Context, config *Config, op func() (T, error)) (T, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}
	logger := common.FromContext(ctx).WithComponent("retry")

	var zero T
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		v, err := op()
		if err == nil {
			if attempt > 0 {
				logger.Info("operation succeeded after retry", "attempt", attempt+1)
			}
			return v, nil
		}
		lastErr = err
		if attempt == config.MaxRetries {
			break
		}
		if !config.IsRetryable(err) {
			var p permanentError
			if errors.As(err, &p) {
				return zero, p.err
			}
			return zero, err
		}

		delay := config.Delay(attempt)
		logger.Warn("operation failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"max_attempts", config.MaxRetries+1,
			"retry_delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}

	logger.Error("operation failed after all retry attempts", "error", lastErr, "attempts", config.MaxRetries+1)
	return zero, fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
