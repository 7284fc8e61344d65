// Package retry provides in-process redelivery with exponential backoff for transient failures.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts    int           // Total attempts including the first (values below 1 mean 1)
	InitialBackoff time.Duration // Backoff before the second attempt
	MaxBackoff     time.Duration // Upper bound for a single backoff
	BackoffFactor  float64       // Multiplier for exponential backoff
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

// Do runs fn until it succeeds, returns an error that retryable rejects, or
// MaxAttempts is reached. attempt starts at 1. It returns the last error from
// fn, or ctx.Err() if ctx is done while waiting between attempts.
func Do(ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func(attempt int) error) error {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				slog.Info("Operation succeeded after retry",
					"operation", operation,
					"attempt", attempt,
				)
			}
			return nil
		}
		lastErr = err

		if !retryable(err) {
			slog.Debug("Error is not retryable, failing immediately",
				"operation", operation,
				"error", err,
			)
			return err
		}

		if attempt == maxAttempts {
			slog.Warn("Max attempts exceeded",
				"operation", operation,
				"attempts", attempt,
				"error", err,
			)
			return err
		}

		backoff := Backoff(cfg, attempt)

		slog.Warn("Operation failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// Backoff returns the wait after the given failed attempt (1-based), with ±25% jitter.
func Backoff(cfg Config, attempt int) time.Duration {
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	backoff := float64(cfg.InitialBackoff) * math.Pow(factor, float64(attempt-1))

	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
