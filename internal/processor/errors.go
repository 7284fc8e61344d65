package processor

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by Process. Callers classify them with errors.Is.
var (
	// ErrInvalidPayload means the payload could not be decoded into an alert.
	ErrInvalidPayload = errors.New("invalid alert payload")

	// ErrPersistence means the record store failed.
	ErrPersistence = errors.New("technical error when saving alert")

	// ErrInterrupted means processing was cancelled before it completed.
	ErrInterrupted = errors.New("alert processing was interrupted")

	// ErrProcessing covers any other unexpected failure.
	ErrProcessing = errors.New("unexpected error when processing alert")
)

// IsRetryable reports whether redelivering the message could succeed.
// Only malformed payloads are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrInvalidPayload)
}

// interrupted wraps the context's error as ErrInterrupted.
func interrupted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
}

// storeError classifies a store failure. A failure caused by cancellation is
// reported as an interruption rather than a persistence error.
func storeError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return interrupted(ctx)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
