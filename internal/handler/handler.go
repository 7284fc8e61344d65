// Package handler handles one inbound alert delivery: it runs the processor
// and makes sure every unsuccessful delivery leaves a FAILURE record behind.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dyel-L/alert-processor/internal/events"
	"github.com/Dyel-L/alert-processor/internal/metrics"
	"github.com/Dyel-L/alert-processor/internal/processor"
	"github.com/Dyel-L/alert-processor/internal/record"
)

// InterruptedReason prefixes the failure reason of a cancelled delivery.
const InterruptedReason = "Alert processing was interrupted"

// AlertProcessor processes one raw payload.
type AlertProcessor interface {
	Process(ctx context.Context, raw []byte) (*record.AlertRecord, error)
}

// FailureRecorder persists FAILURE records. Implementations must not fail.
type FailureRecorder interface {
	RecordFromAlertPayload(ctx context.Context, raw []byte, reason string)
	RecordFromRawPayload(ctx context.Context, raw []byte, reason string)
}

// Handler runs the processor for each delivery and records failures.
type Handler struct {
	processor AlertProcessor
	failures  FailureRecorder
	delay     time.Duration
	metrics   metrics.Recorder
}

// Option configures a Handler.
type Option func(*Handler)

// WithDelay sets the pause before each message is processed. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.delay = d
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(h *Handler) {
		h.metrics = metrics.OrNoOp(m)
	}
}

// New creates a Handler.
func New(p AlertProcessor, f FailureRecorder, opts ...Option) *Handler {
	h := &Handler{
		processor: p,
		failures:  f,
		metrics:   metrics.NewNoOp(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleMessage processes one delivery. A nil return means the message was
// stored or was a duplicate. Any error is returned after the matching failure
// record has been attempted.
func (h *Handler) HandleMessage(ctx context.Context, raw []byte) error {
	start := time.Now()
	h.metrics.RecordReceived()

	if err := h.pause(ctx); err != nil {
		return h.interrupted(ctx, raw, err)
	}

	rec, err := h.processor.Process(ctx, raw)
	if err == nil {
		h.metrics.RecordProcessed(time.Since(start))
		slog.Debug("Message handled", "record_id", rec.RecordID, "alert_id", rec.AlertIDValue())
		return nil
	}

	h.metrics.RecordError()

	switch {
	case errors.Is(err, processor.ErrInvalidPayload):
		slog.Warn("Rejected invalid alert payload", "error", err)
		h.failures.RecordFromRawPayload(ctx, raw, decodeReason(err))
		return err

	case errors.Is(err, processor.ErrInterrupted) || ctx.Err() != nil:
		return h.interrupted(ctx, raw, err)

	default:
		slog.Error("Failed to process alert", "error", err)
		h.failures.RecordFromAlertPayload(ctx, raw, err.Error())
		return err
	}
}

func (h *Handler) pause(ctx context.Context) error {
	if h.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(h.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// interrupted records the cancelled delivery and returns an error that
// matches both processor.ErrInterrupted and the context's error.
func (h *Handler) interrupted(ctx context.Context, raw []byte, cause error) error {
	slog.Warn("Alert processing interrupted", "error", cause)
	detail := strings.TrimPrefix(cause.Error(), processor.ErrInterrupted.Error()+": ")
	h.failures.RecordFromAlertPayload(ctx, raw, fmt.Sprintf("%s: %s", InterruptedReason, detail))

	if errors.Is(cause, processor.ErrInterrupted) {
		return cause
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", processor.ErrInterrupted, ctxErr)
	}
	return fmt.Errorf("%w: %w", processor.ErrInterrupted, cause)
}

// decodeReason returns the decoder's own diagnostic when err carries one.
func decodeReason(err error) string {
	var decodeErr *events.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Error()
	}
	return err.Error()
}
