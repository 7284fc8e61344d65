// Package failures persists FAILURE records in their own transaction so that
// they survive the rollback of the processing transaction they describe.
package failures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dyel-L/alert-processor/internal/events"
	"github.com/Dyel-L/alert-processor/internal/metrics"
	"github.com/Dyel-L/alert-processor/internal/record"
)

// DefaultTimeout bounds a single failure record write.
const DefaultTimeout = 5 * time.Second

// DecodeFailedSuffix is appended to the reason when the payload of an
// alert-level failure cannot be decoded either.
const DecodeFailedSuffix = " (and JSON deserialization failed for failure logging)"

// Recorder writes FAILURE records. Its methods never return errors or panic;
// a record that cannot be written is logged and counted as dropped.
type Recorder struct {
	store   record.Store
	mapper  *record.Mapper
	metrics metrics.Recorder
	timeout time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(r *Recorder) {
		r.metrics = metrics.OrNoOp(m)
	}
}

// WithMapper sets the record mapper.
func WithMapper(m *record.Mapper) Option {
	return func(r *Recorder) {
		if m != nil {
			r.mapper = m
		}
	}
}

// WithTimeout bounds each write. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRecorder creates a Recorder backed by store.
func NewRecorder(store record.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:   store,
		mapper:  record.NewMapper(),
		metrics: metrics.NewNoOp(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordFromAlertPayload decodes raw to keep the alert's fields on the FAILURE
// record. If raw cannot be decoded it falls back to RecordFromRawPayload.
func (r *Recorder) RecordFromAlertPayload(ctx context.Context, raw []byte, reason string) {
	alert, err := events.Decode(raw)
	if err != nil {
		slog.Warn("Could not decode payload for failure record, storing raw payload", "error", err)
		r.RecordFromRawPayload(ctx, raw, reason+DecodeFailedSuffix)
		return
	}
	r.write(ctx, func() *record.AlertRecord {
		return r.mapper.ToFailureRecord(alert, reason)
	})
}

// RecordFromRawPayload stores raw verbatim as an UNKNOWN FAILURE record.
func (r *Recorder) RecordFromRawPayload(ctx context.Context, raw []byte, reason string) {
	r.write(ctx, func() *record.AlertRecord {
		return r.mapper.ToFailureRecordFromRaw(raw, reason)
	})
}

func (r *Recorder) write(ctx context.Context, build func() *record.AlertRecord) {
	var rec *record.AlertRecord
	defer func() {
		if p := recover(); p != nil {
			r.dropped(rec, fmt.Errorf("panic: %v", p))
		}
	}()

	rec = build()

	// Detached from the delivery's cancellation so an interrupted delivery is still recorded.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.persist(ctx, rec); err != nil {
		r.dropped(rec, err)
		return
	}

	r.metrics.RecordFailureWritten()
	slog.Info("Recorded alert failure",
		"alert_id", rec.AlertIDValue(),
		"record_id", rec.RecordID,
		"reason", *rec.FailureReason,
	)
}

func (r *Recorder) persist(ctx context.Context, rec *record.AlertRecord) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin failure transaction: %w", err)
	}
	if _, err := tx.Insert(ctx, rec); err != nil {
		return errors.Join(fmt.Errorf("failed to insert failure record: %w", err), tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit failure record: %w", err)
	}
	return nil
}

func (r *Recorder) dropped(rec *record.AlertRecord, err error) {
	r.metrics.RecordFailureDropped()
	attrs := []any{"error", err}
	if rec != nil {
		attrs = append(attrs, "alert_id", rec.AlertIDValue(), "record_id", rec.RecordID)
	}
	slog.Error("Failed to record alert failure", attrs...)
}
