// Package processor implements the transactional alert processing path:
// decode, idempotency check, and persistence of the SUCCESS record.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dyel-L/alert-processor/internal/events"
	"github.com/Dyel-L/alert-processor/internal/metrics"
	"github.com/Dyel-L/alert-processor/internal/record"
)

// Processor decodes alert payloads and persists them at most once per alert ID.
type Processor struct {
	store   record.Store
	mapper  *record.Mapper
	metrics metrics.Recorder
}

// Option configures a Processor.
type Option func(*Processor)

// WithMetrics sets the metrics recorder. A nil recorder is ignored.
func WithMetrics(m metrics.Recorder) Option {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithMapper sets the record mapper.
func WithMapper(m *record.Mapper) Option {
	return func(p *Processor) {
		if m != nil {
			p.mapper = m
		}
	}
}

// New creates a Processor backed by store.
func New(store record.Store, opts ...Option) *Processor {
	p := &Processor{
		store:   store,
		mapper:  record.NewMapper(),
		metrics: metrics.NewNoOp(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process decodes raw and stores a SUCCESS record for it. If a SUCCESS record
// for the same alert ID already exists, that record is returned unchanged and
// nothing is written.
//
// Errors wrap one of ErrInvalidPayload, ErrPersistence, ErrInterrupted or ErrProcessing.
func (p *Processor) Process(ctx context.Context, raw []byte) (rec *record.AlertRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while processing alert", "panic", r)
			rec = nil
			err = fmt.Errorf("%w: panic: %v", ErrProcessing, r)
		}
	}()

	alert, err := events.Decode(raw)
	if err != nil {
		p.metrics.RecordInvalid()
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if ctx.Err() != nil {
		return nil, interrupted(ctx)
	}

	slog.Debug("Decoded alert",
		"alert_id", alert.ID,
		"client_id", alert.ClientID,
		"severity", alert.Severity,
	)

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return nil, storeError(ctx, "begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("Failed to roll back alert transaction", "alert_id", alert.ID, "error", rbErr)
		}
	}()

	existing, err := tx.FindSuccessByAlertID(ctx, alert.ID)
	if err == nil {
		p.duplicate(existing)
		return existing, nil
	}
	if !errors.Is(err, record.ErrNotFound) {
		return nil, storeError(ctx, "look up alert", err)
	}

	rec = p.mapper.ToSuccessRecord(alert)
	inserted, err := tx.Insert(ctx, rec)
	if err != nil {
		return nil, storeError(ctx, "insert alert record", err)
	}
	if !inserted {
		// A concurrent delivery of the same alert committed first.
		existing, err := tx.FindSuccessByAlertID(ctx, alert.ID)
		if err != nil {
			return nil, storeError(ctx, "look up concurrent alert", err)
		}
		p.duplicate(existing)
		return existing, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(ctx, "commit alert record", err)
	}

	p.metrics.RecordPersisted()
	slog.Info("Alert processed successfully",
		"alert_id", alert.ID,
		"client_id", alert.ClientID,
		"record_id", rec.RecordID,
	)
	return rec, nil
}

func (p *Processor) duplicate(existing *record.AlertRecord) {
	p.metrics.RecordDuplicate()
	slog.Warn("Alert already processed, skipping duplicate",
		"alert_id", existing.AlertIDValue(),
		"record_id", existing.RecordID,
		"processed_at", existing.ProcessedAt,
	)
}
