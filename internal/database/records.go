package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Dyel-L/alert-processor/internal/events"
	"github.com/Dyel-L/alert-processor/internal/record"
)

// ErrConstraintViolation is returned when a record breaks an integrity constraint of alert_records.
var ErrConstraintViolation = errors.New("alert record violates a table constraint")

// Tx is a transaction over the alert_records table.
type Tx struct {
	tx   *sql.Tx
	done bool
}

var _ record.Tx = (*Tx)(nil)

// FindSuccessByAlertID returns the SUCCESS record for alertID or record.ErrNotFound.
func (t *Tx) FindSuccessByAlertID(ctx context.Context, alertID string) (*record.AlertRecord, error) {
	row := t.tx.QueryRowContext(ctx, findSuccessByAlertIDQuery, alertID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert record: %w", err)
	}
	return rec, nil
}

// Insert writes rec. It reports false when the SUCCESS unique index already
// holds a row for rec's alert ID.
func (t *Tx) Insert(ctx context.Context, rec *record.AlertRecord) (bool, error) {
	if !rec.Status.Valid() {
		return false, fmt.Errorf("failed to insert alert record: invalid status %q", rec.Status)
	}

	var severity sql.NullString
	if rec.Severity != nil {
		severity = sql.NullString{String: rec.Severity.String(), Valid: true}
	}

	var recordID string
	err := t.tx.QueryRowContext(ctx, insertRecordQuery,
		rec.RecordID,
		nullString(rec.AlertID),
		nullString(rec.ClientID),
		rec.AlertType,
		rec.Message,
		severity,
		nullString(rec.Source),
		rec.Timestamp,
		rec.ProcessedAt,
		rec.Status.String(),
		nullString(rec.FailureReason),
		nullBytes(rec.RawPayload),
	).Scan(&recordID)

	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("Alert record already exists, skipping",
			"alert_id", rec.AlertIDValue(),
			"record_id", rec.RecordID,
		)
		return false, nil
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Class() == "23" { // integrity_constraint_violation
				return false, fmt.Errorf("failed to insert alert record: %w: %s", ErrConstraintViolation, pqErr.Message)
			}
		}
		return false, fmt.Errorf("failed to insert alert record: %w", err)
	}
	return true, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op after Commit or a previous Rollback.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func scanRecord(row *sql.Row) (*record.AlertRecord, error) {
	var (
		rec           record.AlertRecord
		alertID       sql.NullString
		clientID      sql.NullString
		severity      sql.NullString
		source        sql.NullString
		status        string
		failureReason sql.NullString
	)
	err := row.Scan(
		&rec.RecordID,
		&alertID,
		&clientID,
		&rec.AlertType,
		&rec.Message,
		&severity,
		&source,
		&rec.Timestamp,
		&rec.ProcessedAt,
		&status,
		&failureReason,
		&rec.RawPayload,
	)
	if err != nil {
		return nil, err
	}

	rec.AlertID = stringPtr(alertID)
	rec.ClientID = stringPtr(clientID)
	rec.Source = stringPtr(source)
	rec.FailureReason = stringPtr(failureReason)
	rec.Status = record.ProcessingStatus(status)
	if severity.Valid {
		sev, err := events.ParseSeverity(severity.String)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.RecordID, err)
		}
		rec.Severity = &sev
	}
	rec.Timestamp = rec.Timestamp.UTC()
	rec.ProcessedAt = rec.ProcessedAt.UTC()
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
