package record

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no matching record exists.
var ErrNotFound = errors.New("alert record not found")

// Store opens units of work against the record store.
type Store interface {
	// Begin starts a new transaction. Every call returns an independent Tx.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single unit of work. Exactly one of Commit or Rollback must be called;
// Rollback after Commit is a no-op.
type Tx interface {
	// FindSuccessByAlertID returns the SUCCESS record for alertID or ErrNotFound.
	FindSuccessByAlertID(ctx context.Context, alertID string) (*AlertRecord, error)
	// Insert writes rec. It reports false when a SUCCESS record for the same
	// alert ID already exists, in which case nothing is written.
	Insert(ctx context.Context, rec *AlertRecord) (bool, error)
	Commit() error
	Rollback() error
}
