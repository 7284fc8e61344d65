// Package recordtest provides an in-memory record.Store for tests.
package recordtest

import (
	"context"
	"errors"
	"sync"

	"github.com/Dyel-L/alert-processor/internal/record"
)

var (
	// ErrTxClosed is returned when a finished transaction is used.
	ErrTxClosed = errors.New("transaction already closed")
	// ErrUniqueViolation is returned by Commit when another transaction
	// committed a SUCCESS record for the same alert ID first.
	ErrUniqueViolation = errors.New("duplicate SUCCESS record for alert")
)

// Store is an in-memory record.Store. Inserts become visible to other
// transactions only after Commit. Hook fields inject failures.
type Store struct {
	mu        sync.Mutex
	committed []*record.AlertRecord
	txs       []*Tx

	// BeginErr, when set, is returned by every Begin call.
	BeginErr error
	// FindErr, when set, is returned by every FindSuccessByAlertID call.
	FindErr error
	// InsertFunc, when set, is called before each insert; a non-nil error aborts it.
	InsertFunc func(rec *record.AlertRecord) error
	// CommitErr, when set, is returned by every Commit call.
	CommitErr error
}

var _ record.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Begin starts a new independent transaction.
func (s *Store) Begin(ctx context.Context) (record.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	tx := &Tx{store: s}
	s.txs = append(s.txs, tx)
	return tx, nil
}

// Records returns a copy of all committed records in insertion order.
func (s *Store) Records() []*record.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*record.AlertRecord, len(s.committed))
	copy(out, s.committed)
	return out
}

// RecordsWithStatus returns the committed records with the given status.
func (s *Store) RecordsWithStatus(status record.ProcessingStatus) []*record.AlertRecord {
	var out []*record.AlertRecord
	for _, rec := range s.Records() {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// Txs returns every transaction begun so far.
func (s *Store) Txs() []*Tx {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Tx, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *Store) successFor(alertID string, pending []*record.AlertRecord) *record.AlertRecord {
	for _, recs := range [][]*record.AlertRecord{s.committed, pending} {
		for _, rec := range recs {
			if rec.Status == record.StatusSuccess && rec.AlertID != nil && *rec.AlertID == alertID {
				return rec
			}
		}
	}
	return nil
}

// Tx is a transaction on Store.
type Tx struct {
	store      *Store
	pending    []*record.AlertRecord
	Committed  bool
	RolledBack bool
}

var _ record.Tx = (*Tx)(nil)

func (t *Tx) closed() bool {
	return t.Committed || t.RolledBack
}

// FindSuccessByAlertID returns the SUCCESS record visible to this transaction.
func (t *Tx) FindSuccessByAlertID(ctx context.Context, alertID string) (*record.AlertRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed() {
		return nil, ErrTxClosed
	}
	if t.store.FindErr != nil {
		return nil, t.store.FindErr
	}
	if rec := t.store.successFor(alertID, t.pending); rec != nil {
		return rec, nil
	}
	return nil, record.ErrNotFound
}

// Insert stages rec for commit. SUCCESS records conflict on alert ID.
func (t *Tx) Insert(ctx context.Context, rec *record.AlertRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed() {
		return false, ErrTxClosed
	}
	if t.store.InsertFunc != nil {
		if err := t.store.InsertFunc(rec); err != nil {
			return false, err
		}
	}
	if rec.Status == record.StatusSuccess && rec.AlertID != nil && t.store.successFor(*rec.AlertID, t.pending) != nil {
		return false, nil
	}
	t.pending = append(t.pending, rec)
	return true, nil
}

// Commit publishes the staged records. Like the SUCCESS unique index, it
// fails when another transaction committed the same alert ID first.
func (t *Tx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed() {
		return ErrTxClosed
	}
	if t.store.CommitErr != nil {
		t.RolledBack = true
		return t.store.CommitErr
	}
	for _, rec := range t.pending {
		if rec.Status == record.StatusSuccess && rec.AlertID != nil && t.store.successFor(*rec.AlertID, nil) != nil {
			t.RolledBack = true
			t.pending = nil
			return ErrUniqueViolation
		}
	}
	t.Committed = true
	t.store.committed = append(t.store.committed, t.pending...)
	t.pending = nil
	return nil
}

// Rollback discards staged records. It is a no-op on a closed transaction.
func (t *Tx) Rollback() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed() {
		return nil
	}
	t.RolledBack = true
	t.pending = nil
	return nil
}
