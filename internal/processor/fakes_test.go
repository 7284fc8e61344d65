package processor

import (
	"context"
	"sync"
	"time"

	"github.com/Dyel-L/alert-processor/internal/record"
)

const scenarioA = `{"id":"a1","clientId":"c1","alertType":"SYSTEM","message":"disk full","severity":"HIGH","source":"node-7","timestamp":"2024-01-01T00:00:00"}`

// stepClock returns a later time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestMapper() *record.Mapper {
	return record.NewMapper(record.WithClock(&stepClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}))
}

// FakeMetrics counts recorder calls.
type FakeMetrics struct {
	mu        sync.Mutex
	Persisted int
	Duplicate int
	Invalid   int
}

func (f *FakeMetrics) RecordReceived()                 {}
func (f *FakeMetrics) RecordProcessed(_ time.Duration) {}
func (f *FakeMetrics) RecordError()                    {}
func (f *FakeMetrics) RecordFailureWritten()           {}
func (f *FakeMetrics) RecordFailureDropped()           {}
func (f *FakeMetrics) RecordRedelivered()              {}
func (f *FakeMetrics) RecordDeadLettered()             {}

func (f *FakeMetrics) RecordPersisted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Persisted++
}

func (f *FakeMetrics) RecordDuplicate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Duplicate++
}

func (f *FakeMetrics) RecordInvalid() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Invalid++
}

// raceStore simulates losing the insert race: the first lookup misses,
// the insert conflicts, and the second lookup returns the winner.
type raceStore struct {
	winner *record.AlertRecord
	tx     *raceTx
}

func (s *raceStore) Begin(ctx context.Context) (record.Tx, error) {
	s.tx = &raceTx{winner: s.winner}
	return s.tx, nil
}

type raceTx struct {
	winner     *record.AlertRecord
	finds      int
	committed  bool
	rolledBack bool
}

func (t *raceTx) FindSuccessByAlertID(ctx context.Context, alertID string) (*record.AlertRecord, error) {
	t.finds++
	if t.finds == 1 {
		return nil, record.ErrNotFound
	}
	return t.winner, nil
}

func (t *raceTx) Insert(ctx context.Context, rec *record.AlertRecord) (bool, error) {
	return false, nil
}

func (t *raceTx) Commit() error {
	t.committed = true
	return nil
}

func (t *raceTx) Rollback() error {
	t.rolledBack = true
	return nil
}

// panicStore panics on Begin.
type panicStore struct{}

func (panicStore) Begin(ctx context.Context) (record.Tx, error) {
	panic("boom")
}
