package failures

import (
	"context"
	"sync"
	"time"

	"github.com/Dyel-L/alert-processor/internal/record"
)

// FakeMetrics counts failure recorder metrics.
type FakeMetrics struct {
	mu      sync.Mutex
	Written int
	Dropped int
}

func (f *FakeMetrics) RecordReceived()                 {}
func (f *FakeMetrics) RecordProcessed(_ time.Duration) {}
func (f *FakeMetrics) RecordError()                    {}
func (f *FakeMetrics) RecordPersisted()                {}
func (f *FakeMetrics) RecordDuplicate()                {}
func (f *FakeMetrics) RecordInvalid()                  {}
func (f *FakeMetrics) RecordRedelivered()              {}
func (f *FakeMetrics) RecordDeadLettered()             {}

func (f *FakeMetrics) RecordFailureWritten() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Written++
}

func (f *FakeMetrics) RecordFailureDropped() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dropped++
}

// ctxStore captures the context passed to Begin.
type ctxStore struct {
	record.Store
	ctx context.Context
}

func (s *ctxStore) Begin(ctx context.Context) (record.Tx, error) {
	s.ctx = ctx
	return s.Store.Begin(ctx)
}

// panicStore panics on Begin.
type panicStore struct{}

func (panicStore) Begin(ctx context.Context) (record.Tx, error) {
	panic("store exploded")
}
