package metrics

import (
	"testing"
	"time"

	"github.com/Dyel-L/alert-processor/pkg/metrics"
)

func TestNoOp_AllMethodsWork(t *testing.T) {
	noop := NewNoOp()

	// All these should not panic
	noop.RecordReceived()
	noop.RecordProcessed(time.Second)
	noop.RecordError()
	noop.RecordPersisted()
	noop.RecordDuplicate()
	noop.RecordInvalid()
	noop.RecordFailureWritten()
	noop.RecordFailureDropped()
	noop.RecordRedelivered()
	noop.RecordDeadLettered()
}

func TestOrNoOp(t *testing.T) {
	if OrNoOp(nil) == nil {
		t.Error("OrNoOp(nil) returned nil")
	}
	r := NewNoOp()
	if OrNoOp(r) != Recorder(r) {
		t.Error("OrNoOp() should return the given recorder")
	}
}

func TestCollectorAdapter(t *testing.T) {
	collector := metrics.NewCollector("alert-processor", nil)
	a := NewCollectorAdapter(collector)

	a.RecordReceived()
	a.RecordProcessed(5 * time.Millisecond)
	a.RecordError()
	a.RecordPersisted()
	a.RecordDuplicate()
	a.RecordDuplicate()
	a.RecordInvalid()
	a.RecordFailureWritten()
	a.RecordFailureDropped()
	a.RecordRedelivered()
	a.RecordDeadLettered()

	s := collector.GetSnapshot()
	if s.MessagesReceived != 1 || s.MessagesProcessed != 1 || s.ProcessingErrors != 1 {
		t.Errorf("snapshot counters = %+v", s)
	}

	want := map[string]uint64{
		CounterPersisted:      1,
		CounterDuplicate:      2,
		CounterInvalid:        1,
		CounterFailureWritten: 1,
		CounterFailureDropped: 1,
		CounterRedelivered:    1,
		CounterDeadLettered:   1,
	}
	for name, n := range want {
		if got := s.CustomCounters[name]; got != n {
			t.Errorf("CustomCounters[%s] = %d, want %d", name, got, n)
		}
	}
}
