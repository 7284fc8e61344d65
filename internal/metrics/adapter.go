package metrics

import (
	"time"

	"github.com/Dyel-L/alert-processor/pkg/metrics"
)

// Custom counter names published by the alert processor.
const (
	CounterPersisted      = "alerts_persisted"
	CounterDuplicate      = "alerts_duplicate"
	CounterInvalid        = "alerts_invalid"
	CounterFailureWritten = "failure_records_written"
	CounterFailureDropped = "failure_records_dropped"
	CounterRedelivered    = "messages_redelivered"
	CounterDeadLettered   = "messages_dead_lettered"
)

// CollectorAdapter adapts pkg/metrics.Collector to the Recorder interface.
type CollectorAdapter struct {
	collector *metrics.Collector
}

// NewCollectorAdapter wraps a metrics.Collector to implement Recorder.
func NewCollectorAdapter(collector *metrics.Collector) *CollectorAdapter {
	return &CollectorAdapter{collector: collector}
}

func (a *CollectorAdapter) RecordReceived() {
	a.collector.RecordReceived()
}

func (a *CollectorAdapter) RecordProcessed(latency time.Duration) {
	a.collector.RecordProcessed(latency)
}

func (a *CollectorAdapter) RecordError() {
	a.collector.RecordError()
}

func (a *CollectorAdapter) RecordPersisted() {
	a.collector.IncrementCustom(CounterPersisted)
}

func (a *CollectorAdapter) RecordDuplicate() {
	a.collector.IncrementCustom(CounterDuplicate)
}

func (a *CollectorAdapter) RecordInvalid() {
	a.collector.IncrementCustom(CounterInvalid)
}

func (a *CollectorAdapter) RecordFailureWritten() {
	a.collector.IncrementCustom(CounterFailureWritten)
}

func (a *CollectorAdapter) RecordFailureDropped() {
	a.collector.IncrementCustom(CounterFailureDropped)
}

func (a *CollectorAdapter) RecordRedelivered() {
	a.collector.IncrementCustom(CounterRedelivered)
}

func (a *CollectorAdapter) RecordDeadLettered() {
	a.collector.IncrementCustom(CounterDeadLettered)
}

// Ensure CollectorAdapter implements Recorder
var _ Recorder = (*CollectorAdapter)(nil)
