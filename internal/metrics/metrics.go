// Package metrics provides metrics recording interfaces for the alert processor.
// It uses the null object pattern to avoid nil checks throughout the codebase.
package metrics

import "time"

// Recorder defines the interface for recording alert processor metrics.
type Recorder interface {
	// RecordReceived increments the count of delivered messages.
	RecordReceived()

	// RecordProcessed records a message that reached a terminal outcome with its latency.
	RecordProcessed(latency time.Duration)

	// RecordError increments the error counter.
	RecordError()

	// RecordPersisted increments the count of newly stored SUCCESS records.
	RecordPersisted()

	// RecordDuplicate increments the count of redelivered alerts that were already stored.
	RecordDuplicate()

	// RecordInvalid increments the count of undecodable payloads.
	RecordInvalid()

	// RecordFailureWritten increments the count of FAILURE records stored.
	RecordFailureWritten()

	// RecordFailureDropped increments the count of FAILURE records that could not be stored.
	RecordFailureDropped()

	// RecordRedelivered increments the count of in-process redelivery attempts.
	RecordRedelivered()

	// RecordDeadLettered increments the count of messages moved to the dead-letter topic.
	RecordDeadLettered()
}

// NoOp is a no-op implementation of Recorder that discards all metrics.
type NoOp struct{}

// NewNoOp creates a new no-op metrics recorder.
func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) RecordReceived()                 {}
func (n *NoOp) RecordProcessed(_ time.Duration) {}
func (n *NoOp) RecordError()                    {}
func (n *NoOp) RecordPersisted()                {}
func (n *NoOp) RecordDuplicate()                {}
func (n *NoOp) RecordInvalid()                  {}
func (n *NoOp) RecordFailureWritten()           {}
func (n *NoOp) RecordFailureDropped()           {}
func (n *NoOp) RecordRedelivered()              {}
func (n *NoOp) RecordDeadLettered()             {}

// Ensure NoOp implements Recorder
var _ Recorder = (*NoOp)(nil)

// OrNoOp returns r, or a NoOp recorder when r is nil.
func OrNoOp(r Recorder) Recorder {
	if r == nil {
		return NewNoOp()
	}
	return r
}
