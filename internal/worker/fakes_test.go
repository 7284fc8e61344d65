package worker

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// FakeReader is a test fake for MessageReader. Once its messages are
// exhausted ReadMessage blocks until ctx is done.
type FakeReader struct {
	mu        sync.Mutex
	Messages  []kafka.Message
	ReadErrs  []error
	CommitErr error
	Committed []kafka.Message
	next      int
}

func (f *FakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.ReadErrs) > 0 {
		err := f.ReadErrs[0]
		f.ReadErrs = f.ReadErrs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if f.next < len(f.Messages) {
		msg := f.Messages[f.next]
		f.next++
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *FakeReader) CommitMessage(ctx context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Committed = append(f.Committed, msg)
	return nil
}

func (f *FakeReader) CommittedOffsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.Committed))
	for i, m := range f.Committed {
		out[i] = m.Offset
	}
	return out
}

// FakeHandler is a test fake for MessageHandler.
type FakeHandler struct {
	mu     sync.Mutex
	Calls  []string
	Handle func(ctx context.Context, raw []byte) error
}

func (f *FakeHandler) HandleMessage(ctx context.Context, raw []byte) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, string(raw))
	handle := f.Handle
	f.mu.Unlock()
	if handle != nil {
		return handle(ctx, raw)
	}
	return nil
}

func (f *FakeHandler) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// DeadLetter is one call to FakeDLQ.
type DeadLetter struct {
	Msg      kafka.Message
	Cause    error
	Attempts int
}

// FakeDLQ is a test fake for DeadLetterPublisher. PublishErr is returned by
// the first Failures calls, or by every call when Failures is 0.
type FakeDLQ struct {
	mu         sync.Mutex
	PublishErr error
	Failures   int
	Calls      int
	Published  []DeadLetter
}

func (f *FakeDLQ) Publish(ctx context.Context, msg kafka.Message, cause error, attempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.PublishErr != nil && (f.Failures == 0 || f.Calls <= f.Failures) {
		return f.PublishErr
	}
	f.Published = append(f.Published, DeadLetter{Msg: msg, Cause: cause, Attempts: attempts})
	return nil
}

func (f *FakeDLQ) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

func (f *FakeDLQ) PublishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Published)
}

// FakeMetrics counts worker metrics.
type FakeMetrics struct {
	mu           sync.Mutex
	Errors       int
	Redelivered  int
	DeadLettered int
}

func (f *FakeMetrics) RecordReceived()                 {}
func (f *FakeMetrics) RecordProcessed(_ time.Duration) {}
func (f *FakeMetrics) RecordPersisted()                {}
func (f *FakeMetrics) RecordDuplicate()                {}
func (f *FakeMetrics) RecordInvalid()                  {}
func (f *FakeMetrics) RecordFailureWritten()           {}
func (f *FakeMetrics) RecordFailureDropped()           {}

func (f *FakeMetrics) RecordError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors++
}

func (f *FakeMetrics) RecordRedelivered() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Redelivered++
}

func (f *FakeMetrics) RecordDeadLettered() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeadLettered++
}

func message(partition int, offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "alerts", Partition: partition, Offset: offset, Value: []byte(value)}
}
