package handler

import (
	"context"
	"sync"

	"github.com/Dyel-L/alert-processor/internal/record"
)

// FakeProcessor is a test fake for AlertProcessor.
type FakeProcessor struct {
	Result *record.AlertRecord
	Err    error
	Calls  int
}

func (f *FakeProcessor) Process(ctx context.Context, raw []byte) (*record.AlertRecord, error) {
	f.Calls++
	return f.Result, f.Err
}

// RecordCall is one call to FakeRecorder.
type RecordCall struct {
	Raw     bool
	Payload string
	Reason  string
	CtxErr  error
}

// FakeRecorder is a test fake for FailureRecorder.
type FakeRecorder struct {
	mu    sync.Mutex
	Calls []RecordCall
}

func (f *FakeRecorder) RecordFromAlertPayload(ctx context.Context, raw []byte, reason string) {
	f.record(ctx, false, raw, reason)
}

func (f *FakeRecorder) RecordFromRawPayload(ctx context.Context, raw []byte, reason string) {
	f.record(ctx, true, raw, reason)
}

func (f *FakeRecorder) record(ctx context.Context, isRaw bool, raw []byte, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, RecordCall{Raw: isRaw, Payload: string(raw), Reason: reason, CtxErr: ctx.Err()})
}
