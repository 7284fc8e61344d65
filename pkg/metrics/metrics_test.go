package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeSetter struct {
	mu   sync.Mutex
	keys []string
	data [][]byte
	ttl  time.Duration
	err  error
}

func (f *fakeSetter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if b, ok := value.([]byte); ok {
		f.data = append(f.data, b)
	}
	f.ttl = expiration
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	}
	return cmd
}

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector("alert-processor", nil)

	c.RecordReceived()
	c.RecordReceived()
	c.RecordProcessed(10 * time.Millisecond)
	c.RecordProcessed(30 * time.Millisecond)
	c.RecordError()
	c.IncrementCustom("alerts_duplicate")
	c.IncrementCustom("alerts_duplicate")

	s := c.GetSnapshot()
	if s.MessagesReceived != 2 {
		t.Errorf("MessagesReceived = %d, want 2", s.MessagesReceived)
	}
	if s.MessagesProcessed != 2 {
		t.Errorf("MessagesProcessed = %d, want 2", s.MessagesProcessed)
	}
	if s.ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", s.ProcessingErrors)
	}
	if s.AvgProcessingLatencyNs != float64(20*time.Millisecond) {
		t.Errorf("AvgProcessingLatencyNs = %v, want %v", s.AvgProcessingLatencyNs, float64(20*time.Millisecond))
	}
	if s.CustomCounters["alerts_duplicate"] != 2 {
		t.Errorf("CustomCounters[alerts_duplicate] = %d, want 2", s.CustomCounters["alerts_duplicate"])
	}
}

func TestCollector_IncrementCustomConcurrent(t *testing.T) {
	c := NewCollector("alert-processor", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCustom("failure_records_written")
		}()
	}
	wg.Wait()

	if got := c.GetSnapshot().CustomCounters["failure_records_written"]; got != 50 {
		t.Errorf("failure_records_written = %d, want 50", got)
	}
}

func TestCollector_StopWritesFinalSnapshot(t *testing.T) {
	setter := &fakeSetter{}
	c := NewCollector("alert-processor", setter)
	c.SetReportInterval(time.Hour)
	c.RecordReceived()

	c.Start(context.Background())
	c.Stop()
	c.Stop()

	if len(setter.keys) != 1 || setter.keys[0] != "metrics:alert-processor" {
		t.Fatalf("keys written = %v, want [metrics:alert-processor]", setter.keys)
	}
	if setter.ttl != MetricsTTL {
		t.Errorf("ttl = %v, want %v", setter.ttl, MetricsTTL)
	}

	var got ServiceMetrics
	if err := json.Unmarshal(setter.data[0], &got); err != nil {
		t.Fatalf("unmarshal written metrics: %v", err)
	}
	if got.MessagesReceived != 1 || got.ServiceName != "alert-processor" {
		t.Errorf("written metrics = %+v", got)
	}
}

func TestCollector_WriteErrorIsLogged(t *testing.T) {
	setter := &fakeSetter{err: errors.New("redis down")}
	c := NewCollector("alert-processor", setter)

	// Must not panic.
	c.writeMetrics(context.Background())

	if len(setter.keys) != 1 {
		t.Errorf("expected one write attempt, got %d", len(setter.keys))
	}
}
