package producer

import (
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/Dyel-L/alert-processor/pkg/kafka"
)

func TestNewProducer(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		wantErr bool
		errMsg  string
	}{
		{name: "valid producer", brokers: "localhost:9092", topic: "alerts.dlq"},
		{name: "multiple brokers", brokers: "localhost:9092,localhost:9093", topic: "alerts.dlq"},
		{name: "empty brokers", topic: "alerts.dlq", wantErr: true, errMsg: "brokers cannot be empty"},
		{name: "empty topic", brokers: "localhost:9092", wantErr: true, errMsg: "topic cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.brokers, tt.topic)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProducer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if err.Error() != tt.errMsg {
					t.Errorf("NewProducer() error = %q, want %q", err.Error(), tt.errMsg)
				}
				return
			}
			if p.writer.Topic != tt.topic {
				t.Errorf("writer topic = %q, want %q", p.writer.Topic, tt.topic)
			}
			if p.writer.RequiredAcks != kafka.RequireOne || p.writer.Async {
				t.Error("writer should be synchronous and wait for the leader")
			}
			if err := p.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	orig := kafka.Message{
		Topic:     "alerts",
		Partition: 3,
		Offset:    42,
		Key:       []byte("a1"),
		Value:     []byte(`{"id":"a1"}`),
		Headers:   []kafka.Header{{Key: "trace", Value: []byte("t-1")}},
	}

	msg := buildMessage(orig, errors.New("technical error when saving alert"), 3)

	if string(msg.Key) != "a1" || string(msg.Value) != `{"id":"a1"}` {
		t.Errorf("key/value not preserved: %q %q", msg.Key, msg.Value)
	}
	if msg.Topic != "" {
		t.Errorf("Topic = %q, writer sets the topic", msg.Topic)
	}
	if msg.Time.IsZero() {
		t.Error("Time should be set")
	}

	want := map[string]string{
		"trace":                           "t-1",
		kafkautil.HeaderOriginalTopic:     "alerts",
		kafkautil.HeaderOriginalPartition: "3",
		kafkautil.HeaderOriginalOffset:    "42",
		kafkautil.HeaderError:             "technical error when saving alert",
		kafkautil.HeaderAttempts:          "3",
	}
	for key, value := range want {
		got, ok := kafkautil.HeaderValue(msg.Headers, key)
		if !ok || got != value {
			t.Errorf("header %s = %q (present %v), want %q", key, got, ok, value)
		}
	}
}
