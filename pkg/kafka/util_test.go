package kafka

import (
	"errors"
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{"empty", "", nil},
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"multiple", "a:9092,b:9092", []string{"a:9092", "b:9092"}},
		{"with spaces", "a:9092, b:9092 ", []string{"a:9092", "b:9092"}},
		{"trailing comma", "a:9092,", []string{"a:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBrokers(tt.brokers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBrokers(%q) = %v, want %v", tt.brokers, got, tt.want)
			}
		})
	}
}

func TestValidateConsumerParams(t *testing.T) {
	tests := []struct {
		name                   string
		brokers, topic, group  string
		errMsg                 string
	}{
		{"valid", "localhost:9092", "alerts", "g", ""},
		{"empty brokers", "", "alerts", "g", "brokers cannot be empty"},
		{"empty topic", "localhost:9092", "", "g", "topic cannot be empty"},
		{"empty group", "localhost:9092", "alerts", "", "groupID cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConsumerParams(tt.brokers, tt.topic, tt.group)
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("ValidateConsumerParams() error = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.errMsg {
				t.Errorf("ValidateConsumerParams() error = %v, want %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidateProducerParams(t *testing.T) {
	if err := ValidateProducerParams("", "alerts.dlq"); err == nil || err.Error() != "brokers cannot be empty" {
		t.Errorf("ValidateProducerParams() error = %v, want brokers error", err)
	}
	if err := ValidateProducerParams("localhost:9092", ""); err == nil || err.Error() != "topic cannot be empty" {
		t.Errorf("ValidateProducerParams() error = %v, want topic error", err)
	}
	if err := ValidateProducerParams("localhost:9092", "alerts.dlq"); err != nil {
		t.Errorf("ValidateProducerParams() error = %v, want nil", err)
	}
}

func TestNewReaderConfig(t *testing.T) {
	cfg := NewReaderConfig([]string{"localhost:9092"}, "alerts", "alert-processor-group")
	if cfg.Topic != "alerts" || cfg.GroupID != "alert-processor-group" {
		t.Errorf("NewReaderConfig() topic/group = %s/%s", cfg.Topic, cfg.GroupID)
	}
	if cfg.CommitInterval != 0 {
		t.Errorf("NewReaderConfig() CommitInterval = %v, want synchronous commits", cfg.CommitInterval)
	}
	if cfg.StartOffset != kafka.FirstOffset {
		t.Errorf("NewReaderConfig() StartOffset = %d, want FirstOffset", cfg.StartOffset)
	}
}

func TestDeadLetterHeaders(t *testing.T) {
	msg := kafka.Message{
		Topic:     "alerts",
		Partition: 2,
		Offset:    41,
		Headers:   []kafka.Header{{Key: "trace", Value: []byte("abc")}},
	}

	headers := DeadLetterHeaders(msg, errors.New("db down"), 3)

	want := map[string]string{
		"trace":                 "abc",
		HeaderOriginalTopic:     "alerts",
		HeaderOriginalPartition: "2",
		HeaderOriginalOffset:    "41",
		HeaderError:             "db down",
		HeaderAttempts:          "3",
	}
	for key, value := range want {
		got, ok := HeaderValue(headers, key)
		if !ok || got != value {
			t.Errorf("header %s = %q (present=%v), want %q", key, got, ok, value)
		}
	}
	if len(msg.Headers) != 1 {
		t.Errorf("DeadLetterHeaders() mutated the source headers: %d", len(msg.Headers))
	}
}
