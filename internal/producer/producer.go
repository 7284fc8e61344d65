// Package producer writes to Kafka: dead letters for messages that exhausted
// their redelivery attempts, and raw alert payloads for the traffic generator.
package producer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/Dyel-L/alert-processor/pkg/kafka"
)

// Producer wraps a Kafka writer for a single topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer with the specified brokers and topic.
// Writes are synchronous and wait for the leader's acknowledgement.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // keeps the original key's partition affinity
		WriteTimeout: kafkautil.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

// buildMessage copies the original key and payload and adds dead-letter headers.
func buildMessage(msg kafka.Message, cause error, attempts int) kafka.Message {
	return kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: kafkautil.DeadLetterHeaders(msg, cause, attempts),
		Time:    time.Now(),
	}
}

// Publish writes msg to the dead-letter topic together with the error that
// exhausted its attempts.
func (p *Producer) Publish(ctx context.Context, msg kafka.Message, cause error, attempts int) error {
	dlq := buildMessage(msg, cause, attempts)

	if err := p.writer.WriteMessages(ctx, dlq); err != nil {
		slog.Error("Failed to write dead letter to Kafka",
			"topic", p.topic,
			"original_partition", msg.Partition,
			"original_offset", msg.Offset,
			"error", err,
		)
		return fmt.Errorf("failed to write dead letter to Kafka: %w", err)
	}

	slog.Warn("Published message to dead-letter topic",
		"topic", p.topic,
		"original_topic", msg.Topic,
		"original_partition", msg.Partition,
		"original_offset", msg.Offset,
		"attempts", attempts,
		"error", cause,
	)
	return nil
}

// Write publishes a raw payload keyed by key.
func (p *Producer) Write(ctx context.Context, key, value []byte) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	slog.Info("Kafka producer closed successfully")
	return nil
}
