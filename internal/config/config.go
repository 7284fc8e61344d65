// Package config provides configuration parsing and validation for the alert processor.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the alert processor.
type Config struct {
	KafkaBrokers    string
	AlertsTopic     string
	ConsumerGroupID string
	DLQTopic        string
	PostgresDSN     string
	// RedisAddr is optional; empty disables metrics publishing.
	RedisAddr string

	ProcessingDelay      time.Duration
	Workers              int
	MaxAttempts          int
	RetryBackoff         time.Duration
	RetryMaxBackoff      time.Duration
	FailureRecordTimeout time.Duration
	AutoMigrate          bool
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.AlertsTopic == "" {
		return fmt.Errorf("alerts-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.DLQTopic == "" {
		return fmt.Errorf("dlq-topic cannot be empty")
	}
	if c.DLQTopic == c.AlertsTopic {
		return fmt.Errorf("dlq-topic must differ from alerts-topic")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.ProcessingDelay < 0 {
		return fmt.Errorf("processing-delay cannot be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max-attempts must be at least 1")
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("retry-backoff must be positive")
	}
	if c.RetryMaxBackoff < c.RetryBackoff {
		return fmt.Errorf("retry-max-backoff cannot be less than retry-backoff")
	}
	if c.FailureRecordTimeout <= 0 {
		return fmt.Errorf("failure-record-timeout must be positive")
	}
	return nil
}
