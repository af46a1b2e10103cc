package queue

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for the queue system.
type Config struct {
	// Type selects the queue backend: "sqs" (default) or "redis".
	Type            string        `mapstructure:"type"`
	WorkerCount     int           `mapstructure:"worker_count"`
	ProcessTimeout  time.Duration `mapstructure:"process_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Redis-specific config
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	Stream          string        `mapstructure:"stream"`
	Group           string        `mapstructure:"group"`
	BlockTimeout    time.Duration `mapstructure:"block_timeout"`
	RedisMinIdle    time.Duration `mapstructure:"redis_min_idle"`
	ReclaimInterval time.Duration `mapstructure:"reclaim_interval"`
	MaxDeliveries   int           `mapstructure:"max_deliveries"` // 0 disables the cap

	// SQS-specific config
	SQSQueueURL     string `mapstructure:"sqs_queue_url"`
	SQSDLQueueURL   string `mapstructure:"sqs_dlq_url"`
	SQSRegion       string `mapstructure:"sqs_region"`
	SQSEndpoint     string `mapstructure:"sqs_endpoint"`           // optional, e.g. localstack
	SQSWaitTime     int32  `mapstructure:"sqs_wait_time"`          // long poll seconds, default 20
	SQSVisTimeout   int32  `mapstructure:"sqs_visibility_timeout"` // seconds, default 30
	RetryVisibility int32  `mapstructure:"retry_visibility"`       // seconds, 0 leaves visibility untouched
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Type:            "sqs",
		WorkerCount:     10,
		ProcessTimeout:  30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		Stream:          "mail-worker:messages",
		Group:           "mail-worker",
		BlockTimeout:    5 * time.Second,
		RedisMinIdle:    time.Minute,
		ReclaimInterval: 30 * time.Second,
		MaxDeliveries:   5,
		SQSRegion:       "us-east-1",
		SQSWaitTime:     20,
		SQSVisTimeout:   30,
	}
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	if c.WorkerCount <= 0 {
		return errors.New("queue: worker_count must be positive")
	}
	if c.MaxDeliveries < 0 {
		return errors.New("queue: max_deliveries must not be negative")
	}

	switch c.Type {
	case "sqs", "":
		if c.SQSQueueURL == "" {
			return errors.New("queue: sqs_queue_url is required")
		}
		if c.SQSWaitTime < 0 || c.SQSWaitTime > 20 {
			return fmt.Errorf("queue: sqs_wait_time must be between 0 and 20, got %d", c.SQSWaitTime)
		}
		if c.RetryVisibility < 0 || c.RetryVisibility > 43200 {
			return fmt.Errorf("queue: retry_visibility must be between 0 and 43200, got %d", c.RetryVisibility)
		}
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("queue: redis_addr is required")
		}
		if c.Stream == "" || c.Group == "" {
			return errors.New("queue: stream and group are required")
		}
	default:
		return fmt.Errorf("unknown queue type: %s", c.Type)
	}
	return nil
}

// dlqStreamKey returns the Redis stream holding dead letters for stream.
func dlqStreamKey(stream string) string {
	return stream + ":dlq"
}
