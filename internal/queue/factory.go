package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewQueue creates an Enqueuer, Dequeuer, and DeadLetterQueue based on the
// given configuration. proc defines the message processing logic used by the
// Dequeuer and may be nil when the caller only publishes. The returned
// DeadLetterQueue is nil when the backend has none configured.
func NewQueue(
	ctx context.Context,
	cfg Config,
	proc Processor,
	log zerolog.Logger,
) (Enqueuer, Dequeuer, DeadLetterQueue, error) {
	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		enqueuer := NewRedisEnqueuer(client, cfg.Stream)
		dlq := NewRedisDLQ(client, cfg.Stream, enqueuer, log)
		dequeuer := NewRedisDequeuer(client, proc, NewSettler(dlq, log), cfg, log)

		return enqueuer, dequeuer, dlq, nil

	case "sqs", "":
		sqsClient, err := newAWSSQSClient(ctx, cfg.SQSRegion, cfg.SQSEndpoint)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create sqs client: %w", err)
		}

		enqueuer := NewSQSEnqueuer(sqsClient, cfg.SQSQueueURL, log)
		var dlq DeadLetterQueue
		if cfg.SQSDLQueueURL != "" {
			dlq = NewSQSDLQ(sqsClient, cfg.SQSDLQueueURL, enqueuer, log)
		}
		dequeuer := NewSQSDequeuer(sqsClient, proc, NewSettler(dlq, log), cfg, log)

		return enqueuer, dequeuer, dlq, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}

// NewSQSSettler builds the Settler used when SQS delivers messages to the
// process rather than the process polling for them, as under Lambda.
func NewSQSSettler(ctx context.Context, cfg Config, log zerolog.Logger) (*Settler, error) {
	if cfg.SQSDLQueueURL == "" {
		return NewSettler(nil, log), nil
	}

	sqsClient, err := newAWSSQSClient(ctx, cfg.SQSRegion, cfg.SQSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("create sqs client: %w", err)
	}
	enqueuer := NewSQSEnqueuer(sqsClient, cfg.SQSQueueURL, log)
	return NewSettler(NewSQSDLQ(sqsClient, cfg.SQSDLQueueURL, enqueuer, log), log), nil
}
