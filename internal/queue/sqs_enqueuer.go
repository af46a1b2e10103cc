package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SQSEnqueuer publishes message bodies to an AWS SQS queue.
type SQSEnqueuer struct {
	client   sqsAPI
	queueURL string
	log      zerolog.Logger
}

// NewSQSEnqueuer creates a new SQSEnqueuer targeting the given queue URL.
func NewSQSEnqueuer(client sqsAPI, queueURL string, log zerolog.Logger) *SQSEnqueuer {
	return &SQSEnqueuer{
		client:   client,
		queueURL: queueURL,
		log:      log,
	}
}

// Enqueue sends body via SQS SendMessage and returns the SQS message ID.
func (e *SQSEnqueuer) Enqueue(ctx context.Context, body []byte) (string, error) {
	out, err := e.client.SendMessage(ctx, &sqsSendInput{
		QueueURL:    e.queueURL,
		MessageBody: string(body),
	})
	if err != nil {
		return "", fmt.Errorf("sqs send message: %w", err)
	}

	MessagesEnqueuedTotal.Inc()
	e.log.Debug().Str("message_id", out.MessageID).Msg("message enqueued")

	return out.MessageID, nil
}
