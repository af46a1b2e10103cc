package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// sqsMaxBatch is the most messages a single ReceiveMessage call returns.
const sqsMaxBatch = 10

// SQSDLQ manages dead letter queue operations backed by an AWS SQS queue.
type SQSDLQ struct {
	client   sqsAPI
	dlqURL   string
	enqueuer Enqueuer
	log      zerolog.Logger
}

// NewSQSDLQ creates a new SQSDLQ targeting the given DLQ URL. The enqueuer
// publishes redriven bodies back to the primary queue.
func NewSQSDLQ(client sqsAPI, dlqURL string, enqueuer Enqueuer, log zerolog.Logger) *SQSDLQ {
	return &SQSDLQ{
		client:   client,
		dlqURL:   dlqURL,
		enqueuer: enqueuer,
		log:      log,
	}
}

// MoveToDLQ sends msg as a JSON envelope to the dead letter queue.
func (d *SQSDLQ) MoveToDLQ(ctx context.Context, msg *DLQMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal dlq message: %w", err)
	}

	_, err = d.client.SendMessage(ctx, &sqsSendInput{
		QueueURL:    d.dlqURL,
		MessageBody: string(data),
	})
	if err != nil {
		return fmt.Errorf("sqs send to dlq: %w", err)
	}
	return nil
}

// Redrive drains up to max messages from the DLQ back onto the primary
// queue. Each message is deleted from the DLQ only after it has been
// re-enqueued. It returns the number of messages moved.
func (d *SQSDLQ) Redrive(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		max = DefaultRedriveBatch
	}

	redriven := 0
	for redriven < max {
		batch := min(max-redriven, sqsMaxBatch)

		out, err := d.client.ReceiveMessage(ctx, &sqsReceiveInput{
			QueueURL:            d.dlqURL,
			MaxNumberOfMessages: int32(batch),
			WaitTimeSeconds:     0, // no long-poll for redrive
			VisibilityTimeout:   30,
		})
		if err != nil {
			return redriven, fmt.Errorf("sqs receive from dlq: %w", err)
		}
		if len(out.Messages) == 0 {
			break
		}

		for _, sqsMsg := range out.Messages {
			if _, err := d.enqueuer.Enqueue(ctx, []byte(originalBody(sqsMsg.Body))); err != nil {
				return redriven, fmt.Errorf("re-enqueue message %s: %w", sqsMsg.MessageID, err)
			}

			if err := d.client.DeleteMessage(ctx, &sqsDeleteInput{
				QueueURL:      d.dlqURL,
				ReceiptHandle: sqsMsg.ReceiptHandle,
			}); err != nil {
				return redriven, fmt.Errorf("delete dlq message %s: %w", sqsMsg.MessageID, err)
			}

			redriven++
			MessagesRedrivenTotal.Inc()
		}
	}

	d.log.Info().Int("count", redriven).Str("dlq_url", d.dlqURL).Msg("dlq redrive complete")
	return redriven, nil
}
