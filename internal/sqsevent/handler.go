// Package sqsevent adapts the delivery worker to SQS-triggered Lambda
// invocations with partial batch responses.
package sqsevent

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/togglelabs/mail-worker/internal/logger"
	"github.com/togglelabs/mail-worker/internal/queue"
)

// Handler processes SQS event batches. Records reported in
// BatchItemFailures are redelivered by SQS; all others are deleted.
type Handler struct {
	proc    queue.Processor
	settler *queue.Settler
	log     zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(proc queue.Processor, settler *queue.Settler, log zerolog.Logger) *Handler {
	return &Handler{proc: proc, settler: settler, log: log}
}

// Handle processes the batch records one at a time. Once ctx is done the
// remaining records are reported as failures without being attempted.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	ctx = logger.WithCorrelationID(ctx, logger.NewCorrelationID())

	var resp events.SQSEventResponse
	for _, record := range event.Records {
		if ctx.Err() != nil {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}

		body := []byte(record.Body)
		res := h.proc.ProcessPayload(ctx, record.MessageId, body)

		if h.settler.Settle(ctx, record.MessageId, body, res) == queue.ActionRetry {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	h.log.Info().
		Int("records", len(event.Records)).
		Int("failures", len(resp.BatchItemFailures)).
		Str("correlation_id", logger.CorrelationIDFromContext(ctx)).
		Msg("sqs batch processed")

	return resp, nil
}
