package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/togglelabs/mail-worker/internal/delivery"
)

// Action is what a transport does with a message once it has been processed.
type Action int

const (
	// ActionAck removes the message from the queue.
	ActionAck Action = iota
	// ActionRetry leaves the message for the platform to redeliver.
	ActionRetry
)

func (a Action) String() string {
	if a == ActionAck {
		return "ack"
	}
	return "retry"
}

// Settler maps delivery results onto transport actions and owns the
// dead-letter policy shared by every consumer.
type Settler struct {
	dlq DeadLetterQueue
	log zerolog.Logger
}

// NewSettler creates a Settler. dlq may be nil, in which case permanent
// failures are logged and dropped.
func NewSettler(dlq DeadLetterQueue, log zerolog.Logger) *Settler {
	return &Settler{dlq: dlq, log: log}
}

// Settle decides what happens to the message that produced res.
func (s *Settler) Settle(ctx context.Context, messageID string, body []byte, res delivery.Result) Action {
	switch res.Outcome {
	case delivery.Delivered:
		MessagesSettledTotal.WithLabelValues("acked").Inc()
		return ActionAck
	case delivery.PermanentFailure:
		return s.DeadLetter(ctx, &DLQMessage{
			MessageID: messageID,
			Body:      string(body),
			Outcome:   res.Outcome,
			Reason:    ReasonPermanentFailure,
			Detail:    res.Detail,
		})
	default:
		MessagesSettledTotal.WithLabelValues("retry").Inc()
		return ActionRetry
	}
}

// DeadLetter parks msg in the DLQ. The message is acked only once the DLQ
// holds it; without a DLQ it is dropped.
func (s *Settler) DeadLetter(ctx context.Context, msg *DLQMessage) Action {
	if s.dlq == nil {
		s.log.Warn().
			Str("message_id", msg.MessageID).
			Str("reason", msg.Reason).
			Msg("no dead-letter queue configured, dropping message")
		MessagesSettledTotal.WithLabelValues("dropped").Inc()
		return ActionAck
	}

	if msg.MovedAt.IsZero() {
		msg.MovedAt = time.Now().UTC()
	}

	// Complete the move even when shutdown has cancelled ctx.
	if err := s.dlq.MoveToDLQ(context.WithoutCancel(ctx), msg); err != nil {
		s.log.Error().Err(err).
			Str("message_id", msg.MessageID).
			Msg("failed to move to DLQ, leaving for redelivery")
		MessagesSettledTotal.WithLabelValues("retry").Inc()
		return ActionRetry
	}

	s.log.Info().
		Str("message_id", msg.MessageID).
		Str("reason", msg.Reason).
		Msg("message moved to DLQ")
	DLQMessagesTotal.WithLabelValues(msg.Reason).Inc()
	MessagesSettledTotal.WithLabelValues("dlq").Inc()
	return ActionAck
}
