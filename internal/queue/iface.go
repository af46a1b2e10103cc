package queue

import (
	"context"

	"github.com/togglelabs/mail-worker/internal/delivery"
)

// Enqueuer publishes wire-form message bodies to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, body []byte) (string, error)
}

// Dequeuer consumes messages from the queue.
// Start begins consuming in background goroutines.
// Stop gracefully shuts down consumers.
type Dequeuer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Running() bool
}

// DeadLetterQueue parks messages that will never be delivered and can push
// them back onto the primary queue on demand.
type DeadLetterQueue interface {
	MoveToDLQ(ctx context.Context, msg *DLQMessage) error
	Redrive(ctx context.Context, max int) (int, error)
}

// Processor turns one raw queue body into a delivery Result. It is
// implemented by *delivery.Worker.
type Processor interface {
	ProcessPayload(ctx context.Context, messageID string, body []byte) delivery.Result
}
