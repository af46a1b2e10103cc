package queue

import (
	"encoding/json"
	"time"

	"github.com/togglelabs/mail-worker/internal/delivery"
)

// Dead-letter reasons. They are used as metric labels and must stay bounded.
const (
	ReasonPermanentFailure = "permanent_failure"
	ReasonMaxDeliveries    = "max_deliveries"
)

// DefaultRedriveBatch is used when Redrive is called with max <= 0.
const DefaultRedriveBatch = 10

// DLQMessage wraps a failed message body with failure metadata.
type DLQMessage struct {
	MessageID string           `json:"message_id"`
	Body      string           `json:"body"`
	Outcome   delivery.Outcome `json:"outcome"`
	Reason    string           `json:"reason"`
	Detail    string           `json:"detail"`
	MovedAt   time.Time        `json:"moved_at"`
}

// originalBody extracts the body to redrive from a raw dead-letter entry.
// Entries written by a platform redrive policy carry the original body
// unwrapped and are returned as-is.
func originalBody(raw string) string {
	var msg DLQMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil || msg.Body == "" {
		return raw
	}
	return msg.Body
}
