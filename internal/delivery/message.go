// Package delivery turns one queued email event into exactly one outbound
// ESP call and a typed Result the hosting platform can act on.
package delivery

import (
	"encoding/json"
	"fmt"
)

// InboundMessage is one unit of work delivered by the queueing platform.
type InboundMessage struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	BodyHTML  string `json:"body_html"`

	// MessageID is assigned by the transport (SQS MessageId, Redis entry ID)
	// and only used for log correlation.
	MessageID string `json:"-"`
}

// DecodeMessage parses a queue message body in wire form.
func DecodeMessage(messageID string, body []byte) (InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return InboundMessage{MessageID: messageID}, fmt.Errorf("decode message body: %w", err)
	}
	msg.MessageID = messageID
	return msg, nil
}

// Outcome is the classification of a single delivery attempt.
type Outcome string

const (
	Delivered        Outcome = "Delivered"
	RetryableFailure Outcome = "RetryableFailure"
	PermanentFailure Outcome = "PermanentFailure"
)

// Result is produced once per InboundMessage and consumed by the invoker to
// decide redelivery. It is never persisted.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail"`
}
