package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisDLQ manages dead letter queue operations backed by a Redis stream.
type RedisDLQ struct {
	client   *redis.Client
	key      string
	enqueuer Enqueuer
	log      zerolog.Logger
}

// NewRedisDLQ creates a RedisDLQ for stream. Dead letters live in
// "<stream>:dlq" and are redriven through enqueuer.
func NewRedisDLQ(client *redis.Client, stream string, enqueuer Enqueuer, log zerolog.Logger) *RedisDLQ {
	return &RedisDLQ{
		client:   client,
		key:      dlqStreamKey(stream),
		enqueuer: enqueuer,
		log:      log,
	}
}

// MoveToDLQ appends msg as a JSON envelope to the dead letter stream.
func (d *RedisDLQ) MoveToDLQ(ctx context.Context, msg *DLQMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal dlq message: %w", err)
	}

	err = d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.key,
		Values: map[string]interface{}{
			streamField: string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd to dlq stream %s: %w", d.key, err)
	}
	return nil
}

// Redrive moves up to max of the oldest dead letters back onto the primary
// stream. Each entry is removed from the DLQ only after it has been
// re-enqueued. It returns the number of entries moved.
func (d *RedisDLQ) Redrive(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		max = DefaultRedriveBatch
	}

	entries, err := d.client.XRangeN(ctx, d.key, "-", "+", int64(max)).Result()
	if err != nil {
		return 0, fmt.Errorf("xrange dlq stream %s: %w", d.key, err)
	}

	redriven := 0
	for _, entry := range entries {
		data, ok := entry.Values[streamField].(string)
		if !ok {
			// Discard it, or it would head every later range.
			d.log.Warn().Str("entry_id", entry.ID).Msg("discarding malformed dlq entry")
			if err := d.client.XDel(ctx, d.key, entry.ID).Err(); err != nil {
				return redriven, fmt.Errorf("xdel malformed dlq entry %s: %w", entry.ID, err)
			}
			continue
		}

		if _, err := d.enqueuer.Enqueue(ctx, []byte(originalBody(data))); err != nil {
			return redriven, fmt.Errorf("re-enqueue dlq entry %s: %w", entry.ID, err)
		}

		if err := d.client.XDel(ctx, d.key, entry.ID).Err(); err != nil {
			return redriven, fmt.Errorf("xdel dlq entry %s: %w", entry.ID, err)
		}

		redriven++
		MessagesRedrivenTotal.Inc()
	}

	d.log.Info().Int("count", redriven).Str("stream", d.key).Msg("dlq redrive complete")
	return redriven, nil
}
