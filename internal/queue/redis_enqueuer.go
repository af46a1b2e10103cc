package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// streamField is the stream entry field holding the wire-form body.
const streamField = "data"

// RedisEnqueuer publishes message bodies to a Redis stream.
type RedisEnqueuer struct {
	client *redis.Client
	stream string
}

// NewRedisEnqueuer creates a new RedisEnqueuer appending to stream.
func NewRedisEnqueuer(client *redis.Client, stream string) *RedisEnqueuer {
	return &RedisEnqueuer{client: client, stream: stream}
}

// Enqueue adds body to the stream using XADD and returns the entry ID.
func (e *RedisEnqueuer) Enqueue(ctx context.Context, body []byte) (string, error) {
	entryID, err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: map[string]interface{}{
			streamField: string(body),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream %s: %w", e.stream, err)
	}

	MessagesEnqueuedTotal.Inc()

	return entryID, nil
}

// entryBody returns the wire-form body of a stream entry, or nil when the
// entry has no usable data field.
func entryBody(xMsg redis.XMessage) []byte {
	data, ok := xMsg.Values[streamField].(string)
	if !ok {
		return nil
	}
	return []byte(data)
}
