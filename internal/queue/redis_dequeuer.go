package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// reclaimBatch is the XAUTOCLAIM COUNT used by the reclaimer.
const reclaimBatch = 10

// RedisDequeuer manages a pool of worker goroutines that consume and process
// messages from a Redis stream using a consumer group. Entries that are not
// acknowledged stay pending and are picked up again by the reclaimer.
type RedisDequeuer struct {
	client   *redis.Client
	proc     Processor
	settler  *Settler
	config   Config
	log      zerolog.Logger
	consumer string
	running  atomic.Bool
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewRedisDequeuer creates a RedisDequeuer for the configured stream and
// consumer group.
func NewRedisDequeuer(
	client *redis.Client,
	proc Processor,
	settler *Settler,
	cfg Config,
	log zerolog.Logger,
) *RedisDequeuer {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 10
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReclaimInterval <= 0 {
		cfg.ReclaimInterval = 30 * time.Second
	}

	return &RedisDequeuer{
		client:   client,
		proc:     proc,
		settler:  settler,
		config:   cfg,
		log:      log,
		consumer: "mail-worker-" + uuid.NewString()[:8],
	}
}

// Start creates the consumer group (if it does not already exist) and
// launches the configured number of worker goroutines plus the reclaimer.
func (d *RedisDequeuer) Start(ctx context.Context) error {
	if err := d.createConsumerGroup(ctx); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)

	for i := range d.config.WorkerCount {
		d.wg.Add(1)
		go d.runWorker(ctx, fmt.Sprintf("%s-%d", d.consumer, i))
	}

	d.wg.Add(1)
	go d.runReclaimer(ctx, d.consumer+"-reclaimer")

	d.running.Store(true)

	d.log.Info().
		Int("worker_count", d.config.WorkerCount).
		Str("stream", d.config.Stream).
		Str("group", d.config.Group).
		Msg("redis dequeuer started")

	return nil
}

// Running reports whether the workers have been started and not stopped.
func (d *RedisDequeuer) Running() bool {
	return d.running.Load()
}

// Stop signals all workers to stop and waits up to the configured shutdown
// timeout for them to finish processing.
func (d *RedisDequeuer) Stop(_ context.Context) error {
	d.running.Store(false)
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("redis dequeuer stopped gracefully")
		return nil
	case <-time.After(d.config.ShutdownTimeout):
		d.log.Warn().Msg("redis dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.config.ShutdownTimeout)
	}
}

// createConsumerGroup creates the consumer group on the stream. An existing
// group is not an error.
func (d *RedisDequeuer) createConsumerGroup(ctx context.Context) error {
	err := d.client.XGroupCreateMkStream(ctx, d.config.Stream, d.config.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group %s on stream %s: %w", d.config.Group, d.config.Stream, err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// runWorker is the main loop for a single worker goroutine.
func (d *RedisDequeuer) runWorker(ctx context.Context, consumerName string) {
	defer d.wg.Done()

	d.log.Info().Str("consumer", consumerName).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("consumer", consumerName).Msg("worker stopping")
			return
		default:
		}

		xMsgs, err := d.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    d.config.Group,
			Consumer: consumerName,
			Streams:  []string{d.config.Stream, ">"},
			Count:    1,
			Block:    d.config.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			d.log.Error().Err(err).Str("consumer", consumerName).Msg("xreadgroup error")
			sleepCtx(ctx, time.Second)
			continue
		}

		for _, stream := range xMsgs {
			for _, xMsg := range stream.Messages {
				d.processMessage(ctx, xMsg)
			}
		}
	}
}

// runReclaimer periodically claims entries that have been pending longer
// than RedisMinIdle and processes them again.
func (d *RedisDequeuer) runReclaimer(ctx context.Context, consumerName string) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.reclaim(ctx, consumerName); err != nil && ctx.Err() == nil {
				d.log.Error().Err(err).Str("consumer", consumerName).Msg("reclaim failed")
			}
		}
	}
}

// reclaim walks the pending entries list once with XAUTOCLAIM.
func (d *RedisDequeuer) reclaim(ctx context.Context, consumerName string) error {
	start := "0-0"
	for {
		msgs, next, err := d.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   d.config.Stream,
			Group:    d.config.Group,
			MinIdle:  d.config.RedisMinIdle,
			Start:    start,
			Count:    reclaimBatch,
			Consumer: consumerName,
		}).Result()
		if err != nil {
			return fmt.Errorf("xautoclaim on stream %s: %w", d.config.Stream, err)
		}

		for _, xMsg := range msgs {
			if ctx.Err() != nil {
				return nil
			}
			MessagesReclaimedTotal.Inc()

			deliveries, err := d.deliveryCount(ctx, xMsg.ID)
			if err != nil {
				d.log.Warn().Err(err).Str("entry_id", xMsg.ID).Msg("failed to read delivery count")
			}
			if exceedsDeliveries(deliveries, d.config.MaxDeliveries) {
				d.deadLetterExhausted(ctx, xMsg, deliveries)
				continue
			}
			d.processMessage(ctx, xMsg)
		}

		if next == "0-0" || next == "" {
			return nil
		}
		start = next
	}
}

// deliveryCount returns how many times entryID has been delivered to the
// group, claims included.
func (d *RedisDequeuer) deliveryCount(ctx context.Context, entryID string) (int64, error) {
	pending, err := d.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: d.config.Stream,
		Group:  d.config.Group,
		Start:  entryID,
		End:    entryID,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending %s: %w", entryID, err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return pending[0].RetryCount, nil
}

// exceedsDeliveries reports whether an entry delivered deliveries times has
// used up its attempts. max <= 0 means unlimited.
func exceedsDeliveries(deliveries int64, max int) bool {
	return max > 0 && deliveries > int64(max)
}

func (d *RedisDequeuer) deadLetterExhausted(ctx context.Context, xMsg redis.XMessage, deliveries int64) {
	action := d.settler.DeadLetter(ctx, &DLQMessage{
		MessageID: xMsg.ID,
		Body:      string(entryBody(xMsg)),
		Reason:    ReasonMaxDeliveries,
		Detail:    fmt.Sprintf("max deliveries exceeded (%d)", deliveries),
	})
	if action == ActionAck {
		d.ack(context.WithoutCancel(ctx), xMsg.ID)
	}
}

// processMessage runs one delivery for a stream entry and acknowledges it
// when the settler says so. Unacknowledged entries stay pending.
func (d *RedisDequeuer) processMessage(ctx context.Context, xMsg redis.XMessage) {
	start := time.Now()
	defer func() {
		MessageProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	processCtx, cancel := context.WithTimeout(ctx, d.config.ProcessTimeout)
	defer cancel()

	body := entryBody(xMsg)
	res := d.proc.ProcessPayload(processCtx, xMsg.ID, body)

	settleCtx := context.WithoutCancel(ctx)
	if d.settler.Settle(settleCtx, xMsg.ID, body, res) == ActionAck {
		d.ack(settleCtx, xMsg.ID)
	}
}

// ack acknowledges an entry in the consumer group using XACK.
func (d *RedisDequeuer) ack(ctx context.Context, entryID string) {
	if err := d.client.XAck(ctx, d.config.Stream, d.config.Group, entryID).Err(); err != nil {
		d.log.Error().Err(err).
			Str("entry_id", entryID).
			Str("stream", d.config.Stream).
			Msg("failed to acknowledge message")
	}
}
