package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SQSDequeuer manages a pool of worker goroutines that consume and process
// messages from an AWS SQS queue.
type SQSDequeuer struct {
	client          sqsAPI
	queueURL        string
	proc            Processor
	settler         *Settler
	log             zerolog.Logger
	workerCount     int
	waitTime        int32
	visTimeout      int32
	retryVis        int32
	processTimeout  time.Duration
	shutdownTimeout time.Duration
	running         atomic.Bool
	wg              sync.WaitGroup
	cancel          context.CancelFunc
}

// NewSQSDequeuer creates an SQSDequeuer configured from the given Config.
func NewSQSDequeuer(
	client sqsAPI,
	proc Processor,
	settler *Settler,
	cfg Config,
	log zerolog.Logger,
) *SQSDequeuer {
	waitTime := cfg.SQSWaitTime
	if waitTime == 0 {
		waitTime = 20
	}
	visTimeout := cfg.SQSVisTimeout
	if visTimeout == 0 {
		visTimeout = 30
	}
	workerCount := cfg.WorkerCount
	if workerCount == 0 {
		workerCount = 10
	}
	processTimeout := cfg.ProcessTimeout
	if processTimeout == 0 {
		processTimeout = 30 * time.Second
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &SQSDequeuer{
		client:          client,
		queueURL:        cfg.SQSQueueURL,
		proc:            proc,
		settler:         settler,
		log:             log,
		workerCount:     workerCount,
		waitTime:        waitTime,
		visTimeout:      visTimeout,
		retryVis:        cfg.RetryVisibility,
		processTimeout:  processTimeout,
		shutdownTimeout: shutdownTimeout,
	}
}

// Start launches workerCount goroutines that long-poll the SQS queue.
func (d *SQSDequeuer) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := range d.workerCount {
		d.wg.Add(1)
		go d.runWorker(ctx, fmt.Sprintf("sqs-worker-%d", i))
	}
	d.running.Store(true)

	d.log.Info().
		Int("worker_count", d.workerCount).
		Str("queue_url", d.queueURL).
		Msg("sqs dequeuer started")

	return nil
}

// Running reports whether the workers have been started and not stopped.
func (d *SQSDequeuer) Running() bool {
	return d.running.Load()
}

// Stop cancels the context and waits for workers to finish within the
// shutdown timeout.
func (d *SQSDequeuer) Stop(_ context.Context) error {
	d.running.Store(false)
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("sqs dequeuer stopped gracefully")
		return nil
	case <-time.After(d.shutdownTimeout):
		d.log.Warn().Msg("sqs dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.shutdownTimeout)
	}
}

// runWorker is the main loop for a single worker goroutine. It long-polls
// SQS and processes received messages one at a time.
func (d *SQSDequeuer) runWorker(ctx context.Context, workerName string) {
	defer d.wg.Done()

	d.log.Info().Str("worker", workerName).Msg("sqs worker started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("worker", workerName).Msg("sqs worker stopping")
			return
		default:
		}

		out, err := d.client.ReceiveMessage(ctx, &sqsReceiveInput{
			QueueURL:            d.queueURL,
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     d.waitTime,
			VisibilityTimeout:   d.visTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Str("worker", workerName).Msg("sqs receive error")
			sleepCtx(ctx, time.Second)
			continue
		}

		for _, sqsMsg := range out.Messages {
			d.processMessage(ctx, sqsMsg)
		}
	}
}

// processMessage runs one delivery and settles the SQS message: delete on
// ack, otherwise leave it to reappear once its visibility timeout expires.
func (d *SQSDequeuer) processMessage(ctx context.Context, sqsMsg sqsReceivedMessage) {
	start := time.Now()
	defer func() {
		MessageProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	processCtx, cancel := context.WithTimeout(ctx, d.processTimeout)
	defer cancel()

	body := []byte(sqsMsg.Body)
	res := d.proc.ProcessPayload(processCtx, sqsMsg.MessageID, body)

	// Settlement calls outlive a shutdown-cancelled ctx.
	settleCtx := context.WithoutCancel(ctx)

	if d.settler.Settle(settleCtx, sqsMsg.MessageID, body, res) == ActionAck {
		if err := d.client.DeleteMessage(settleCtx, &sqsDeleteInput{
			QueueURL:      d.queueURL,
			ReceiptHandle: sqsMsg.ReceiptHandle,
		}); err != nil {
			d.log.Error().Err(err).
				Str("message_id", sqsMsg.MessageID).
				Msg("failed to delete sqs message")
		}
		return
	}

	if d.retryVis <= 0 {
		return
	}
	if err := d.client.ChangeMessageVisibility(settleCtx, &sqsChangeVisibilityInput{
		QueueURL:          d.queueURL,
		ReceiptHandle:     sqsMsg.ReceiptHandle,
		VisibilityTimeout: d.retryVis,
	}); err != nil {
		d.log.Warn().Err(err).
			Str("message_id", sqsMsg.MessageID).
			Msg("failed to change sqs message visibility")
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
