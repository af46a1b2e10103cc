package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/togglelabs/mail-worker/internal/logger"
	"github.com/togglelabs/mail-worker/internal/metrics"
	"github.com/togglelabs/mail-worker/internal/provider"
)

// DefaultTimeout bounds the outbound call when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Config is the immutable per-process configuration of a Worker.
type Config struct {
	// SenderIdentity is the From value of every outgoing message.
	SenderIdentity string
	// Timeout bounds the single outbound call.
	Timeout time.Duration
	// Secrets are masked out of Result details. The API key belongs here.
	Secrets []string
}

// Worker delivers one InboundMessage per call through a provider. It holds
// no mutable state and is safe for concurrent use.
type Worker struct {
	sender provider.Provider
	cfg    Config
	log    zerolog.Logger
}

// NewWorker creates a Worker sending through p.
func NewWorker(p provider.Provider, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Worker{
		sender: p,
		cfg:    cfg,
		log:    log,
	}
}

// ProcessPayload decodes a wire-form queue body and processes it. Bodies
// that cannot be decoded are permanent failures and cause no network call.
func (w *Worker) ProcessPayload(ctx context.Context, messageID string, body []byte) Result {
	msg, err := DecodeMessage(messageID, body)
	if err != nil {
		return w.run(ctx, messageID, func() Result {
			return Result{Outcome: PermanentFailure, Detail: err.Error()}
		})
	}
	return w.Process(ctx, msg)
}

// Process makes at most one delivery attempt for msg and reports its
// outcome. It never retries and never returns without a Result; a
// cancelled ctx aborts the outbound call and yields RetryableFailure.
func (w *Worker) Process(ctx context.Context, msg InboundMessage) Result {
	return w.run(ctx, msg.MessageID, func() Result {
		return w.process(ctx, msg)
	})
}

// run wraps one invocation: panic containment, redaction, metrics and the
// log record.
func (w *Worker) run(ctx context.Context, messageID string, fn func() Result) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: RetryableFailure, Detail: fmt.Sprintf("provider panic: %v", r)}
		}
		res.Detail = logger.Redact(res.Detail, w.cfg.Secrets...)
		w.record(ctx, messageID, res, time.Since(start))
	}()

	return fn()
}

func (w *Worker) process(ctx context.Context, msg InboundMessage) Result {
	if err := ValidateRecipient(msg.Recipient); err != nil {
		return Result{Outcome: PermanentFailure, Detail: err.Error()}
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	out, err := w.sender.Send(sendCtx, &provider.Message{
		ID:       msg.MessageID,
		From:     w.cfg.SenderIdentity,
		To:       []string{msg.Recipient},
		Subject:  msg.Subject,
		HTMLBody: msg.BodyHTML,
	})
	if err != nil {
		return w.classify(ctx, sendCtx, err)
	}

	metrics.UpstreamResponsesTotal.WithLabelValues(metrics.StatusClass(out.StatusCode)).Inc()

	detail := out.ProviderMessageID
	if detail == "" {
		detail = fmt.Sprintf("accepted with status %d", out.StatusCode)
	}
	return Result{Outcome: Delivered, Detail: detail}
}

// classify maps a send error onto the outcome taxonomy. Only a provider
// error flagged permanent is permanent; everything else may clear up.
func (w *Worker) classify(parent, sendCtx context.Context, err error) Result {
	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		metrics.UpstreamResponsesTotal.WithLabelValues(metrics.StatusClass(pe.StatusCode)).Inc()
		if provider.IsPermanent(err) {
			return Result{Outcome: PermanentFailure, Detail: pe.Error()}
		}
		return Result{Outcome: RetryableFailure, Detail: pe.Error()}
	}

	switch {
	case parent.Err() != nil:
		metrics.UpstreamResponsesTotal.WithLabelValues("cancelled").Inc()
		return Result{Outcome: RetryableFailure, Detail: fmt.Sprintf("invocation cancelled: %v", err)}
	case errors.Is(sendCtx.Err(), context.DeadlineExceeded):
		metrics.UpstreamResponsesTotal.WithLabelValues("timeout").Inc()
		return Result{Outcome: RetryableFailure, Detail: fmt.Sprintf("upstream timeout after %s: %v", w.cfg.Timeout, err)}
	default:
		metrics.UpstreamResponsesTotal.WithLabelValues("network").Inc()
		return Result{Outcome: RetryableFailure, Detail: err.Error()}
	}
}

// record emits the single structured log line of an invocation.
func (w *Worker) record(ctx context.Context, messageID string, res Result, elapsed time.Duration) {
	metrics.DeliveriesTotal.WithLabelValues(string(res.Outcome)).Inc()
	metrics.DeliveryDuration.WithLabelValues(string(res.Outcome)).Observe(elapsed.Seconds())

	var ev *zerolog.Event
	switch res.Outcome {
	case Delivered:
		ev = w.log.Info()
	case RetryableFailure:
		ev = w.log.Warn()
	default:
		ev = w.log.Error()
	}

	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev = ev.Str("correlation_id", id)
	}

	ev.Str("message_id", messageID).
		Str("outcome", string(res.Outcome)).
		Str("detail", res.Detail).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("delivery processed")
}
