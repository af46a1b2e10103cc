package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics for Prometheus monitoring.
var (
	MessagesEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_worker_queue_messages_enqueued_total",
			Help: "Total number of messages enqueued",
		},
	)

	MessagesSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_worker_queue_messages_settled_total",
			Help: "Total number of processed messages by settlement",
		},
		[]string{"settlement"}, // acked, retry, dlq, dropped
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_worker_queue_message_processing_duration_seconds",
			Help:    "Duration of message processing including settlement",
			Buckets: prometheus.DefBuckets,
		},
	)

	DLQMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_worker_queue_dlq_messages_total",
			Help: "Total number of messages moved to DLQ by reason",
		},
		[]string{"reason"},
	)

	MessagesRedrivenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_worker_queue_messages_redriven_total",
			Help: "Total number of messages moved from the DLQ back to the primary queue",
		},
	)

	MessagesReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_worker_queue_messages_reclaimed_total",
			Help: "Total number of idle pending stream entries claimed for reprocessing",
		},
	)
)
