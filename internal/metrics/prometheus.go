package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery metrics
var (
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_worker_deliveries_total",
			Help: "Total number of processed messages by outcome",
		},
		[]string{"outcome"}, // Delivered, RetryableFailure, PermanentFailure
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_worker_delivery_duration_seconds",
			Help:    "Duration of a single delivery invocation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	UpstreamResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_worker_upstream_responses_total",
			Help: "Total number of ESP responses by status class",
		},
		[]string{"class"}, // 2xx, 4xx, 5xx, other, timeout, network, cancelled
	)
)

// StatusClass buckets an HTTP status code into a low-cardinality label.
func StatusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
