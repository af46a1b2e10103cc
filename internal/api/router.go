package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/togglelabs/mail-worker/internal/queue"
)

// NewRouter creates a chi.Mux with the ops routes and middleware configured.
// The admin routes are registered only when both dlq and adminToken are set.
func NewRouter(log zerolog.Logger, ready ReadinessChecker, dlq queue.DeadLetterQueue, adminToken string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoverMiddleware(log))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	if dlq != nil && adminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuth(adminToken))
			r.Post("/dlq/redrive", DLQRedriveHandler(dlq))
		})
	}

	return r
}
