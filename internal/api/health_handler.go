package api

import (
	"net/http"
)

// ReadinessChecker reports whether the process is consuming messages.
type ReadinessChecker interface {
	Running() bool
}

// HealthzHandler handles GET /healthz.
// Always returns 200 OK with {"status":"ok"}.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler handles GET /readyz.
// Returns 200 once the consumer is running, 503 with Retry-After otherwise.
func ReadyzHandler(rc ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rc == nil || !rc.Running() {
			w.Header().Set("Retry-After", "5")
			respondError(w, http.StatusServiceUnavailable, "consumer not running")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
