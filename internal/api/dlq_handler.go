package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/togglelabs/mail-worker/internal/logger"
	"github.com/togglelabs/mail-worker/internal/queue"
)

// maxRedrive caps a single redrive request.
const maxRedrive = 1000

// dlqRedriveRequest is the JSON body for POST /admin/dlq/redrive.
type dlqRedriveRequest struct {
	Max int `json:"max"`
}

// dlqRedriveResponse is the JSON response for a DLQ redrive operation.
type dlqRedriveResponse struct {
	Redriven int `json:"redriven"`
}

// DLQRedriveHandler handles POST /admin/dlq/redrive.
// It moves dead-lettered messages back onto the primary queue. An empty
// body redrives the default batch.
func DLQRedriveHandler(dlq queue.DeadLetterQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req dlqRedriveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Max < 0 || req.Max > maxRedrive {
			respondError(w, http.StatusBadRequest, "max must be between 0 and 1000")
			return
		}

		redriven, err := dlq.Redrive(r.Context(), req.Max)
		if err != nil {
			log.Error().Err(err).
				Int("requested", req.Max).
				Int("redriven", redriven).
				Msg("dlq redrive failed")
			respondError(w, http.StatusInternalServerError, "redrive failed")
			return
		}

		log.Info().
			Int("requested", req.Max).
			Int("redriven", redriven).
			Msg("dlq redrive completed")

		respondJSON(w, http.StatusOK, dlqRedriveResponse{Redriven: redriven})
	}
}
