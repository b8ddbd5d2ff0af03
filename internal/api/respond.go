package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tradeforge/propdesk/internal/apperrors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

// respondError maps domain errors to HTTP statuses. Internal failures
// get a generic message unless dev mode is on; the full error is
// always logged server-side.
func respondError(w http.ResponseWriter, log zerolog.Logger, devMode bool, err error) {
	var validationErr *apperrors.ValidationError
	var authErr *apperrors.AuthError
	var notFoundErr *apperrors.NotFoundError
	var conflictErr *apperrors.ConflictError
	var brokerAuthErr *apperrors.BrokerAuthError
	var upstreamErr *apperrors.BrokerUpstreamError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})

	case errors.Is(err, apperrors.ErrKycIncomplete),
		errors.Is(err, apperrors.ErrPlanInactive):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})

	case errors.As(err, &authErr):
		status := http.StatusUnauthorized
		if authErr.Forbidden {
			status = http.StatusForbidden
		}
		respondJSON(w, status, errorResponse{Error: authErr.Message})

	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})

	case errors.As(err, &conflictErr):
		respondJSON(w, http.StatusConflict, errorResponse{Error: conflictErr.Error()})

	case errors.As(err, &brokerAuthErr):
		log.Error().Err(err).Msg("Broker session could not be established")
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "broker authentication failed"})

	case errors.As(err, &upstreamErr):
		log.Error().Err(err).Int("broker_status", upstreamErr.Status).Msg("Broker upstream failure")
		status := http.StatusBadGateway
		if upstreamErr.Transport {
			status = http.StatusInternalServerError
		}
		resp := errorResponse{Error: "broker request failed"}
		// Surface the broker's own payload for diagnosis when it
		// reported the failure itself.
		if !upstreamErr.Transport && json.Valid([]byte(upstreamErr.Body)) {
			resp.Details = json.RawMessage(upstreamErr.Body)
		}
		respondJSON(w, status, resp)

	default:
		log.Error().Err(err).Msg("Unhandled error")
		msg := "internal server error"
		if devMode {
			msg = err.Error()
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
	}
}
