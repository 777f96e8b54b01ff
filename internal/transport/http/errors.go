package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/cwrk-planet/meeting-service/internal/broadcast"
	"github.com/cwrk-planet/meeting-service/internal/domain"
)

// statusFor maps a service error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionEnded):
		return http.StatusConflict, "session_ended"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict, "duplicate_id"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrDanglingReference):
		return http.StatusUnprocessableEntity, "dangling_reference"
	case errors.Is(err, domain.ErrInvalidElement):
		return http.StatusUnprocessableEntity, "invalid_element"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrTranscriptionUnavailable):
		return http.StatusServiceUnavailable, "transcription_unavailable"
	case errors.Is(err, domain.ErrSynthesisUnavailable):
		return http.StatusServiceUnavailable, "synthesis_unavailable"
	case errors.Is(err, broadcast.ErrHubClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
