package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/meeting-service/internal/engine"
	"github.com/cwrk-planet/meeting-service/internal/service"
	httpmw "github.com/cwrk-planet/meeting-service/internal/transport/http/middleware"
)

// JournalReader serves the transition history when a journal is configured.
type JournalReader interface {
	History(ctx context.Context, sessionID string, limit int) ([]engine.Entry, error)
}

type Handler struct {
	meetingSvc *service.MeetingService
	boardSvc   *service.WhiteboardService
	journal    JournalReader

	maxAudioBytes int64
}

func NewHandler(meeting *service.MeetingService, board *service.WhiteboardService, journal JournalReader) *Handler {
	return &Handler{
		meetingSvc:    meeting,
		boardSvc:      board,
		journal:       journal,
		maxAudioBytes: 10 << 20,
	}
}

// SetMaxAudioBytes caps the request body accepted by POST /meeting/speech.
func (h *Handler) SetMaxAudioBytes(n int64) {
	if n > 0 {
		h.maxAudioBytes = n
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status. Server-side failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		httpmw.L(r.Context()).Error(op, slog.Any("err", err))
	}
	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: httpmw.RequestIDFromCtx(r.Context()),
	})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "empty body", Code: "invalid_json"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json: " + err.Error(), Code: "invalid_json"})
		return false
	}
	return true
}
