package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/meeting-service/internal/speech"
	httpmw "github.com/cwrk-planet/meeting-service/internal/transport/http/middleware"
)

// GET /meeting/context
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.meetingSvc.State())
}

// POST /meeting/start
func (h *Handler) StartMeeting(w http.ResponseWriter, r *http.Request) {
	snap, err := h.meetingSvc.Start(r.Context())
	if err != nil {
		writeError(w, r, "handler.StartMeeting", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /meeting/next
func (h *Handler) NextSpeaker(w http.ResponseWriter, r *http.Request) {
	snap, err := h.meetingSvc.Next(r.Context())
	if err != nil {
		writeError(w, r, "handler.NextSpeaker", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /meeting/end
func (h *Handler) EndMeeting(w http.ResponseWriter, r *http.Request) {
	snap, err := h.meetingSvc.End(r.Context())
	if err != nil {
		writeError(w, r, "handler.EndMeeting", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /meeting/speech?sample_rate=&encoding=&language=
func (h *Handler) SubmitSpeech(w http.ResponseWriter, r *http.Request) {
	opts := speech.TranscribeOptions{
		Encoding: r.URL.Query().Get("encoding"),
		Language: r.URL.Query().Get("language"),
	}
	if s := r.URL.Query().Get("sample_rate"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid sample_rate", Code: "invalid_input"})
			return
		}
		opts.SampleRate = n
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxAudioBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "audio too large", Code: "too_large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "read body: " + err.Error(), Code: "invalid_input"})
		return
	}

	tr, err := h.meetingSvc.SubmitSpeech(r.Context(), audio, opts)
	if err != nil {
		writeError(w, r, "handler.SubmitSpeech", err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// POST /meeting/transcript {"text"}
func (h *Handler) SubmitTranscript(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tr, err := h.meetingSvc.SubmitTranscript(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, "handler.SubmitTranscript", err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// POST /meeting/notes {"text"}
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := h.meetingSvc.AddNote(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, "handler.AddNote", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /meeting/announce
func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	audio, format, err := h.meetingSvc.Announce(r.Context())
	if err != nil {
		writeError(w, r, "handler.Announce", err)
		return
	}
	w.Header().Set("Content-Type", audioContentType(format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		httpmw.L(r.Context()).Warn("announce write failed", "err", err)
	}
}

// GET /meeting/journal?limit=
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "journal disabled", Code: "disabled"})
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	entries, err := h.journal.History(r.Context(), h.meetingSvc.State().ID, limit)
	if err != nil {
		writeError(w, r, "handler.Journal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.meetingSvc.Status())
}

func audioContentType(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
