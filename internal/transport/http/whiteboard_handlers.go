package http

import (
	"net/http"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

// GET /whiteboard
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.boardSvc.Board())
}

// PUT /whiteboard
func (h *Handler) ReplaceBoard(w http.ResponseWriter, r *http.Request) {
	var req domain.WhiteboardData
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := h.boardSvc.Replace(r.Context(), req)
	if err != nil {
		writeError(w, r, "handler.ReplaceBoard", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Whiteboard)
}

// DELETE /whiteboard
func (h *Handler) ClearBoard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.boardSvc.Clear(r.Context())
	if err != nil {
		writeError(w, r, "handler.ClearBoard", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Whiteboard)
}

// POST /whiteboard/elements
func (h *Handler) CreateElement(w http.ResponseWriter, r *http.Request) {
	var req domain.Element
	if !decodeJSON(w, r, &req) {
		return
	}
	el, err := h.boardSvc.Add(r.Context(), req)
	if err != nil {
		writeError(w, r, "handler.CreateElement", err)
		return
	}
	writeJSON(w, http.StatusCreated, el)
}

// GET /whiteboard/elements/{id}
func (h *Handler) GetElement(w http.ResponseWriter, r *http.Request) {
	el, err := h.boardSvc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "handler.GetElement", err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

// PATCH /whiteboard/elements/{id}
func (h *Handler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	var patch domain.ElementPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	el, err := h.boardSvc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, "handler.UpdateElement", err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

// DELETE /whiteboard/elements/{id}
func (h *Handler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	if err := h.boardSvc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "handler.DeleteElement", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "removed"})
}

// POST /whiteboard/connections {"from","to"}
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.boardSvc.Connect(r.Context(), req.From, req.To); err != nil {
		writeError(w, r, "handler.Connect", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "connected"})
}

// DELETE /whiteboard/connections {"from","to"}
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.boardSvc.Disconnect(r.Context(), req.From, req.To); err != nil {
		writeError(w, r, "handler.Disconnect", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "disconnected"})
}

// GET /whiteboard/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.WhiteboardData{Elements: h.boardSvc.Search(r.URL.Query().Get("q"))})
}

// GET /whiteboard/stats
func (h *Handler) BoardStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.boardSvc.Stats())
}
