package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"photo-gallery/internal/gallery"
	"photo-gallery/internal/upload"
)

type initUploadRequest struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	TotalChunks int    `json:"totalChunks"`
}

// InitUpload creates a new chunked upload session.
func (h *Handlers) InitUpload(w http.ResponseWriter, r *http.Request) {
	var req initUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", gallery.ErrInvalidRequest))
		return
	}

	sess, err := h.coord.Initialize(req.Filename, req.Size, req.TotalChunks)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"sessionId":   sess.ID,
		"totalChunks": sess.TotalChunks,
		"status":      sess.Status,
	})
}

// ReceiveChunk stores one chunk of an upload session. The body is the raw
// chunk bytes.
func (h *Handlers) ReceiveChunk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		respondError(w, fmt.Errorf("%w: bad chunk index %q", gallery.ErrInvalidRequest, vars["index"]))
		return
	}

	sess, err := h.coord.ReceiveChunk(vars["id"], index, r.Body)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, uploadStatusResponse(sess))
}

// CompleteUpload merges a finished session into the gallery.
func (h *Handlers) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	result, err := h.coord.Complete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"success":  true,
		"filename": result.Filename,
		"report":   result.Report,
	})
}

// UploadStatus reports the progress of an upload session.
func (h *Handlers) UploadStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := h.coord.Status(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, uploadStatusResponse(sess))
}

func uploadStatusResponse(sess *upload.Session) map[string]interface{} {
	return map[string]interface{}{
		"sessionId":       sess.ID,
		"status":          sess.Status,
		"received":        sess.Received,
		"totalChunks":     sess.TotalChunks,
		"progressPercent": sess.ProgressPercent(),
	}
}
