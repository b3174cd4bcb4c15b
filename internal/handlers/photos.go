package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"photo-gallery/internal/gallery"
)

// ListPhotos returns the gallery listing, newest first.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.lib.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"photos": photos,
		"count":  len(photos),
	})
}

// GetPhoto serves an original image file.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	path, err := h.lib.PhotoPath(name)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

// GetThumbnail serves a thumbnail cache entry.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		respondError(w, fmt.Errorf("%w: bad thumbnail name %q", gallery.ErrInvalidRequest, name))
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, filepath.Join(h.lib.Cache().Dir(), name))
}

type renameRequest struct {
	NewName string `json:"newName"`
}

// RenamePhoto renames a photo, carrying its thumbnail along.
func (h *Handlers) RenamePhoto(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", gallery.ErrInvalidRequest))
		return
	}

	newName, err := h.lib.Rename(r.Context(), name, req.NewName)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"success": true,
		"oldName": name,
		"newName": newName,
	})
}

// DeletePhoto removes a photo and its thumbnails.
func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.lib.Delete(r.Context(), name); err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"success": true,
		"name":    name,
	})
}
