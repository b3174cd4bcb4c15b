package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"photo-gallery/internal/gallery"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/sweeper"
	"photo-gallery/internal/upload"
)

type Handlers struct {
	lib       *gallery.Library
	coord     *upload.Coordinator
	sweep     *sweeper.Sweeper
	pre       *gallery.Preprocessor
	startTime time.Time
}

func New(lib *gallery.Library, coord *upload.Coordinator, sweep *sweeper.Sweeper, pre *gallery.Preprocessor) *Handlers {
	return &Handlers{
		lib:       lib,
		coord:     coord,
		sweep:     sweep,
		pre:       pre,
		startTime: time.Now(),
	}
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// respondError maps a domain error to an HTTP status and writes it out.
func respondError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
	}
	writeJSONError(w, err.Error(), status)
}

func errorStatus(err error) int {
	var missing *upload.MissingChunkError
	switch {
	case errors.Is(err, gallery.ErrInvalidRequest),
		errors.Is(err, gallery.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, gallery.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, upload.ErrSessionNotFound),
		errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, gallery.ErrNameCollision),
		errors.Is(err, upload.ErrIncompleteUpload),
		errors.As(err, &missing):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
