package handlers

import "net/http"

// CacheStatus reports originals/thumbnail counts and pregeneration progress.
func (h *Handlers) CacheStatus(w http.ResponseWriter, _ *http.Request) {
	photos, cached, err := h.lib.Counts()
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"photoCount": photos,
		"cacheCount": cached,
		"preprocess": h.pre.Status(),
	})
}

// CacheCleanup runs a maintenance sweep immediately.
func (h *Handlers) CacheCleanup(w http.ResponseWriter, _ *http.Request) {
	deleted := h.sweep.SweepOnce()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}

// TriggerPreprocess starts a bulk thumbnail pregeneration run in the
// background and returns immediately.
func (h *Handlers) TriggerPreprocess(w http.ResponseWriter, _ *http.Request) {
	h.pre.Trigger()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]interface{}{
		"success": true,
		"status":  h.pre.Status(),
	})
}
