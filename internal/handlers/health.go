package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	PhotoCount    int    `json:"photoCount"`
	CacheCount    int    `json:"cacheCount"`
	Preprocessing bool   `json:"preprocessing"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:        statusHealthy,
		Version:       startup.Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Preprocessing: h.pre.Status().Processing,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}

	code := http.StatusOK
	photos, cached, err := h.lib.Counts()
	if err != nil {
		response.Status = statusDegraded
		code = http.StatusServiceUnavailable
	} else {
		response.PhotoCount = photos
		response.CacheCount = cached
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the photo directory is readable.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := h.lib.ActiveNames(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{"status": "ready"})
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
