package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-gallery/internal/database"
	"photo-gallery/internal/gallery"
	"photo-gallery/internal/handlers"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/middleware"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/sweeper"
	"photo-gallery/internal/upload"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()

	gallery.InitVips()
	defer gallery.ShutdownVips()

	ctx := context.Background()

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize photo index: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Photo index close: %v", err)
		}
	}()

	cache, err := gallery.NewCache(config.PhotosDir, config.ThumbnailDir, config.ThumbnailMaxSize)
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail cache: %v", err)
	}
	lib, err := gallery.NewLibrary(config.PhotosDir, cache, db)
	if err != nil {
		startup.LogFatal("Failed to initialize photo library: %v", err)
	}

	store, err := upload.NewStore(config.UploadsDir)
	if err != nil {
		startup.LogFatal("Failed to initialize upload store: %v", err)
	}
	coord := upload.NewCoordinator(store, lib)

	sweep := sweeper.New(lib, store, config.SweepInterval)
	sweep.Start()

	pre := gallery.NewPreprocessor(lib, config.PreprocessInterval)
	if config.FastStart {
		logging.Info("Fast start: skipping thumbnail pregeneration at startup")
	}
	pre.Start(!config.FastStart)

	h := handlers.New(lib, coord, sweep, pre)
	router := setupRouter(h)

	loggingConfig := middleware.LoggingConfig{LogStaticFiles: config.LogStaticFiles}
	handler := middleware.Compression()(middleware.Logger(loggingConfig)(router))

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort)
	}

	go handleShutdown(srv, sweep, pre)

	startup.LogServerStarted(config, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics())

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	r.HandleFunc("/photos/{name}", h.GetPhoto).Methods("GET")
	r.HandleFunc("/thumbnails/{name}", h.GetThumbnail).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/photos", h.ListPhotos).Methods("GET")
	api.HandleFunc("/photos/{name}/rename", h.RenamePhoto).Methods("POST")
	api.HandleFunc("/photos/{name}", h.DeletePhoto).Methods("DELETE")

	api.HandleFunc("/upload/init", h.InitUpload).Methods("POST")
	api.HandleFunc("/upload/{id}/chunk/{index:[0-9]+}", h.ReceiveChunk).Methods("PUT")
	api.HandleFunc("/upload/{id}/complete", h.CompleteUpload).Methods("POST")
	api.HandleFunc("/upload/{id}/status", h.UploadStatus).Methods("GET")

	api.HandleFunc("/cache/status", h.CacheStatus).Methods("GET")
	api.HandleFunc("/cache/cleanup", h.CacheCleanup).Methods("POST")
	api.HandleFunc("/preprocess", h.TriggerPreprocess).Methods("POST")

	return r
}

// serveMetrics exposes Prometheus metrics on a separate port so the scrape
// surface is never reachable through the public listener.
func serveMetrics(port string) {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())

	logging.Info("Metrics server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, m); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, sweep *sweeper.Sweeper, pre *gallery.Preprocessor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pre.Stop()
	startup.LogShutdownStep("Preprocessor stopped")

	sweep.Stop()
	startup.LogShutdownStep("Maintenance sweeper stopped")

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStep("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
