package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_cache_hits_total",
			Help: "Thumbnail requests served from a valid cache entry",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_cache_misses_total",
			Help: "Thumbnail requests that required regeneration",
		},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_generations_total",
			Help: "Thumbnail generation attempts by outcome",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_thumbnail_generation_duration_seconds",
			Help:    "Time spent generating a single thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnails_swept_total",
			Help: "Orphaned thumbnail cache entries deleted",
		},
	)
)

// Optimizer metrics
var (
	OptimizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_optimize_total",
			Help: "Image optimization attempts by outcome",
		},
		[]string{"result"}, // "optimized", "copied", "fallback"
	)

	OptimizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_optimize_duration_seconds",
			Help:    "Time spent optimizing a single image",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	OptimizeBytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_optimize_bytes_saved_total",
			Help: "Bytes removed from originals by optimization",
		},
	)
)

// Upload metrics
var (
	UploadSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_upload_sessions_active",
			Help: "Chunked upload sessions currently on disk",
		},
	)

	UploadChunksReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_upload_chunks_received_total",
			Help: "Upload chunks received (including retried indices)",
		},
	)

	UploadsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_uploads_completed_total",
			Help: "Completed chunked uploads by outcome",
		},
		[]string{"status"}, // "success", "fallback", "error"
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_upload_bytes_total",
			Help: "Total bytes received through chunked uploads",
		},
	)
)

// Sweeper metrics
var (
	SweeperRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_sweeper_runs_total",
			Help: "Maintenance sweeps executed",
		},
	)

	SweeperDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_sweeper_deleted_total",
			Help: "Items deleted by the maintenance sweeper",
		},
	)

	SweeperLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_sweeper_last_run_timestamp",
			Help: "Unix timestamp of the last maintenance sweep",
		},
	)
)

// Preprocessor metrics
var (
	PreprocessRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_preprocess_runs_total",
			Help: "Bulk thumbnail pregeneration runs",
		},
	)

	PreprocessorRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_preprocessor_running",
			Help: "Whether a pregeneration run is active (1 = running)",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)
