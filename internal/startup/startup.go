package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"photo-gallery/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	PhotosDir   string
	CacheDir    string
	UploadsDir  string
	DatabaseDir string
	Port        string
	MetricsPort string

	SweepInterval      time.Duration
	PreprocessInterval time.Duration
	ThumbnailMaxSize   int

	MetricsEnabled bool
	FastStart      bool
	LogStaticFiles bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is applied first, if present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Info("Loaded environment from .env file")
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	photosDir := getEnv("PHOTOS_DIR", "/photos")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	uploadsDir := getEnv("UPLOADS_DIR", "")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	sweepIntervalStr := getEnv("SWEEP_INTERVAL", "6h")
	preprocessIntervalStr := getEnv("PREPROCESS_INTERVAL", "5m")
	thumbnailMaxSize := getEnvInt("THUMBNAIL_MAX_SIZE", 800)
	fastStart := getEnvBool("FAST_START", false)
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)

	logging.Info("  PHOTOS_DIR:          %s", photosDir)
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  SWEEP_INTERVAL:      %s", sweepIntervalStr)
	logging.Info("  PREPROCESS_INTERVAL: %s", preprocessIntervalStr)
	logging.Info("  THUMBNAIL_MAX_SIZE:  %d", thumbnailMaxSize)
	logging.Info("  FAST_START:          %v", fastStart)
	logging.Info("  LOG_STATIC_FILES:    %v", logStaticFiles)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	sweepInterval, err := time.ParseDuration(sweepIntervalStr)
	if err != nil {
		logging.Warn("  Invalid SWEEP_INTERVAL, using default: 6h")
		sweepInterval = 6 * time.Hour
	}
	preprocessInterval, err := time.ParseDuration(preprocessIntervalStr)
	if err != nil {
		logging.Warn("  Invalid PREPROCESS_INTERVAL, using default: 5m")
		preprocessInterval = 5 * time.Minute
	}
	if thumbnailMaxSize < 100 || thumbnailMaxSize > 4000 {
		logging.Warn("  THUMBNAIL_MAX_SIZE out of range, using default: 800")
		thumbnailMaxSize = 800
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	photosDir, err = filepath.Abs(photosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve photos directory path: %w", err)
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	if uploadsDir == "" {
		uploadsDir = filepath.Join(cacheDir, "uploads")
	} else if uploadsDir, err = filepath.Abs(uploadsDir); err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory path: %w", err)
	}

	logging.Info("  Photos directory:   %s", photosDir)
	logging.Info("  Cache directory:    %s", cacheDir)
	logging.Info("  Uploads directory:  %s", uploadsDir)
	logging.Info("  Database directory: %s", databaseDir)

	config := &Config{
		PhotosDir:          photosDir,
		CacheDir:           cacheDir,
		UploadsDir:         uploadsDir,
		DatabaseDir:        databaseDir,
		Port:               port,
		MetricsPort:        metricsPort,
		SweepInterval:      sweepInterval,
		PreprocessInterval: preprocessInterval,
		ThumbnailMaxSize:   thumbnailMaxSize,
		MetricsEnabled:     metricsEnabled,
		FastStart:          fastStart,
		LogStaticFiles:     logStaticFiles,
		DatabasePath:       filepath.Join(databaseDir, "photos.db"),
		ThumbnailDir:       filepath.Join(cacheDir, "thumbnails"),
	}

	// Every directory is required: the service cannot degrade gracefully
	// without its originals, cache, or index.
	for _, dir := range []struct {
		path string
		name string
	}{
		{photosDir, "photos"},
		{cacheDir, "cache"},
		{config.ThumbnailDir, "thumbnails"},
		{uploadsDir, "uploads"},
		{databaseDir, "database"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory ready", dir.name)
	}

	return config, nil
}

// LogServerStarted logs successful server start with endpoint information.
func LogServerStarted(config *Config, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", startupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a completed shutdown step
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           ______       ____
   / __ \/ /_  ____  / /_____     / ____/___ _ / / /__  _______  __
  / /_/ / __ \/ __ \/ __/ __ \   / / __/ __ '// / / _ \/ ___/ / / /
 / ____/ / / / /_/ / /_/ /_/ /  / /_/ / /_/ // / /  __/ /  / /_/ /
/_/   /_/ /_/\____/\__/\____/   \____/\__,_//_/_/\___/_/   \__, /
                                                          /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("  Creating %s directory: %s", name, path)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("  failed to remove test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid boolean for %s: %q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("  Invalid integer for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
