package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setTestDirs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("PHOTOS_DIR", filepath.Join(root, "photos"))
	t.Setenv("CACHE_DIR", filepath.Join(root, "cache"))
	t.Setenv("DATABASE_DIR", filepath.Join(root, "database"))
	t.Setenv("UPLOADS_DIR", "")
	return root
}

func TestLoadConfigDefaults(t *testing.T) {
	root := setTestDirs(t)
	for _, key := range []string{
		"PORT", "METRICS_PORT", "METRICS_ENABLED", "SWEEP_INTERVAL",
		"PREPROCESS_INTERVAL", "THUMBNAIL_MAX_SIZE", "FAST_START", "LOG_STATIC_FILES",
	} {
		t.Setenv(key, "")
	}

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Port != "8080" || config.MetricsPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", config.Port, config.MetricsPort)
	}
	if !config.MetricsEnabled || config.FastStart || config.LogStaticFiles {
		t.Errorf("flag defaults wrong: %+v", config)
	}
	if config.SweepInterval != 6*time.Hour {
		t.Errorf("SweepInterval = %v, want 6h", config.SweepInterval)
	}
	if config.PreprocessInterval != 5*time.Minute {
		t.Errorf("PreprocessInterval = %v, want 5m", config.PreprocessInterval)
	}
	if config.ThumbnailMaxSize != 800 {
		t.Errorf("ThumbnailMaxSize = %d, want 800", config.ThumbnailMaxSize)
	}
	if config.DatabasePath != filepath.Join(root, "database", "photos.db") {
		t.Errorf("DatabasePath = %s", config.DatabasePath)
	}
	if config.ThumbnailDir != filepath.Join(root, "cache", "thumbnails") {
		t.Errorf("ThumbnailDir = %s", config.ThumbnailDir)
	}
	if config.UploadsDir != filepath.Join(root, "cache", "uploads") {
		t.Errorf("UploadsDir = %s", config.UploadsDir)
	}

	// All data directories must exist after a successful load.
	for _, dir := range []string{
		config.PhotosDir, config.ThumbnailDir, config.UploadsDir, config.DatabaseDir,
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setTestDirs(t)
	t.Setenv("PORT", "3000")
	t.Setenv("SWEEP_INTERVAL", "30m")
	t.Setenv("PREPROCESS_INTERVAL", "1h")
	t.Setenv("THUMBNAIL_MAX_SIZE", "400")
	t.Setenv("FAST_START", "true")
	t.Setenv("METRICS_ENABLED", "false")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Port != "3000" {
		t.Errorf("Port = %s, want 3000", config.Port)
	}
	if config.SweepInterval != 30*time.Minute || config.PreprocessInterval != time.Hour {
		t.Errorf("intervals = %v/%v", config.SweepInterval, config.PreprocessInterval)
	}
	if config.ThumbnailMaxSize != 400 {
		t.Errorf("ThumbnailMaxSize = %d, want 400", config.ThumbnailMaxSize)
	}
	if !config.FastStart || config.MetricsEnabled {
		t.Errorf("flags wrong: %+v", config)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	setTestDirs(t)
	t.Setenv("SWEEP_INTERVAL", "soon")
	t.Setenv("THUMBNAIL_MAX_SIZE", "99999")
	t.Setenv("FAST_START", "maybe")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.SweepInterval != 6*time.Hour {
		t.Errorf("SweepInterval = %v, want default 6h", config.SweepInterval)
	}
	if config.ThumbnailMaxSize != 800 {
		t.Errorf("ThumbnailMaxSize = %d, want default 800", config.ThumbnailMaxSize)
	}
	if config.FastStart {
		t.Error("FastStart = true for unparseable value, want default false")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("build info incomplete: %+v", info)
	}
}
