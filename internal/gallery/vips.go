package gallery

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"photo-gallery/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitMutex sync.Mutex
	vipsAvailable bool
)

// InitVips initializes libvips. Call once at startup; thumbnail generation
// falls back to pure-Go decoding when this is never called or libvips is
// unavailable at runtime.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		return
	}

	// Route vips messages through our logger; below warning level they are
	// only interesting when debugging.
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	// Conservative memory settings: one image at a time, small operation cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// VipsAvailable returns whether libvips is initialized.
func VipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// loadScaledVips loads an image shrunk to fit within maxWidth x maxHeight
// using libvips decode-time shrinking, which is far cheaper on memory than
// decoding the full image and resizing afterwards.
func loadScaledVips(path string, maxWidth, maxHeight int) (image.Image, error) {
	if !VipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(maxWidth, maxHeight, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
