package gallery

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"

	"github.com/disintegration/imaging"
)

// MaxOptimizedDimension is the hard pixel ceiling applied when dimensions
// are not preserved: larger images are downscaled proportionally to fit.
const MaxOptimizedDimension = 4000

// OptimizeOptions controls a single optimization pass.
type OptimizeOptions struct {
	// Quality caps the JPEG quality; the effective quality is chosen from
	// input size and never exceeds this.
	Quality int
	// TargetSizeMB is the nominal size target. It only gates the
	// preserve-dimensions short-circuit; the achieved size is not iterated
	// toward it.
	TargetSizeMB int
	// PreserveDimensions skips the pixel-ceiling downscale and copies
	// already-small inputs unchanged.
	PreserveDimensions bool
}

// DefaultOptimizeOptions returns the standard optimizer settings.
func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{Quality: 92, TargetSizeMB: 5}
}

// Optimization outcomes, as carried in CompressionReport.Result.
const (
	ResultOptimized = "optimized"
	ResultCopied    = "copied"
	ResultFallback  = "fallback"
)

// CompressionReport summarizes an optimization pass. Ratio is the percentage
// of bytes removed; 0 when the input was copied unchanged.
type CompressionReport struct {
	OriginalSizeMB float64 `json:"originalSizeMB"`
	FinalSizeMB    float64 `json:"finalSizeMB"`
	Ratio          float64 `json:"ratio"`
	Result         string  `json:"result"`
}

// Optimize recompresses input toward a smaller file at output. Failure of
// any compress step is absorbed: the input is copied unchanged to output and
// the report carries Ratio 0. The only error cases are an unreadable input
// or a fallback copy that itself fails — output is never left absent when
// the input exists.
func Optimize(input, output string, opts OptimizeOptions) (CompressionReport, error) {
	start := time.Now()
	defer func() {
		metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	}()

	info, err := os.Stat(input)
	if err != nil {
		return CompressionReport{}, fmt.Errorf("optimize: input not readable: %w", err)
	}
	origSize := info.Size()
	report := CompressionReport{OriginalSizeMB: toMB(origSize)}

	copyThrough := func(result string) (CompressionReport, error) {
		// Copying a path onto itself would truncate it mid-read.
		if input != output {
			if err := copyFile(input, output); err != nil {
				return report, fmt.Errorf("optimize: fallback copy failed: %w", err)
			}
		}
		report.FinalSizeMB = report.OriginalSizeMB
		report.Result = result
		metrics.OptimizeTotal.WithLabelValues(result).Inc()
		return report, nil
	}

	if opts.PreserveDimensions && origSize <= int64(opts.TargetSizeMB)<<20 {
		logging.Debug("Optimize: %s already <= %dMB, copying unchanged", input, opts.TargetSizeMB)
		return copyThrough(ResultCopied)
	}

	// Animated GIFs would lose frames through a still-image re-encode.
	if strings.ToLower(filepath.Ext(output)) == ".gif" {
		return copyThrough(ResultCopied)
	}

	img, err := imaging.Open(input, imaging.AutoOrientation(true))
	if err != nil {
		logging.Warn("Optimize: decode failed for %s, copying unchanged: %v", input, err)
		return copyThrough(ResultFallback)
	}

	if !opts.PreserveDimensions {
		bounds := img.Bounds()
		if bounds.Dx() > MaxOptimizedDimension || bounds.Dy() > MaxOptimizedDimension {
			img = imaging.Fit(img, MaxOptimizedDimension, MaxOptimizedDimension, imaging.Lanczos)
			logging.Info("Optimize: downscaled %s from %dx%d to fit %dpx",
				input, bounds.Dx(), bounds.Dy(), MaxOptimizedDimension)
		}
	}

	quality := qualityForSize(origSize)
	if opts.Quality > 0 && opts.Quality < quality {
		quality = opts.Quality
	}

	if err := writeImage(output, img, quality); err != nil {
		logging.Warn("Optimize: encode failed for %s, copying unchanged: %v", output, err)
		return copyThrough(ResultFallback)
	}

	finalInfo, err := os.Stat(output)
	if err != nil {
		logging.Warn("Optimize: cannot stat output %s, copying unchanged: %v", output, err)
		return copyThrough(ResultFallback)
	}

	report.FinalSizeMB = toMB(finalInfo.Size())
	report.Ratio = round2((1 - float64(finalInfo.Size())/float64(origSize)) * 100)
	report.Result = ResultOptimized
	if saved := origSize - finalInfo.Size(); saved > 0 {
		metrics.OptimizeBytesSaved.Add(float64(saved))
	}
	metrics.OptimizeTotal.WithLabelValues(ResultOptimized).Inc()

	logging.Info("Optimized %s: %.2fMB -> %.2fMB (%.1f%%, quality %d)",
		filepath.Base(output), report.OriginalSizeMB, report.FinalSizeMB, report.Ratio, quality)
	return report, nil
}

// qualityForSize picks a JPEG quality from the input size. Larger inputs
// compress harder; the table bottoms out at 70 and tops out at 90.
func qualityForSize(size int64) int {
	switch {
	case size >= 20<<20:
		return 70
	case size >= 10<<20:
		return 75
	case size >= 5<<20:
		return 80
	case size >= 2<<20:
		return 85
	default:
		return 90
	}
}

func toMB(size int64) float64 {
	return round2(float64(size) / (1 << 20))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
