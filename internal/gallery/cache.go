package gallery

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/workers"

	"github.com/disintegration/imaging"
)

// Cache manages the thumbnail cache directory. Entries are derived from
// originals and named {base}_{maxDim}x{maxDim}{ext}; an entry is valid while
// its mtime is at least the original's. The mutex brackets every
// check-then-write and sweep sequence so a concurrent Ensure can never read a
// half-written entry or race a sweep deleting the file under it.
type Cache struct {
	photosDir string
	dir       string
	maxDim    int
	mu        sync.Mutex
}

// NewCache creates the cache directory if needed.
func NewCache(photosDir, cacheDir string, maxDim int) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache dir: %w", err)
	}
	return &Cache{photosDir: photosDir, dir: cacheDir, maxDim: maxDim}, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// MaxDim returns the configured maximum thumbnail edge.
func (c *Cache) MaxDim() int { return c.maxDim }

// EntryName derives the cache entry filename for an original. Distinct
// (name, maxDim) pairs map to distinct entries.
func (c *Cache) EntryName(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return fmt.Sprintf("%s_%dx%d%s", base, c.maxDim, c.maxDim, ext)
}

// EntryPath returns the absolute path of the cache entry for an original.
func (c *Cache) EntryPath(original string) string {
	return filepath.Join(c.dir, c.EntryName(original))
}

// IsValid reports whether a usable cache entry exists for the original:
// the entry is present and at least as new as the original.
func (c *Cache) IsValid(original string) bool {
	origInfo, err := os.Stat(filepath.Join(c.photosDir, original))
	if err != nil {
		return false
	}
	cacheInfo, err := os.Stat(c.EntryPath(original))
	if err != nil {
		return false
	}
	return !cacheInfo.ModTime().Before(origInfo.ModTime())
}

// Ensure returns the thumbnail dimensions for an original, generating the
// entry if it is missing or stale. Returns ErrThumbnailGeneration (wrapped)
// when the thumbnail cannot be produced; callers treat that as "no
// thumbnail", not a failure of the surrounding operation.
func (c *Cache) Ensure(original string) (int, int, error) {
	cachePath := c.EntryPath(original)

	// Fast path: valid entry, no lock needed to read its header. A
	// concurrent Invalidate or sweep can delete the entry between the
	// check and the read; the decode then fails and we fall through to
	// the locked path, which re-checks and regenerates.
	if c.IsValid(original) {
		if dims, err := DecodeDimensions(cachePath); err == nil {
			metrics.ThumbnailCacheHits.Inc()
			return dims.Width, dims.Height, nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have regenerated while we waited on the lock.
	if c.IsValid(original) {
		if dims, err := DecodeDimensions(cachePath); err == nil {
			metrics.ThumbnailCacheHits.Inc()
			return dims.Width, dims.Height, nil
		}
	}

	metrics.ThumbnailCacheMisses.Inc()
	start := time.Now()

	w, h, err := c.generate(filepath.Join(c.photosDir, original), cachePath)
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return 0, 0, err
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	logging.Debug("Thumbnail generated for %s (%dx%d)", original, w, h)
	return w, h, nil
}

// generate decodes, resizes, and writes one thumbnail. Must be called with
// c.mu held.
func (c *Cache) generate(origPath, cachePath string) (int, int, error) {
	img, err := c.loadScaled(origPath)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decoding %s: %v", ErrThumbnailGeneration, origPath, err)
	}

	// Fit never upscales, so small originals keep their native size.
	thumb := imaging.Fit(img, c.maxDim, c.maxDim, imaging.Lanczos)
	bounds := thumb.Bounds()

	if err := writeImage(cachePath, thumb, 85); err != nil {
		// One retry: transient write failures (ENOSPC races, NFS hiccups)
		// are worth a second attempt before giving up.
		logging.Warn("Thumbnail write failed for %s, retrying: %v", cachePath, err)
		if err := writeImage(cachePath, thumb, 85); err != nil {
			return 0, 0, fmt.Errorf("%w: writing %s: %v", ErrThumbnailGeneration, cachePath, err)
		}
	}

	return bounds.Dx(), bounds.Dy(), nil
}

// loadScaled loads an original ready for thumbnailing, preferring the
// libvips decode-time shrinking path.
func (c *Cache) loadScaled(origPath string) (image.Image, error) {
	if VipsAvailable() {
		img, err := loadScaledVips(origPath, c.maxDim, c.maxDim)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips load failed for %s, falling back to imaging: %v", origPath, err)
	}
	return imaging.Open(origPath, imaging.AutoOrientation(true))
}

// Invalidate deletes every cache entry derived from the named original.
func (c *Cache) Invalidate(original string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := entryPrefix(original)
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		logging.Warn("Failed to read thumbnail cache dir: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			logging.Warn("Failed to remove stale thumbnail %s: %v", entry.Name(), err)
		}
	}
}

// SweepOrphans deletes cache entries whose name prefix matches none of the
// active originals and returns the number deleted. Deletion failures are
// logged and skipped.
func (c *Cache) SweepOrphans(active []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefixes := make([]string, 0, len(active))
	for _, name := range active {
		prefixes = append(prefixes, entryPrefix(name))
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		logging.Warn("Failed to read thumbnail cache dir: %v", err)
		return 0
	}

	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if matchesAny(entry.Name(), prefixes) {
			continue
		}
		orphans = append(orphans, entry.Name())
	}
	if len(orphans) == 0 {
		return 0
	}

	// Removal is pure I/O, so the pool runs wider than the CPU count.
	numWorkers := workers.ForIO(len(orphans))
	jobs := make(chan string, numWorkers)
	var deleted atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
					logging.Warn("Failed to remove orphaned thumbnail %s: %v", name, err)
					continue
				}
				deleted.Add(1)
				logging.Debug("Removed orphaned thumbnail: %s", name)
			}
		}()
	}
	for _, name := range orphans {
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	n := int(deleted.Load())
	if n > 0 {
		metrics.ThumbnailsSweptTotal.Add(float64(n))
		logging.Info("Removed %d orphaned thumbnail(s)", n)
	}
	return n
}

// Count returns the number of entries in the cache directory.
func (c *Cache) Count() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			count++
		}
	}
	return count, nil
}

// entryPrefix is the cache filename prefix shared by all entries derived
// from an original (e.g. "photo123.jpg" -> "photo123_").
func entryPrefix(original string) string {
	return strings.TrimSuffix(original, filepath.Ext(original)) + "_"
}

func matchesAny(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
