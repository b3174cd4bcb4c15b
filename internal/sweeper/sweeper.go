// Package sweeper removes the debris the rest of the service leaves behind:
// expired upload sessions, stray temp and backup files, stale merge staging
// files, and orphaned thumbnail cache entries.
package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photo-gallery/internal/gallery"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/upload"
)

// stagingMaxAge is how long a merge staging file may sit in the uploads dir
// before it is presumed abandoned by a crash.
const stagingMaxAge = 24 * time.Hour

// Sweeper runs periodic maintenance sweeps. One sweep runs at a time;
// overlapping triggers wait on the mutex.
type Sweeper struct {
	lib      *gallery.Library
	store    *upload.Store
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a sweeper over the photo library and upload store.
func New(lib *gallery.Library, store *upload.Store, interval time.Duration) *Sweeper {
	return &Sweeper{lib: lib, store: store, interval: interval}
}

// Start launches the periodic background loop. The first sweep happens
// immediately.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	logging.Info("Maintenance sweeper started (interval: %v)", s.interval)

	go func() {
		defer close(s.done)

		s.SweepOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce()
			}
		}
	}()
}

// Stop cancels the background loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	logging.Info("Maintenance sweeper stopped")
}

// SweepOnce performs one full sweep and returns the number of items deleted.
// Individual failures are logged and skipped.
func (s *Sweeper) SweepOnce() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	deleted += s.store.SweepExpired()
	deleted += sweepStray(s.lib.PhotosDir())
	deleted += sweepStray(s.lib.Cache().Dir())
	deleted += sweepStray(s.store.Dir())
	deleted += sweepStaging(s.store.Dir())

	if active, err := s.lib.ActiveNames(); err != nil {
		logging.Warn("Sweep: cannot list photos, skipping orphan sweep: %v", err)
	} else {
		deleted += s.lib.Cache().SweepOrphans(active)
	}

	metrics.SweeperRunsTotal.Inc()
	metrics.SweeperDeletedTotal.Add(float64(deleted))
	metrics.SweeperLastRunTimestamp.SetToCurrentTime()

	if deleted > 0 {
		logging.Info("Maintenance sweep removed %d item(s)", deleted)
	} else {
		logging.Debug("Maintenance sweep found nothing to remove")
	}
	return deleted
}

// isStray matches crash leftovers: backup files and the dot-prefixed
// temporaries the atomic-write path stages before renaming.
func isStray(name string) bool {
	if strings.HasSuffix(name, ".bak") {
		return true
	}
	return strings.HasPrefix(name, ".") && strings.Contains(name, ".tmp-")
}

func sweepStray(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Sweep: cannot read %s: %v", dir, err)
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !isStray(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logging.Warn("Sweep: cannot remove %s: %v", path, err)
			continue
		}
		deleted++
		logging.Debug("Sweep: removed stray file %s", path)
	}
	return deleted
}

// sweepStaging removes abandoned merge staging files from the uploads dir.
// Fresh ones are left alone; a completion may be mid-merge right now.
func sweepStaging(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Sweep: cannot read %s: %v", dir, err)
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".merged") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= stagingMaxAge {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logging.Warn("Sweep: cannot remove %s: %v", path, err)
			continue
		}
		deleted++
		logging.Info("Sweep: removed abandoned staging file %s", path)
	}
	return deleted
}
