package gallery

import (
	"context"
	"sync"
	"time"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/workers"
)

// PreprocessStatus is a snapshot of the current pregeneration run.
type PreprocessStatus struct {
	Processing bool    `json:"processing"`
	Total      int     `json:"total"`
	Processed  int     `json:"processed"`
	Percent    float64 `json:"percent"`
	LastUpdate string  `json:"lastUpdate,omitempty"`
}

// Preprocessor regenerates stale or missing thumbnails for the whole library
// in the background, then sweeps orphans and prunes the photo index. At most
// one run is active at a time; overlapping triggers are skipped.
type Preprocessor struct {
	lib      *Library
	interval time.Duration

	mu     sync.Mutex
	status PreprocessStatus

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPreprocessor creates a preprocessor that, once started, runs every
// interval.
func NewPreprocessor(lib *Library, interval time.Duration) *Preprocessor {
	return &Preprocessor{lib: lib, interval: interval}
}

// Start launches the periodic background loop. When initialRun is true the
// first pass happens immediately; otherwise it waits one interval (fast
// start), but the timer runs either way.
func (p *Preprocessor) Start(initialRun bool) {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	logging.Info("Thumbnail preprocessor started (interval: %v)", p.interval)

	go func() {
		defer close(p.done)

		if initialRun {
			p.Run(ctx)
		}

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Run(ctx)
			}
		}
	}()
}

// Stop cancels the background loop and waits for it to exit.
func (p *Preprocessor) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	logging.Info("Thumbnail preprocessor stopped")
}

// Trigger starts a run in the background, for the manual API.
func (p *Preprocessor) Trigger() {
	go p.Run(context.Background())
}

// Status returns a snapshot of the current run.
func (p *Preprocessor) Status() PreprocessStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Run performs one full pregeneration pass. Returns immediately if a run is
// already active.
func (p *Preprocessor) Run(ctx context.Context) {
	p.mu.Lock()
	if p.status.Processing {
		p.mu.Unlock()
		logging.Info("Preprocess already running, skipping")
		return
	}
	p.status = PreprocessStatus{Processing: true}
	p.mu.Unlock()

	metrics.PreprocessRunsTotal.Inc()
	metrics.PreprocessorRunning.Set(1)
	defer metrics.PreprocessorRunning.Set(0)
	defer p.finish()

	active, err := p.lib.ActiveNames()
	if err != nil {
		logging.Error("Preprocess: cannot list photos: %v", err)
		return
	}

	var stale []string
	for _, name := range active {
		if !p.lib.cache.IsValid(name) {
			stale = append(stale, name)
		}
	}

	p.mu.Lock()
	p.status.Total = len(stale)
	p.mu.Unlock()

	if len(stale) > 0 {
		logging.Info("Preprocess: %d thumbnail(s) to regenerate", len(stale))
		p.generateAll(ctx, stale)
	} else {
		logging.Debug("Preprocess: all thumbnails up to date")
	}

	deleted := p.lib.cache.SweepOrphans(active)
	if deleted > 0 {
		logging.Info("Preprocess: swept %d orphaned cache entr(ies)", deleted)
	}
	if pruned, err := p.lib.db.PrunePhotos(ctx, active); err != nil {
		logging.Warn("Preprocess: index prune failed: %v", err)
	} else if pruned > 0 {
		logging.Debug("Preprocess: pruned %d index row(s)", pruned)
	}
}

// generateAll fans the stale names out over a small worker pool. Thumbnail
// encoding is CPU-bound, so one worker per CPU.
func (p *Preprocessor) generateAll(ctx context.Context, names []string) {
	numWorkers := workers.ForCPU(len(names))
	jobs := make(chan string, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if _, _, err := p.lib.cache.Ensure(name); err != nil {
					logging.Warn("Preprocess: thumbnail for %s: %v", name, err)
				}
				p.advance()
			}
		}()
	}

	for _, name := range names {
		select {
		case jobs <- name:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func (p *Preprocessor) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Processed++
	if p.status.Total > 0 {
		p.status.Percent = round2(float64(p.status.Processed) / float64(p.status.Total) * 100)
	}
}

func (p *Preprocessor) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Processing = false
	p.status.LastUpdate = time.Now().Format("2006-01-02 15:04:05")
}
