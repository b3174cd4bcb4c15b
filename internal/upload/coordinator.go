package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"photo-gallery/internal/gallery"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// Result describes a completed upload.
type Result struct {
	Filename string                    `json:"filename"`
	Report   gallery.CompressionReport `json:"report"`
}

// Coordinator drives the chunked upload protocol against a session store and
// delivers finished files into the gallery.
type Coordinator struct {
	store *Store
	lib   *gallery.Library
}

// NewCoordinator wires a session store to a photo library.
func NewCoordinator(store *Store, lib *gallery.Library) *Coordinator {
	return &Coordinator{store: store, lib: lib}
}

// Store returns the underlying session store.
func (c *Coordinator) Store() *Store { return c.store }

// Initialize validates the declared upload and creates a fresh session.
func (c *Coordinator) Initialize(filename string, size int64, totalChunks int) (*Session, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: missing filename", gallery.ErrInvalidRequest)
	}
	if !gallery.IsAllowedName(filename) {
		return nil, fmt.Errorf("%w: %s", gallery.ErrUnsupportedFormat, filename)
	}
	if size <= 0 || totalChunks <= 0 {
		return nil, fmt.Errorf("%w: size and totalChunks must be positive", gallery.ErrInvalidRequest)
	}

	sess := &Session{
		Filename:    filename,
		Size:        size,
		TotalChunks: totalChunks,
	}
	if err := c.store.Create(sess); err != nil {
		return nil, err
	}

	logging.Info("Upload session %s initialized: %s (%d bytes, %d chunks)",
		sess.ID, filename, size, totalChunks)
	return sess, nil
}

// ReceiveChunk stores one chunk and returns the updated session. Duplicate
// deliveries of an index overwrite the previous copy and do not inflate the
// received count.
func (c *Coordinator) ReceiveChunk(id string, index int, r io.Reader) (*Session, error) {
	sess, err := c.store.Load(id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= sess.TotalChunks {
		return nil, fmt.Errorf("%w: chunk index %d out of range [0,%d)",
			gallery.ErrInvalidRequest, index, sess.TotalChunks)
	}

	n, err := c.store.WriteChunk(id, index, r)
	if err != nil {
		return nil, err
	}
	metrics.UploadChunksReceived.Inc()
	metrics.UploadBytesTotal.Add(float64(n))

	// Recount from disk rather than incrementing, so retries stay idempotent.
	received, err := c.store.CountChunks(id)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks for %s: %w", id, err)
	}

	sess.Received = received
	if received >= sess.TotalChunks {
		sess.Status = StatusComplete
	} else if sess.Status == StatusInitialized {
		sess.Status = StatusReceiving
	}
	if err := c.store.Save(sess); err != nil {
		return nil, err
	}

	logging.Debug("Session %s: chunk %d received (%d/%d)", id, index, received, sess.TotalChunks)
	return sess, nil
}

// Status returns the current session metadata.
func (c *Coordinator) Status(id string) (*Session, error) {
	return c.store.Load(id)
}

// Complete merges the chunks in index order, optimizes the merged file into
// the photo library, and pregenerates its thumbnail. Session state and any
// staging files are cleaned up whether the merge succeeds or fails; only the
// not-all-chunks-received check leaves the session intact for retry.
func (c *Coordinator) Complete(ctx context.Context, id string) (*Result, error) {
	sess, err := c.store.Load(id)
	if err != nil {
		return nil, err
	}

	received, err := c.store.CountChunks(id)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks for %s: %w", id, err)
	}
	if received < sess.TotalChunks {
		return nil, fmt.Errorf("%w: %d of %d chunks received",
			ErrIncompleteUpload, received, sess.TotalChunks)
	}

	target := gallery.SanitizeName(sess.Filename)
	if target == "" || !gallery.IsAllowedName(target) {
		c.store.Remove(id)
		return nil, fmt.Errorf("%w: %q", gallery.ErrInvalidRequest, sess.Filename)
	}
	targetPath, err := c.lib.PhotoPath(target)
	if err != nil {
		c.store.Remove(id)
		return nil, err
	}

	// Staging file lives beside the sessions so the sweeper reaps it if we
	// crash mid-merge.
	merged := filepath.Join(c.store.Dir(), id+".merged")
	defer func() {
		if err := os.Remove(merged); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove merged staging file %s: %v", merged, err)
		}
		c.store.Remove(id)
	}()

	if err := c.merge(ctx, sess, merged); err != nil {
		metrics.UploadsCompleted.WithLabelValues("error").Inc()
		return nil, err
	}

	var snap *gallery.Snapshot
	if _, statErr := os.Stat(targetPath); statErr == nil {
		snap, err = gallery.TakeSnapshot(targetPath)
		if err != nil {
			metrics.UploadsCompleted.WithLabelValues("error").Inc()
			return nil, err
		}
		defer snap.Discard()
	}

	opts := gallery.DefaultOptimizeOptions()
	opts.PreserveDimensions = true
	report, err := gallery.Optimize(merged, targetPath, opts)
	if err != nil {
		// Optimize already fell back to a raw copy; an error here means even
		// that failed, so put the previous file back if there was one.
		if snap != nil {
			if restoreErr := snap.Restore(); restoreErr != nil {
				logging.Error("Restore after failed upload of %s: %v", target, restoreErr)
			}
		}
		metrics.UploadsCompleted.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to finalize upload %s: %w", id, err)
	}

	outcome := "success"
	if report.Result == gallery.ResultFallback {
		outcome = "fallback"
	}
	metrics.UploadsCompleted.WithLabelValues(outcome).Inc()

	if _, _, err := c.lib.Cache().Ensure(target); err != nil {
		logging.Warn("Thumbnail pregeneration for %s: %v", target, err)
	}

	logging.Info("Upload session %s completed: %s (%.2fMB -> %.2fMB)",
		id, target, report.OriginalSizeMB, report.FinalSizeMB)
	return &Result{Filename: target, Report: report}, nil
}

// merge concatenates the chunk files in index order into dst.
func (c *Coordinator) merge(ctx context.Context, sess *Session, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create merged file: %w", err)
	}
	defer out.Close()

	for i := 0; i < sess.TotalChunks; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("merge cancelled: %w", err)
		}

		chunk, err := os.Open(c.store.ChunkPath(sess.ID, i))
		if err != nil {
			if os.IsNotExist(err) {
				return &MissingChunkError{Index: i}
			}
			return fmt.Errorf("failed to open chunk %d: %w", i, err)
		}
		_, err = io.Copy(out, chunk)
		chunk.Close()
		if err != nil {
			return fmt.Errorf("failed to merge chunk %d: %w", i, err)
		}
	}

	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("failed to stat merged file: %w", err)
	}
	if info.Size() != sess.Size {
		logging.Warn("Session %s: merged size %d differs from declared %d",
			sess.ID, info.Size(), sess.Size)
	}
	return out.Sync()
}
