package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photo-gallery/internal/logging"
)

// Snapshot is a one-entry undo log for a destructive file operation: a copy
// of the original taken before the mutation, restored on failure and
// discarded on success. Its lifetime is strictly one operation.
type Snapshot struct {
	path       string
	backupPath string
}

// TakeSnapshot copies path to a sibling .bak file. The maintenance sweeper
// purges any .bak file left behind by a crash.
func TakeSnapshot(path string) (*Snapshot, error) {
	backupPath := path + ".bak"
	if err := copyFile(path, backupPath); err != nil {
		return nil, fmt.Errorf("failed to take backup of %s: %w", path, err)
	}
	return &Snapshot{path: path, backupPath: backupPath}, nil
}

// Restore copies the backup back over the original path.
func (s *Snapshot) Restore() error {
	if err := copyFile(s.backupPath, s.path); err != nil {
		return fmt.Errorf("failed to restore %s from backup: %w", s.path, err)
	}
	return nil
}

// Discard removes the backup. Failures are logged, never escalated: a stale
// backup must not turn a successful operation into a failure.
func (s *Snapshot) Discard() {
	if err := os.Remove(s.backupPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("Failed to remove backup %s: %v", s.backupPath, err)
	}
}

// Rename renames an original to a new base name, keeping the old extension,
// and moves its cache entry along. The visible state after any outcome is
// either fully-old or fully-renamed; a failed cache regeneration is logged
// staleness, not a rollback.
func (l *Library) Rename(ctx context.Context, oldName, newBase string) (string, error) {
	oldPath, err := l.PhotoPath(oldName)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(oldPath); err != nil {
		return "", fmt.Errorf("photo %s: %w", oldName, err)
	}

	ext := filepath.Ext(oldName)
	finalName, err := renameTarget(newBase, ext)
	if err != nil {
		return "", err
	}
	if finalName == oldName {
		return finalName, nil
	}

	newPath := filepath.Join(l.photosDir, finalName)
	if _, err := os.Stat(newPath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrNameCollision, finalName)
	}

	snap, err := TakeSnapshot(oldPath)
	if err != nil {
		return "", err
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		// Roll back: remove any partial target, restore the original.
		if rmErr := os.Remove(newPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Warn("Failed to remove partial file %s: %v", newPath, rmErr)
		}
		if restoreErr := snap.Restore(); restoreErr != nil {
			logging.Error("Restore after failed rename of %s: %v", oldName, restoreErr)
		}
		snap.Discard()
		return "", fmt.Errorf("failed to rename %s to %s: %w", oldName, finalName, err)
	}

	l.cache.Invalidate(oldName)
	if _, _, err := l.cache.Ensure(finalName); err != nil {
		logging.Warn("Thumbnail regeneration after rename of %s: %v", finalName, err)
	}
	if err := l.db.RenamePhoto(ctx, oldName, finalName); err != nil {
		logging.Warn("Photo index rename of %s: %v", oldName, err)
	}

	snap.Discard()
	logging.Info("Renamed %s -> %s", oldName, finalName)
	return finalName, nil
}

// renameTarget derives the final filename from a client-supplied base name
// and the old extension.
func renameTarget(newBase, ext string) (string, error) {
	trimmed := strings.TrimSpace(newBase)
	if trimmed == "" || trimmed == filepath.Ext(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, newBase)
	}

	// Tolerate clients sending the extension along with the base.
	if strings.EqualFold(filepath.Ext(trimmed), ext) {
		trimmed = strings.TrimSuffix(trimmed, filepath.Ext(trimmed))
	}

	base := SanitizeName(trimmed)
	if base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, newBase)
	}
	return base + ext, nil
}

// Delete removes an original and its cache entries. If the removal itself
// fails the file is untouched and ErrDelete is returned; cache removal is
// best-effort.
func (l *Library) Delete(ctx context.Context, name string) error {
	path, err := l.PhotoPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("photo %s: %w", name, err)
	}

	snap, err := TakeSnapshot(path)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		snap.Discard()
		return fmt.Errorf("%w: %s: %v", ErrDelete, name, err)
	}

	l.cache.Invalidate(name)
	if err := l.db.DeletePhoto(ctx, name); err != nil {
		logging.Warn("Photo index delete of %s: %v", name, err)
	}

	snap.Discard()
	logging.Info("Deleted %s", name)
	return nil
}
