package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photo-gallery/internal/database"
)

// Library ties together the originals directory, the thumbnail cache, and
// the photo index.
type Library struct {
	photosDir string
	cache     *Cache
	db        *database.DB
}

// NewLibrary creates the originals directory if needed.
func NewLibrary(photosDir string, cache *Cache, db *database.DB) (*Library, error) {
	if err := os.MkdirAll(photosDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photos dir: %w", err)
	}
	return &Library{photosDir: photosDir, cache: cache, db: db}, nil
}

// PhotosDir returns the originals directory path.
func (l *Library) PhotosDir() string { return l.photosDir }

// Cache returns the thumbnail cache.
func (l *Library) Cache() *Cache { return l.cache }

// PhotoPath resolves a photo name to its path inside the originals
// directory. Names carrying path separators or traversal components are
// rejected with ErrInvalidRequest.
func (l *Library) PhotoPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: bad photo name %q", ErrInvalidRequest, name)
	}
	return filepath.Join(l.photosDir, name), nil
}

// photoPathUnchecked joins without validation; callers pass names read from
// the directory itself.
func (l *Library) photoPathUnchecked(name string) string {
	return filepath.Join(l.photosDir, name)
}

// ActiveNames returns the names of all accepted originals currently on disk.
func (l *Library) ActiveNames() ([]string, error) {
	entries, err := os.ReadDir(l.photosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read photos dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsAllowedName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
