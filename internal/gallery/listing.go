package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photo-gallery/internal/database"
	"photo-gallery/internal/logging"
)

// List returns all photos newest-modified first, regenerating missing or
// stale thumbnails on the way. Photos whose thumbnail cannot be produced are
// still listed, with the original's dimensions and no thumbnail path; photos
// that cannot be decoded at all are skipped with a log line.
func (l *Library) List(ctx context.Context) ([]Photo, error) {
	entries, err := os.ReadDir(l.photosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read photos dir: %w", err)
	}

	type candidate struct {
		name    string
		info    os.FileInfo
	}

	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsAllowedName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logging.Warn("Failed to stat %s: %v", entry.Name(), err)
			continue
		}
		candidates = append(candidates, candidate{name: entry.Name(), info: info})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].info.ModTime().After(candidates[j].info.ModTime())
	})

	photos := make([]Photo, 0, len(candidates))
	for _, c := range candidates {
		dims, err := l.dimensions(ctx, c.name, c.info)
		if err != nil {
			logging.Error("Skipping %s, cannot decode: %v", c.name, err)
			continue
		}

		photo := Photo{
			Name:         c.name,
			DisplayName:  DisplayName(c.name),
			DateModified: c.info.ModTime().Format("2006-01-02"),
			SizeLabel:    SizeLabel(c.info.Size()),
			Dimensions:   fmt.Sprintf("%dx%d", dims.Width, dims.Height),
		}
		if dims.Height > 0 {
			photo.AspectRatio = float64(dims.Width) / float64(dims.Height)
		}

		w, h, err := l.cache.Ensure(c.name)
		switch {
		case err == nil:
			photo.ThumbnailPath = "/thumbnails/" + l.cache.EntryName(c.name)
			photo.Width, photo.Height = w, h
		case errors.Is(err, ErrThumbnailGeneration):
			// Non-fatal: list the photo without a thumbnail.
			logging.Warn("No thumbnail for %s: %v", c.name, err)
			photo.Width, photo.Height = dims.Width, dims.Height
		default:
			logging.Warn("Thumbnail lookup failed for %s: %v", c.name, err)
			photo.Width, photo.Height = dims.Width, dims.Height
		}

		photos = append(photos, photo)
	}

	return photos, nil
}

// dimensions returns the original's pixel dimensions, consulting the photo
// index first and decoding (then re-indexing) only when the cached row is
// missing or stale.
func (l *Library) dimensions(ctx context.Context, name string, info os.FileInfo) (Dimensions, error) {
	if rec, err := l.db.GetPhoto(ctx, name); err == nil && rec != nil && rec.Fresh(info.Size(), info.ModTime()) {
		return Dimensions{Width: rec.Width, Height: rec.Height}, nil
	} else if err != nil {
		logging.Warn("Photo index lookup failed for %s: %v", name, err)
	}

	dims, err := DecodeDimensions(l.photoPathUnchecked(name))
	if err != nil {
		return Dimensions{}, err
	}

	rec := &database.PhotoRecord{
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Width:   dims.Width,
		Height:  dims.Height,
		Format:  strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
	}
	if err := l.db.UpsertPhoto(ctx, rec); err != nil {
		logging.Warn("Photo index update failed for %s: %v", name, err)
	}
	return dims, nil
}

// Counts returns the number of originals and thumbnail cache entries, for
// the cache status endpoint.
func (l *Library) Counts() (photos, cached int, err error) {
	names, err := l.ActiveNames()
	if err != nil {
		return 0, 0, err
	}
	cached, err = l.cache.Count()
	if err != nil {
		return len(names), 0, err
	}
	return len(names), cached, nil
}
