package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PhotoRecord is one cached row of the photo index.
type PhotoRecord struct {
	Name    string
	Size    int64
	ModTime time.Time
	Width   int
	Height  int
	Format  string
}

// Fresh reports whether the cached row still describes a file with the given
// size and modification time.
func (r *PhotoRecord) Fresh(size int64, modTime time.Time) bool {
	return r.Size == size && r.ModTime.Unix() == modTime.Unix()
}

// GetPhoto returns the cached record for name, or (nil, nil) when the photo
// has not been indexed yet.
func (d *DB) GetPhoto(ctx context.Context, name string) (*PhotoRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_photo", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec PhotoRecord
	var modTime int64

	err = d.db.QueryRowContext(ctx,
		"SELECT name, size, mod_time, width, height, format FROM photos WHERE name = ?",
		name,
	).Scan(&rec.Name, &rec.Size, &modTime, &rec.Width, &rec.Height, &rec.Format)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.ModTime = time.Unix(modTime, 0)
	return &rec, nil
}

// UpsertPhoto inserts or refreshes the cached record for a photo.
func (d *DB) UpsertPhoto(ctx context.Context, rec *PhotoRecord) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_photo", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
	INSERT INTO photos (name, size, mod_time, width, height, format, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(name) DO UPDATE SET
		size = excluded.size,
		mod_time = excluded.mod_time,
		width = excluded.width,
		height = excluded.height,
		format = excluded.format,
		updated_at = strftime('%s', 'now')
	`, rec.Name, rec.Size, rec.ModTime.Unix(), rec.Width, rec.Height, rec.Format)
	return err
}

// DeletePhoto removes the cached record for name. Missing rows are not an
// error.
func (d *DB) DeletePhoto(ctx context.Context, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_photo", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM photos WHERE name = ?", name)
	return err
}

// RenamePhoto moves a cached record to a new name, replacing any row that
// already holds the new name.
func (d *DB) RenamePhoto(ctx context.Context, oldName, newName string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("rename_photo", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM photos WHERE name = ?", newName)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, "UPDATE photos SET name = ? WHERE name = ?", newName, oldName)
	return err
}

// PrunePhotos deletes every cached record whose name is not in active.
// Returns the number of rows removed.
func (d *DB) PrunePhotos(ctx context.Context, active []string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("prune_photos", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if len(active) == 0 {
		var result sql.Result
		result, err = d.db.ExecContext(ctx, "DELETE FROM photos")
		if err != nil {
			return 0, err
		}
		return result.RowsAffected()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(active)), ",")
	args := make([]interface{}, len(active))
	for i, name := range active {
		args[i] = name
	}

	var result sql.Result
	result, err = d.db.ExecContext(ctx,
		"DELETE FROM photos WHERE name NOT IN ("+placeholders+")", args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
