package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(context.Background(), filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return d
}

func TestUpsertAndGetPhoto(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	modTime := time.Unix(1700000000, 0)
	rec := &PhotoRecord{Name: "a.jpg", Size: 1234, ModTime: modTime, Width: 800, Height: 600, Format: "jpeg"}
	if err := d.UpsertPhoto(ctx, rec); err != nil {
		t.Fatalf("UpsertPhoto() error: %v", err)
	}

	got, err := d.GetPhoto(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("GetPhoto() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetPhoto() returned nil for indexed photo")
	}
	if got.Width != 800 || got.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", got.Width, got.Height)
	}
	if !got.Fresh(1234, modTime) {
		t.Error("Fresh() = false for unchanged file")
	}
	if got.Fresh(1234, modTime.Add(time.Second)) {
		t.Error("Fresh() = true for changed mtime")
	}
	if got.Fresh(99, modTime) {
		t.Error("Fresh() = true for changed size")
	}

	// Upsert with new dimensions replaces the row.
	rec.Width, rec.Height = 1024, 768
	if err := d.UpsertPhoto(ctx, rec); err != nil {
		t.Fatalf("second UpsertPhoto() error: %v", err)
	}
	got, err = d.GetPhoto(ctx, "a.jpg")
	if err != nil {
		t.Fatalf("GetPhoto() after upsert error: %v", err)
	}
	if got.Width != 1024 {
		t.Errorf("width after upsert = %d, want 1024", got.Width)
	}
}

func TestGetPhotoMissing(t *testing.T) {
	d := testDB(t)

	got, err := d.GetPhoto(context.Background(), "nope.jpg")
	if err != nil {
		t.Fatalf("GetPhoto() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetPhoto() = %+v for missing photo, want nil", got)
	}
}

func TestDeletePhoto(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	rec := &PhotoRecord{Name: "a.jpg", Size: 1, ModTime: time.Now(), Width: 1, Height: 1}
	if err := d.UpsertPhoto(ctx, rec); err != nil {
		t.Fatalf("UpsertPhoto() error: %v", err)
	}
	if err := d.DeletePhoto(ctx, "a.jpg"); err != nil {
		t.Fatalf("DeletePhoto() error: %v", err)
	}
	got, err := d.GetPhoto(ctx, "a.jpg")
	if err != nil || got != nil {
		t.Errorf("GetPhoto() after delete = (%+v, %v), want (nil, nil)", got, err)
	}

	// Deleting a missing row is not an error.
	if err := d.DeletePhoto(ctx, "a.jpg"); err != nil {
		t.Errorf("DeletePhoto() of missing row error: %v", err)
	}
}

func TestRenamePhoto(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	for _, name := range []string{"a.jpg", "b.jpg"} {
		rec := &PhotoRecord{Name: name, Size: 1, ModTime: time.Now(), Width: 10, Height: 10}
		if err := d.UpsertPhoto(ctx, rec); err != nil {
			t.Fatalf("UpsertPhoto(%s) error: %v", name, err)
		}
	}

	// Rename over an existing row replaces it.
	if err := d.RenamePhoto(ctx, "a.jpg", "b.jpg"); err != nil {
		t.Fatalf("RenamePhoto() error: %v", err)
	}

	got, err := d.GetPhoto(ctx, "a.jpg")
	if err != nil || got != nil {
		t.Errorf("old name still present after rename: (%+v, %v)", got, err)
	}
	got, err = d.GetPhoto(ctx, "b.jpg")
	if err != nil {
		t.Fatalf("GetPhoto(b.jpg) error: %v", err)
	}
	if got == nil {
		t.Fatal("new name missing after rename")
	}
}

func TestPrunePhotos(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	for _, name := range []string{"a.jpg", "b.jpg", "c.png"} {
		rec := &PhotoRecord{Name: name, Size: 1, ModTime: time.Now(), Width: 1, Height: 1}
		if err := d.UpsertPhoto(ctx, rec); err != nil {
			t.Fatalf("UpsertPhoto(%s) error: %v", name, err)
		}
	}

	pruned, err := d.PrunePhotos(ctx, []string{"a.jpg"})
	if err != nil {
		t.Fatalf("PrunePhotos() error: %v", err)
	}
	if pruned != 2 {
		t.Errorf("PrunePhotos() = %d, want 2", pruned)
	}

	got, err := d.GetPhoto(ctx, "a.jpg")
	if err != nil || got == nil {
		t.Errorf("active photo pruned: (%+v, %v)", got, err)
	}

	// Empty active set clears everything.
	pruned, err = d.PrunePhotos(ctx, nil)
	if err != nil {
		t.Fatalf("PrunePhotos(nil) error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("PrunePhotos(nil) = %d, want 1", pruned)
	}
}
