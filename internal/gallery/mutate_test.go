package gallery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photo-gallery/internal/database"
)

func testLibrary(t *testing.T) *Library {
	t.Helper()
	root := t.TempDir()

	db, err := database.New(context.Background(), filepath.Join(root, "index.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	photosDir := filepath.Join(root, "photos")
	cache, err := NewCache(photosDir, filepath.Join(root, "cache"), 100)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	lib, err := NewLibrary(photosDir, cache, db)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	return lib
}

func TestRename(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 120, 80)
	if _, _, err := lib.Cache().Ensure("a.jpg"); err != nil {
		t.Fatal(err)
	}

	got, err := lib.Rename(ctx, "a.jpg", "my holiday")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got != "my_holiday.jpg" {
		t.Errorf("renamed to %q, want my_holiday.jpg", got)
	}

	if _, err := os.Stat(filepath.Join(lib.PhotosDir(), "a.jpg")); !os.IsNotExist(err) {
		t.Errorf("old file still present, err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(lib.PhotosDir(), "my_holiday.jpg")); err != nil {
		t.Errorf("new file missing: %v", err)
	}
	if _, err := os.Stat(lib.Cache().EntryPath("a.jpg")); !os.IsNotExist(err) {
		t.Errorf("old thumbnail still present, err = %v", err)
	}
	if _, err := os.Stat(lib.Cache().EntryPath("my_holiday.jpg")); err != nil {
		t.Errorf("new thumbnail missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(lib.PhotosDir(), "a.jpg.bak")); !os.IsNotExist(err) {
		t.Errorf("backup left behind, err = %v", err)
	}
}

func TestRenameInvalidName(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)

	for _, bad := range []string{"", "   ", ".jpg", "..."} {
		if _, err := lib.Rename(ctx, "a.jpg", bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Rename(%q): err = %v, want ErrInvalidName", bad, err)
		}
	}

	// The original must be untouched after every rejection.
	if _, err := os.Stat(filepath.Join(lib.PhotosDir(), "a.jpg")); err != nil {
		t.Errorf("original disturbed by rejected rename: %v", err)
	}
}

func TestRenameCollision(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)
	savePhoto(t, filepath.Join(lib.PhotosDir(), "b.jpg"), 60, 40)

	if _, err := lib.Rename(ctx, "a.jpg", "b"); !errors.Is(err, ErrNameCollision) {
		t.Fatalf("err = %v, want ErrNameCollision", err)
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := os.Stat(filepath.Join(lib.PhotosDir(), name)); err != nil {
			t.Errorf("%s disturbed by rejected rename: %v", name, err)
		}
	}
}

func TestRenameKeepsExtension(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)

	// Clients sometimes send the extension along with the base name.
	got, err := lib.Rename(ctx, "a.jpg", "b.JPG")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got != "b.jpg" {
		t.Errorf("renamed to %q, want b.jpg", got)
	}
}

func TestRenameSameNameNoOp(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)

	got, err := lib.Rename(ctx, "a.jpg", "a")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got != "a.jpg" {
		t.Errorf("got %q, want a.jpg", got)
	}
}

func TestRenameMissingPhoto(t *testing.T) {
	lib := testLibrary(t)
	if _, err := lib.Rename(context.Background(), "ghost.jpg", "b"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestDelete(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 120, 80)
	if _, _, err := lib.Cache().Ensure("a.jpg"); err != nil {
		t.Fatal(err)
	}

	if err := lib.Delete(ctx, "a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(lib.PhotosDir(), "a.jpg")); !os.IsNotExist(err) {
		t.Errorf("photo still present, err = %v", err)
	}
	if _, err := os.Stat(lib.Cache().EntryPath("a.jpg")); !os.IsNotExist(err) {
		t.Errorf("thumbnail still present, err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(lib.PhotosDir(), "a.jpg.bak")); !os.IsNotExist(err) {
		t.Errorf("backup left behind, err = %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	lib := testLibrary(t)
	if err := lib.Delete(context.Background(), "ghost.jpg"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestPhotoPathRejectsTraversal(t *testing.T) {
	lib := testLibrary(t)
	for _, bad := range []string{"", "../a.jpg", "sub/a.jpg", ".hidden.jpg"} {
		if _, err := lib.PhotoPath(bad); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("PhotoPath(%q): err = %v, want ErrInvalidRequest", bad, err)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.jpg")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := TakeSnapshot(path)
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	if err := os.WriteFile(path, []byte("clobbered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := snap.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("restored content = %q, want original", data)
	}

	snap.Discard()
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Errorf("backup survived Discard, err = %v", err)
	}
}
