package gallery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPreprocessRun(t *testing.T) {
	lib := testLibrary(t)
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 120, 80)
	savePhoto(t, filepath.Join(lib.PhotosDir(), "b.jpg"), 60, 40)

	orphan := filepath.Join(lib.Cache().Dir(), "gone_100x100.jpg")
	if err := os.WriteFile(orphan, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPreprocessor(lib, time.Hour)
	p.Run(context.Background())

	for _, name := range []string{"a.jpg", "b.jpg"} {
		if !lib.Cache().IsValid(name) {
			t.Errorf("no valid thumbnail for %s after run", name)
		}
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Errorf("orphan survived run, err = %v", err)
	}

	status := p.Status()
	if status.Processing {
		t.Error("still marked processing after run")
	}
	if status.Total != 2 || status.Processed != 2 {
		t.Errorf("status = %+v, want 2/2", status)
	}
	if status.LastUpdate == "" {
		t.Error("LastUpdate not set")
	}
}

func TestPreprocessRunNothingStale(t *testing.T) {
	lib := testLibrary(t)
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)
	if _, _, err := lib.Cache().Ensure("a.jpg"); err != nil {
		t.Fatal(err)
	}

	p := NewPreprocessor(lib, time.Hour)
	p.Run(context.Background())

	if status := p.Status(); status.Total != 0 || status.Processed != 0 {
		t.Errorf("status = %+v, want nothing to do", status)
	}
}

func TestPreprocessStartStop(t *testing.T) {
	lib := testLibrary(t)
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)
	p := NewPreprocessor(lib, time.Hour)

	p.Start(true)
	deadline := time.Now().Add(5 * time.Second)
	for p.Status().LastUpdate == "" {
		if time.Now().After(deadline) {
			t.Fatal("initial run never completed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	p.Stop()

	select {
	case <-p.done:
	default:
		t.Error("background loop still running after Stop")
	}
	if !lib.Cache().IsValid("a.jpg") {
		t.Error("no thumbnail generated by initial run")
	}
}

func TestPreprocessStartWithoutInitialRun(t *testing.T) {
	lib := testLibrary(t)
	savePhoto(t, filepath.Join(lib.PhotosDir(), "a.jpg"), 60, 40)
	p := NewPreprocessor(lib, time.Hour)

	// The timer still runs; only the immediate pass is suppressed.
	p.Start(false)
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	if status := p.Status(); status.LastUpdate != "" {
		t.Errorf("run happened despite suppressed initial pass: %+v", status)
	}
	if lib.Cache().IsValid("a.jpg") {
		t.Error("thumbnail generated despite suppressed initial pass")
	}
}
