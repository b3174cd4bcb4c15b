package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv("GALLERY_WORKERS", "")

	if got := Count(1.0, 0); got < 1 {
		t.Errorf("Count(1.0, 0) = %d, want >= 1", got)
	}

	if got := Count(0.0001, 0); got != 1 {
		t.Errorf("Count with tiny multiplier = %d, want floor of 1", got)
	}

	if got := Count(100.0, 4); got != 4 {
		t.Errorf("Count with limit 4 = %d, want 4", got)
	}
}

func TestCountOverride(t *testing.T) {
	t.Setenv("GALLERY_WORKERS", "7")

	if got := Count(1.0, 0); got != 7 {
		t.Errorf("Count with override = %d, want 7", got)
	}
	if got := Count(1.0, 3); got != 3 {
		t.Errorf("Count with override and limit = %d, want 3", got)
	}

	t.Setenv("GALLERY_WORKERS", "not-a-number")
	want := runtime.GOMAXPROCS(0)
	if got := Count(1.0, 0); got != want {
		t.Errorf("Count with invalid override = %d, want %d", got, want)
	}
}

func TestForCPUAndIO(t *testing.T) {
	t.Setenv("GALLERY_WORKERS", "")

	cpu := ForCPU(0)
	io := ForIO(0)
	if io < cpu {
		t.Errorf("ForIO(0) = %d < ForCPU(0) = %d", io, cpu)
	}
}
