package gallery

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestOptimizePreservedSmallInputCopied(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	out := filepath.Join(dir, "out.jpg")
	savePhoto(t, in, 100, 80)

	opts := DefaultOptimizeOptions()
	opts.PreserveDimensions = true

	report, err := Optimize(in, out, opts)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report.Ratio != 0 || report.Result != ResultCopied {
		t.Errorf("report = %+v, want ratio 0 and result copied", report)
	}

	inData, _ := os.ReadFile(in)
	outData, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !bytes.Equal(inData, outData) {
		t.Error("small preserved input was recompressed, want byte-identical copy")
	}
}

func TestOptimizeGifCopiedUnchanged(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "anim.gif")
	out := filepath.Join(dir, "out.gif")

	img := imaging.New(64, 64, color.NRGBA{R: 200, A: 255})
	if err := imaging.Save(img, in); err != nil {
		t.Fatal(err)
	}

	report, err := Optimize(in, out, DefaultOptimizeOptions())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report.Ratio != 0 || report.Result != ResultCopied {
		t.Errorf("report = %+v, want ratio 0 and result copied", report)
	}

	inData, _ := os.ReadFile(in)
	outData, _ := os.ReadFile(out)
	if !bytes.Equal(inData, outData) {
		t.Error("gif was re-encoded, want byte-identical copy")
	}
}

func TestOptimizeUndecodableFallsBackToCopy(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "broken.jpg")
	out := filepath.Join(dir, "out.jpg")
	junk := []byte("not actually a jpeg")
	if err := os.WriteFile(in, junk, 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Optimize(in, out, DefaultOptimizeOptions())
	if err != nil {
		t.Fatalf("Optimize must absorb decode failures, got %v", err)
	}
	if report.Ratio != 0 || report.Result != ResultFallback {
		t.Errorf("report = %+v, want ratio 0 and result fallback", report)
	}

	outData, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output absent after fallback: %v", err)
	}
	if !bytes.Equal(outData, junk) {
		t.Error("fallback copy altered the bytes")
	}
}

func TestOptimizeRecompresses(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "big.jpg")
	out := filepath.Join(dir, "out.jpg")

	img := imaging.New(600, 400, color.NRGBA{R: 10, G: 120, B: 60, A: 255})
	if err := imaging.Save(img, in, imaging.JPEGQuality(100)); err != nil {
		t.Fatal(err)
	}

	report, err := Optimize(in, out, DefaultOptimizeOptions())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report.Result != ResultOptimized {
		t.Errorf("result = %q, want optimized", report.Result)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("output missing or empty after recompress: %v", err)
	}

	dims, err := DecodeDimensions(out)
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	// Well under the pixel ceiling, so dimensions survive.
	if dims.Width != 600 || dims.Height != 400 {
		t.Errorf("output = %dx%d, want 600x400", dims.Width, dims.Height)
	}
}

func TestOptimizeMissingInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := Optimize(filepath.Join(dir, "nope.jpg"), filepath.Join(dir, "out.jpg"), DefaultOptimizeOptions()); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestQualityForSize(t *testing.T) {
	tests := []struct {
		size int64
		want int
	}{
		{1 << 20, 90},
		{3 << 20, 85},
		{7 << 20, 80},
		{12 << 20, 75},
		{25 << 20, 70},
	}
	for _, tt := range tests {
		if got := qualityForSize(tt.size); got != tt.want {
			t.Errorf("qualityForSize(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}
