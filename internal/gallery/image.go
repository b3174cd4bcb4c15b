package gallery

import (
	"image"
	"io"
	"os"
	"path/filepath"

	"photo-gallery/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // decode-only, for stray webp content in jpg clothing
)

// Dimensions holds image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// DecodeDimensions returns image dimensions without fully decoding the image.
func DecodeDimensions(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, err
	}

	return Dimensions{Width: config.Width, Height: config.Height}, nil
}

// writeImage encodes img to path atomically: it writes to a temporary file in
// the same directory and renames it into place. The encoder is chosen from
// the destination extension. The temporary file name starts with a dot so
// directory scans skip it.
func writeImage(path string, img image.Image, quality int) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(quality)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// copyFile copies src to dst, replacing dst if it exists. The destination is
// synced before the copy is reported successful.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			logging.Warn("failed to close %s: %v", src, err)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
