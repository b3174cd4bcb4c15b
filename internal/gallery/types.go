package gallery

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Photo is one gallery entry as returned by the listing API. Width and
// Height are the thumbnail dimensions (used for layout); Dimensions and
// AspectRatio describe the original.
type Photo struct {
	Name          string  `json:"name"`
	DisplayName   string  `json:"displayName"`
	ThumbnailPath string  `json:"thumbnailPath,omitempty"`
	DateModified  string  `json:"dateModified"`
	SizeLabel     string  `json:"sizeLabel"`
	Dimensions    string  `json:"dimensions"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	AspectRatio   float64 `json:"aspectRatio"`
}

// AllowedExtensions maps accepted image file extensions (lowercase, with
// leading dot) to true. Anything else is rejected at upload time and ignored
// by the listing.
var AllowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
}

// IsAllowedName reports whether name carries an accepted image extension.
func IsAllowedName(name string) bool {
	return AllowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// SanitizeName reduces a client-supplied filename to a filesystem-safe base
// name: path components are stripped, spaces become underscores, and anything
// outside [A-Za-z0-9._-] is dropped. Leading dots are removed so the result
// can never be a hidden file or a bare extension.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	return strings.TrimLeft(b.String(), ".")
}

// DisplayName shortens long filenames for presentation: names over 25
// characters keep their first 22 characters plus "..." and the extension.
// Lengths count runes, not bytes, so multi-byte names are never cut
// mid-character.
func DisplayName(name string) string {
	if utf8.RuneCountInString(name) <= 25 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if runes := []rune(base); len(runes) > 22 {
		base = string(runes[:22])
	}
	return base + "..." + ext
}

// SizeLabel formats a byte count the way the gallery UI shows it.
func SizeLabel(size int64) string {
	if size < 1<<20 {
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	}
	return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
}
