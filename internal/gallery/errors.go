package gallery

import "errors"

// Sentinel errors surfaced across the gallery core. Handlers map these to
// HTTP statuses with errors.Is; everything else is treated as an internal
// filesystem error.
var (
	// ErrInvalidRequest indicates malformed or missing input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnsupportedFormat indicates a filename without an accepted image
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrInvalidName indicates an empty or extension-only target name for a
	// rename.
	ErrInvalidName = errors.New("invalid name")

	// ErrNameCollision indicates the rename target already belongs to a
	// different photo.
	ErrNameCollision = errors.New("name already in use")

	// ErrThumbnailGeneration indicates a thumbnail could not be produced.
	// Non-fatal: callers treat the photo as having no thumbnail.
	ErrThumbnailGeneration = errors.New("thumbnail generation failed")

	// ErrDelete indicates the original could not be removed. The file is
	// left untouched.
	ErrDelete = errors.New("delete failed")
)
