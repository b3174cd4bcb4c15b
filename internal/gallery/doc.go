// Package gallery implements the photo gallery core: the originals library,
// the thumbnail cache, the image optimizer, rename/delete with
// backup-snapshot rollback, and bulk thumbnail pregeneration.
//
// Originals live flat in one directory. Thumbnails are derived files in a
// separate cache directory, named {base}_{maxDim}x{maxDim}{ext}, and are
// considered valid while their modification time is at least that of the
// original; anything else is regenerated on demand.
package gallery
