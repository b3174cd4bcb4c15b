// Package database maintains a small SQLite index of the originals
// directory. It caches pixel dimensions and format per photo so that listing
// the gallery does not decode every image on every request. Rows are keyed by
// filename and invalidated whenever the file's size or modification time
// changes; the index is regenerable and never authoritative over the
// filesystem.
package database
