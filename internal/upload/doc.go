// Package upload implements chunked upload sessions. Each session is a
// directory under the uploads area named by a generated token, holding a
// session.json metadata record and zero-padded chunk files. Chunks may
// arrive in any order and may be retried per index; completion merges them
// in index order, optimizes the result, and hands it to the gallery.
//
// Sessions untouched for more than 24 hours are expired: lookups treat them
// as missing and the maintenance sweeper removes them.
package upload
