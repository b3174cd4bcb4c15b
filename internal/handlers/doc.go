// Package handlers contains the HTTP handlers for the gallery API: photo
// listing and serving, chunked uploads, rename/delete, cache maintenance,
// and health/version endpoints.
package handlers
