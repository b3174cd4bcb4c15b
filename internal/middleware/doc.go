// Package middleware provides the HTTP middleware chain for the gallery:
// access logging, Prometheus request metrics keyed by route template, and
// gzip response compression.
package middleware
