// Package metrics defines the Prometheus metrics exported by the photo
// gallery. All metrics are registered with the default registry via promauto
// at package load time; InitializeMetrics pre-populates known label
// combinations so every series is visible from the first scrape.
package metrics
