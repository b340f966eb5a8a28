// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Document lifecycle metrics
	IncDocumentCreated()
	IncDocumentEdited()
	IncDocumentPublished()
	IncEditConflict()

	// Authentication metrics
	IncLoginIssued()
	IncTokenCacheHit()
	IncTokenCacheMiss()
	ObserveTokenLookupDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
