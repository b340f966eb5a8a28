package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncDocumentCreated is a no-op.
func (n *NoopRecorder) IncDocumentCreated() {}

// IncDocumentEdited is a no-op.
func (n *NoopRecorder) IncDocumentEdited() {}

// IncDocumentPublished is a no-op.
func (n *NoopRecorder) IncDocumentPublished() {}

// IncEditConflict is a no-op.
func (n *NoopRecorder) IncEditConflict() {}

// IncLoginIssued is a no-op.
func (n *NoopRecorder) IncLoginIssued() {}

// IncTokenCacheHit is a no-op.
func (n *NoopRecorder) IncTokenCacheHit() {}

// IncTokenCacheMiss is a no-op.
func (n *NoopRecorder) IncTokenCacheMiss() {}

// ObserveTokenLookupDuration is a no-op.
func (n *NoopRecorder) ObserveTokenLookupDuration(duration time.Duration) {}
