package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	DocumentsCreated         uint64
	DocumentsEdited          uint64
	DocumentsPublished       uint64
	EditConflicts            uint64
	LoginsIssued             uint64
	TokenCacheHits           uint64
	TokenCacheMisses         uint64
	TokenLookupCount         uint64
	TokenLookupDurationTotal int64
}

// InMemoryRecorder stores counters in memory. It backs the /metrics endpoint
// and is inspected directly in tests.
type InMemoryRecorder struct {
	documentsCreated         uint64
	documentsEdited          uint64
	documentsPublished       uint64
	editConflicts            uint64
	loginsIssued             uint64
	tokenCacheHits           uint64
	tokenCacheMisses         uint64
	tokenLookupCount         uint64
	tokenLookupDurationTotal int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		DocumentsCreated:         atomic.LoadUint64(&m.documentsCreated),
		DocumentsEdited:          atomic.LoadUint64(&m.documentsEdited),
		DocumentsPublished:       atomic.LoadUint64(&m.documentsPublished),
		EditConflicts:            atomic.LoadUint64(&m.editConflicts),
		LoginsIssued:             atomic.LoadUint64(&m.loginsIssued),
		TokenCacheHits:           atomic.LoadUint64(&m.tokenCacheHits),
		TokenCacheMisses:         atomic.LoadUint64(&m.tokenCacheMisses),
		TokenLookupCount:         atomic.LoadUint64(&m.tokenLookupCount),
		TokenLookupDurationTotal: atomic.LoadInt64(&m.tokenLookupDurationTotal),
	}
}

// IncDocumentCreated increments the created counter.
func (m *InMemoryRecorder) IncDocumentCreated() {
	atomic.AddUint64(&m.documentsCreated, 1)
}

// IncDocumentEdited increments the edited counter.
func (m *InMemoryRecorder) IncDocumentEdited() {
	atomic.AddUint64(&m.documentsEdited, 1)
}

// IncDocumentPublished increments the published counter.
func (m *InMemoryRecorder) IncDocumentPublished() {
	atomic.AddUint64(&m.documentsPublished, 1)
}

// IncEditConflict increments the optimistic-lock conflict counter.
func (m *InMemoryRecorder) IncEditConflict() {
	atomic.AddUint64(&m.editConflicts, 1)
}

// IncLoginIssued increments the issued token counter.
func (m *InMemoryRecorder) IncLoginIssued() {
	atomic.AddUint64(&m.loginsIssued, 1)
}

// IncTokenCacheHit increments the identity cache hit counter.
func (m *InMemoryRecorder) IncTokenCacheHit() {
	atomic.AddUint64(&m.tokenCacheHits, 1)
}

// IncTokenCacheMiss increments the identity cache miss counter.
func (m *InMemoryRecorder) IncTokenCacheMiss() {
	atomic.AddUint64(&m.tokenCacheMisses, 1)
}

// ObserveTokenLookupDuration records how long a token resolution took.
func (m *InMemoryRecorder) ObserveTokenLookupDuration(duration time.Duration) {
	atomic.AddUint64(&m.tokenLookupCount, 1)
	atomic.AddInt64(&m.tokenLookupDurationTotal, duration.Nanoseconds())
}
