package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncDocumentCreated()
			m.IncDocumentEdited()
			m.IncTokenCacheMiss()
		}()
	}
	wg.Wait()

	m.IncDocumentPublished()
	m.IncEditConflict()
	m.IncLoginIssued()
	m.IncTokenCacheHit()
	m.ObserveTokenLookupDuration(2 * time.Millisecond)
	m.ObserveTokenLookupDuration(3 * time.Millisecond)

	snap := m.Snapshot()
	if snap.DocumentsCreated != 10 || snap.DocumentsEdited != 10 || snap.TokenCacheMisses != 10 {
		t.Errorf("concurrent counters mismatch: %+v", snap)
	}
	if snap.DocumentsPublished != 1 || snap.EditConflicts != 1 || snap.LoginsIssued != 1 || snap.TokenCacheHits != 1 {
		t.Errorf("single counters mismatch: %+v", snap)
	}
	if snap.TokenLookupCount != 2 || snap.TokenLookupDurationTotal != (5*time.Millisecond).Nanoseconds() {
		t.Errorf("duration mismatch: %+v", snap)
	}
}

func TestNoopRecorder_Implements(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncDocumentCreated()
	r.ObserveTokenLookupDuration(time.Second)

	var _ Recorder = NewInMemory()
	var _ Snapshotter = NewInMemory()
}
