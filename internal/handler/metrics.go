package handler

import (
	"fmt"
	"net/http"

	"github.com/docket/docket/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "docket_documents_created_total %d\n", snap.DocumentsCreated)
	writeMetric(w, "docket_documents_edited_total %d\n", snap.DocumentsEdited)
	writeMetric(w, "docket_documents_published_total %d\n", snap.DocumentsPublished)
	writeMetric(w, "docket_document_edit_conflicts_total %d\n", snap.EditConflicts)

	writeMetric(w, "docket_logins_total %d\n", snap.LoginsIssued)
	writeMetric(w, "docket_token_cache_total{result=\"hit\"} %d\n", snap.TokenCacheHits)
	writeMetric(w, "docket_token_cache_total{result=\"miss\"} %d\n", snap.TokenCacheMisses)
	writeMetric(w, "docket_token_lookup_duration_seconds_count %d\n", snap.TokenLookupCount)
	writeMetric(w, "docket_token_lookup_duration_seconds_sum %.6f\n", float64(snap.TokenLookupDurationTotal)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
