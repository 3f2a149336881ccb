package handler

import (
	"fmt"
	"net/http"

	"github.com/shopwatch/shopwatch/internal/metrics"
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

	writeMetric(w, "shopwatch_products_created_total %d\n", snap.ProductsCreated)
	writeMetric(w, "shopwatch_prices_updated_total %d\n", snap.PricesUpdated)
	writeMetric(w, "shopwatch_folders_created_total %d\n", snap.FoldersCreated)
	writeMetric(w, "shopwatch_folder_links_created_total %d\n", snap.FolderLinksCreated)

	writeMetric(w, "shopwatch_catalog_sync_total{status=\"success\"} %d\n", snap.CatalogSyncSuccess)
	writeMetric(w, "shopwatch_catalog_sync_total{status=\"failed\"} %d\n", snap.CatalogSyncFailed)
	writeMetric(w, "shopwatch_catalog_sync_total{status=\"skipped\"} %d\n", snap.CatalogSyncSkipped)

	writeMetric(w, "shopwatch_sync_batches_total %d\n", snap.SyncBatchCount)
	writeMetric(w, "shopwatch_sync_batch_duration_seconds_sum %.6f\n", float64(snap.SyncBatchDurationTotalNs)/1e9)
	writeMetric(w, "shopwatch_search_cache_hits_total %d\n", snap.SearchCacheHits)
	writeMetric(w, "shopwatch_search_cache_misses_total %d\n", snap.SearchCacheMisses)

	writeMetric(w, "shopwatch_alerts_published_total{status=\"success\"} %d\n", snap.AlertsPublished)
	writeMetric(w, "shopwatch_alerts_published_total{status=\"dropped\"} %d\n", snap.AlertsDropped)

	writeMetric(w, "shopwatch_alert_deliveries_total{status=\"success\"} %d\n", snap.AlertDeliverySuccess)
	writeMetric(w, "shopwatch_alert_deliveries_total{status=\"failed\"} %d\n", snap.AlertDeliveryFailed)
	writeMetric(w, "shopwatch_alert_deliveries_total{status=\"exhausted\"} %d\n", snap.AlertDeliveryExhausted)
	writeMetric(w, "shopwatch_alert_retries_total %d\n", snap.AlertRetries)
	writeMetric(w, "shopwatch_alert_queue_depth %d\n", snap.AlertQueueDepth)
	writeMetric(w, "shopwatch_alert_delivery_duration_seconds_count %d\n", snap.AlertDeliveryDurationCount)
	writeMetric(w, "shopwatch_alert_delivery_duration_seconds_sum %.6f\n", float64(snap.AlertDeliveryDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
