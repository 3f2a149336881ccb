// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Product lifecycle metrics
	IncProductCreated()
	IncPriceUpdated()
	IncFolderCreated()
	IncFolderLinkCreated()

	// Catalog sync pipeline metrics
	IncCatalogSync(status string) // status: "success", "failed", "skipped"
	ObserveSyncBatchSize(size int)
	ObserveSyncBatchDuration(duration time.Duration)
	IncSearchCacheHit()
	IncSearchCacheMiss()

	// Price alert delivery metrics
	IncAlertPublished(status string) // status: "success" or "dropped"
	IncAlertDelivery(status string, endpointID string)
	IncAlertRetry(endpointID string, attempt int)
	ObserveAlertDeliveryDuration(endpointID string, duration time.Duration)
	SetAlertQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
