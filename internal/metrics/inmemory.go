package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProductsCreated    uint64
	PricesUpdated      uint64
	FoldersCreated     uint64
	FolderLinksCreated uint64

	CatalogSyncSuccess uint64
	CatalogSyncFailed  uint64
	CatalogSyncSkipped uint64

	SyncBatchCount           uint64
	SyncBatchDurationTotalNs int64
	SearchCacheHits          uint64
	SearchCacheMisses        uint64

	AlertsPublished uint64
	AlertsDropped   uint64

	AlertDeliverySuccess   uint64
	AlertDeliveryFailed    uint64
	AlertDeliveryExhausted uint64
	AlertRetries           uint64
	AlertQueueDepth        int64

	AlertDeliveryDurationCount   uint64
	AlertDeliveryDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests and the
// /metrics exposition endpoint.
type InMemoryRecorder struct {
	productsCreated    uint64
	pricesUpdated      uint64
	foldersCreated     uint64
	folderLinksCreated uint64

	catalogSyncSuccess uint64
	catalogSyncFailed  uint64
	catalogSyncSkipped uint64

	syncBatchCount           uint64
	syncBatchDurationTotalNs int64
	searchCacheHits          uint64
	searchCacheMisses        uint64

	alertsPublished uint64
	alertsDropped   uint64

	alertDeliverySuccess   uint64
	alertDeliveryFailed    uint64
	alertDeliveryExhausted uint64
	alertRetries           uint64
	alertQueueDepth        int64

	alertDeliveryDurationCount   uint64
	alertDeliveryDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProductsCreated:    atomic.LoadUint64(&m.productsCreated),
		PricesUpdated:      atomic.LoadUint64(&m.pricesUpdated),
		FoldersCreated:     atomic.LoadUint64(&m.foldersCreated),
		FolderLinksCreated: atomic.LoadUint64(&m.folderLinksCreated),

		CatalogSyncSuccess: atomic.LoadUint64(&m.catalogSyncSuccess),
		CatalogSyncFailed:  atomic.LoadUint64(&m.catalogSyncFailed),
		CatalogSyncSkipped: atomic.LoadUint64(&m.catalogSyncSkipped),

		SyncBatchCount:           atomic.LoadUint64(&m.syncBatchCount),
		SyncBatchDurationTotalNs: atomic.LoadInt64(&m.syncBatchDurationTotalNs),
		SearchCacheHits:          atomic.LoadUint64(&m.searchCacheHits),
		SearchCacheMisses:        atomic.LoadUint64(&m.searchCacheMisses),

		AlertsPublished: atomic.LoadUint64(&m.alertsPublished),
		AlertsDropped:   atomic.LoadUint64(&m.alertsDropped),

		AlertDeliverySuccess:   atomic.LoadUint64(&m.alertDeliverySuccess),
		AlertDeliveryFailed:    atomic.LoadUint64(&m.alertDeliveryFailed),
		AlertDeliveryExhausted: atomic.LoadUint64(&m.alertDeliveryExhausted),
		AlertRetries:           atomic.LoadUint64(&m.alertRetries),
		AlertQueueDepth:        atomic.LoadInt64(&m.alertQueueDepth),

		AlertDeliveryDurationCount:   atomic.LoadUint64(&m.alertDeliveryDurationCount),
		AlertDeliveryDurationTotalNs: atomic.LoadInt64(&m.alertDeliveryDurationTotalNs),
	}
}

// IncProductCreated increments the product created counter.
func (m *InMemoryRecorder) IncProductCreated() {
	atomic.AddUint64(&m.productsCreated, 1)
}

// IncPriceUpdated increments the target price update counter.
func (m *InMemoryRecorder) IncPriceUpdated() {
	atomic.AddUint64(&m.pricesUpdated, 1)
}

// IncFolderCreated increments the folder created counter.
func (m *InMemoryRecorder) IncFolderCreated() {
	atomic.AddUint64(&m.foldersCreated, 1)
}

// IncFolderLinkCreated increments the folder link counter.
func (m *InMemoryRecorder) IncFolderLinkCreated() {
	atomic.AddUint64(&m.folderLinksCreated, 1)
}

// IncCatalogSync increments the sync counter for the given status.
func (m *InMemoryRecorder) IncCatalogSync(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.catalogSyncSuccess, 1)
	case "failed":
		atomic.AddUint64(&m.catalogSyncFailed, 1)
	case "skipped":
		atomic.AddUint64(&m.catalogSyncSkipped, 1)
	}
}

// ObserveSyncBatchSize records a sync batch.
func (m *InMemoryRecorder) ObserveSyncBatchSize(size int) {
	atomic.AddUint64(&m.syncBatchCount, 1)
}

// ObserveSyncBatchDuration records sync batch duration.
func (m *InMemoryRecorder) ObserveSyncBatchDuration(duration time.Duration) {
	atomic.AddInt64(&m.syncBatchDurationTotalNs, duration.Nanoseconds())
}

// IncSearchCacheHit increments the search cache hit counter.
func (m *InMemoryRecorder) IncSearchCacheHit() {
	atomic.AddUint64(&m.searchCacheHits, 1)
}

// IncSearchCacheMiss increments the search cache miss counter.
func (m *InMemoryRecorder) IncSearchCacheMiss() {
	atomic.AddUint64(&m.searchCacheMisses, 1)
}

// IncAlertPublished increments the alert published counter.
func (m *InMemoryRecorder) IncAlertPublished(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.alertsPublished, 1)
	case "dropped":
		atomic.AddUint64(&m.alertsDropped, 1)
	}
}

// IncAlertDelivery increments the delivery counter for the given status.
func (m *InMemoryRecorder) IncAlertDelivery(status string, endpointID string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.alertDeliverySuccess, 1)
	case "failed":
		atomic.AddUint64(&m.alertDeliveryFailed, 1)
	case "exhausted":
		atomic.AddUint64(&m.alertDeliveryExhausted, 1)
	}
}

// IncAlertRetry increments the retry counter.
func (m *InMemoryRecorder) IncAlertRetry(endpointID string, attempt int) {
	atomic.AddUint64(&m.alertRetries, 1)
}

// ObserveAlertDeliveryDuration records delivery duration.
func (m *InMemoryRecorder) ObserveAlertDeliveryDuration(endpointID string, duration time.Duration) {
	atomic.AddUint64(&m.alertDeliveryDurationCount, 1)
	atomic.AddInt64(&m.alertDeliveryDurationTotalNs, duration.Nanoseconds())
}

// SetAlertQueueDepth sets the pending delivery queue depth gauge.
func (m *InMemoryRecorder) SetAlertQueueDepth(depth int64) {
	atomic.StoreInt64(&m.alertQueueDepth, depth)
}
