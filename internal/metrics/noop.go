package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncProductCreated is a no-op.
func (n *NoopRecorder) IncProductCreated() {}

// IncPriceUpdated is a no-op.
func (n *NoopRecorder) IncPriceUpdated() {}

// IncFolderCreated is a no-op.
func (n *NoopRecorder) IncFolderCreated() {}

// IncFolderLinkCreated is a no-op.
func (n *NoopRecorder) IncFolderLinkCreated() {}

// IncCatalogSync is a no-op.
func (n *NoopRecorder) IncCatalogSync(status string) {}

// ObserveSyncBatchSize is a no-op.
func (n *NoopRecorder) ObserveSyncBatchSize(size int) {}

// ObserveSyncBatchDuration is a no-op.
func (n *NoopRecorder) ObserveSyncBatchDuration(duration time.Duration) {}

// IncSearchCacheHit is a no-op.
func (n *NoopRecorder) IncSearchCacheHit() {}

// IncSearchCacheMiss is a no-op.
func (n *NoopRecorder) IncSearchCacheMiss() {}

// IncAlertPublished is a no-op.
func (n *NoopRecorder) IncAlertPublished(status string) {}

// IncAlertDelivery is a no-op.
func (n *NoopRecorder) IncAlertDelivery(status string, endpointID string) {}

// IncAlertRetry is a no-op.
func (n *NoopRecorder) IncAlertRetry(endpointID string, attempt int) {}

// ObserveAlertDeliveryDuration is a no-op.
func (n *NoopRecorder) ObserveAlertDeliveryDuration(endpointID string, duration time.Duration) {}

// SetAlertQueueDepth is a no-op.
func (n *NoopRecorder) SetAlertQueueDepth(depth int64) {}
