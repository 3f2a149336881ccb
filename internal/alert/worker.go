package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopwatch/shopwatch/internal/metrics"
	"github.com/shopwatch/shopwatch/internal/model"
)

const (
	// DefaultBatchSize is the number of deliveries to process per poll.
	DefaultBatchSize = 50
	// DefaultPollInterval is the time between polling for pending deliveries.
	DefaultPollInterval = 5 * time.Second
	// DefaultMetricsInterval is how often to update queue depth metrics.
	DefaultMetricsInterval = 10 * time.Second
)

// DeliveryStore is the persistence surface the worker drains pending
// price alerts from. *Repository implements it.
type DeliveryStore interface {
	GetPendingDeliveries(ctx context.Context, limit int) ([]*model.AlertDelivery, error)
	GetEndpoint(ctx context.Context, id string) (*model.AlertEndpoint, error)
	UpdateDeliverySuccess(ctx context.Context, id string, httpStatus int) error
	UpdateDeliveryFailure(ctx context.Context, id string, httpStatus *int, errMsg string, nextRetryAt time.Time, exhausted bool) error
	GetQueueDepth(ctx context.Context) (int64, error)
}

// Worker drains pending price-alert deliveries and posts them to the
// owners' endpoints. Failed sends are rescheduled with backoff until
// the attempt budget runs out.
type Worker struct {
	store           DeliveryStore
	client          *http.Client
	logger          *slog.Logger
	metrics         metrics.Recorder
	batchSize       int
	pollInterval    time.Duration
	metricsInterval time.Duration
	lastMetrics     time.Time
	started         bool
}

// NewWorker creates a new alert delivery worker.
func NewWorker(store DeliveryStore, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		store:           store,
		client:          NewHTTPClient(),
		logger:          logger.With("component", "alert.worker"),
		metrics:         recorder,
		batchSize:       DefaultBatchSize,
		pollInterval:    DefaultPollInterval,
		metricsInterval: DefaultMetricsInterval,
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.started {
		return errors.New("worker already started")
	}
	w.started = true

	w.logger.Info("alert worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("alert worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
			}
		}
	}
}

// processOnce drains one batch of due deliveries.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	deliveries, err := w.store.GetPendingDeliveries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending deliveries: %w", err)
	}

	for _, delivery := range deliveries {
		// A delivery settled by a competing worker between the poll
		// and now needs no further attempts.
		if delivery.IsTerminal() {
			continue
		}
		if err := w.deliver(ctx, delivery); err != nil {
			w.logger.Warn("delivery failed",
				"delivery_id", delivery.ID,
				"event_id", delivery.EventID,
				"error", err,
			)
		}
	}

	return nil
}

// deliver posts a single price alert to its endpoint.
func (w *Worker) deliver(ctx context.Context, delivery *model.AlertDelivery) error {
	endpoint, err := w.store.GetEndpoint(ctx, delivery.EndpointID)
	if err != nil {
		if errors.Is(err, ErrEndpointNotFound) {
			return w.abandon(ctx, delivery, "endpoint deleted")
		}
		return err
	}

	if !endpoint.IsActive() {
		return w.abandon(ctx, delivery, "endpoint disabled")
	}

	// The owner may have dropped the event type from the subscription
	// after the delivery was queued. Honor the current subscription.
	if !endpoint.SubscribesToEvent(delivery.EventType) {
		return w.abandon(ctx, delivery, "endpoint unsubscribed from "+string(delivery.EventType))
	}

	timestamp := time.Now().Unix()
	signature := GenerateSignature(endpoint.SecretHash, timestamp, []byte(delivery.PayloadJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.TargetURL, bytes.NewReader([]byte(delivery.PayloadJSON)))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	SetAlertHeaders(req, HTTPHeaders{
		Signature:  signature,
		Timestamp:  strconv.FormatInt(timestamp, 10),
		DeliveryID: delivery.ID,
	})

	start := time.Now()
	resp, err := w.client.Do(req)
	duration := time.Since(start)

	w.metrics.ObserveAlertDeliveryDuration(endpoint.ID, duration)

	if err != nil {
		return w.handleDeliveryError(ctx, delivery, nil, err.Error())
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		attrs := []any{
			"delivery_id", delivery.ID,
			"event_id", delivery.EventID,
			"event_type", delivery.EventType,
			"target_host", ExtractHost(endpoint.TargetURL),
			"http_status", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		}
		attrs = append(attrs, priceAttrs(delivery)...)
		w.logger.Info("price alert delivered", attrs...)
		w.metrics.IncAlertDelivery("success", endpoint.ID)
		return w.store.UpdateDeliverySuccess(ctx, delivery.ID, resp.StatusCode)
	}

	return w.handleDeliveryError(ctx, delivery, &resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode))
}

// abandon marks a delivery exhausted without attempting a send. Used
// when the endpoint can no longer receive the alert at all.
func (w *Worker) abandon(ctx context.Context, delivery *model.AlertDelivery, reason string) error {
	w.logger.Info("price alert abandoned",
		"delivery_id", delivery.ID,
		"event_id", delivery.EventID,
		"event_type", delivery.EventType,
		"reason", reason,
	)
	w.metrics.IncAlertDelivery("exhausted", delivery.EndpointID)
	return w.store.UpdateDeliveryFailure(ctx, delivery.ID, nil, reason, time.Now(), true)
}

// handleDeliveryError reschedules a failed attempt, or exhausts the
// delivery when the attempt budget is spent.
func (w *Worker) handleDeliveryError(ctx context.Context, delivery *model.AlertDelivery, httpStatus *int, errMsg string) error {
	nextAttempt := delivery.AttemptCount + 1
	exhausted := IsExhausted(nextAttempt, delivery.MaxAttempts)

	if exhausted {
		attrs := []any{
			"delivery_id", delivery.ID,
			"event_id", delivery.EventID,
			"event_type", delivery.EventType,
			"attempts", nextAttempt,
			"error", errMsg,
		}
		attrs = append(attrs, priceAttrs(delivery)...)
		w.logger.Warn("price alert exhausted, giving up", attrs...)
		w.metrics.IncAlertDelivery("exhausted", delivery.EndpointID)
	} else {
		w.logger.Warn("alert delivery failed, will retry",
			"delivery_id", delivery.ID,
			"event_id", delivery.EventID,
			"attempt", nextAttempt,
			"error", errMsg,
		)
		w.metrics.IncAlertDelivery("failed", delivery.EndpointID)
	}
	w.metrics.IncAlertRetry(delivery.EndpointID, nextAttempt)

	nextRetryAt := NextRetryAt(nextAttempt)
	return w.store.UpdateDeliveryFailure(ctx, delivery.ID, httpStatus, errMsg, nextRetryAt, exhausted)
}

// priceAttrs pulls the product and price fields out of the stored
// payload for logging. Returns nothing if the payload does not decode.
func priceAttrs(delivery *model.AlertDelivery) []any {
	var payload model.AlertPayload
	if err := json.Unmarshal([]byte(delivery.PayloadJSON), &payload); err != nil {
		return nil
	}
	var attrs []any
	if v, ok := payload.Data["product_id"]; ok {
		attrs = append(attrs, "product_id", v)
	}
	if v, ok := payload.Data["listed_price"]; ok {
		attrs = append(attrs, "listed_price", v)
	}
	if v, ok := payload.Data["target_price"]; ok {
		attrs = append(attrs, "target_price", v)
	}
	return attrs
}

// maybeUpdateQueueDepth periodically updates the queue depth gauge.
func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	depth, err := w.store.GetQueueDepth(ctx)
	if err != nil {
		w.logger.Warn("failed to get queue depth", "error", err)
		return
	}
	w.metrics.SetAlertQueueDepth(depth)
}

// SetBatchSize overrides the default batch size.
func (w *Worker) SetBatchSize(size int) {
	if size > 0 {
		w.batchSize = size
	}
}

// SetPollInterval overrides the default poll interval.
func (w *Worker) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		w.pollInterval = interval
	}
}
