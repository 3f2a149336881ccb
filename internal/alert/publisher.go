package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopwatch/shopwatch/internal/model"
)

// Publisher creates alert delivery records when a product's listed
// price reaches its target. It implements service.AlertPublisher.
type Publisher struct {
	repo   *Repository
	logger *slog.Logger
}

// NewPublisher creates a new alert publisher.
func NewPublisher(repo *Repository, logger *slog.Logger) *Publisher {
	return &Publisher{
		repo:   repo,
		logger: logger.With("component", "alert.publisher"),
	}
}

// PublishPriceReached fans a price-reached event out to every active
// endpoint of the product's owner. The event ID derives from the
// product and the listed price, so the same price point is delivered
// at most once per endpoint.
func (p *Publisher) PublishPriceReached(ctx context.Context, product *model.Product) error {
	endpoints, err := p.repo.ListActiveEndpointsByUserAndEvent(ctx, product.OwnerID, model.EventTypePriceReached)
	if err != nil {
		return fmt.Errorf("list active endpoints: %w", err)
	}

	if len(endpoints) == 0 {
		return nil
	}

	now := time.Now().UTC()
	eventID := fmt.Sprintf("%s:%d", product.ID, product.LPrice)

	// Build payload once, reuse for all endpoints
	payload := model.AlertPayload{
		EventType: string(model.EventTypePriceReached),
		EventID:   eventID,
		Timestamp: now,
		Data: map[string]any{
			"product_id":   product.ID,
			"title":        product.Title,
			"link":         product.Link,
			"listed_price": product.LPrice,
			"target_price": product.MyPrice,
		},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	for _, endpoint := range endpoints {
		delivery := &model.AlertDelivery{
			ID:           ulid.Make().String(),
			EndpointID:   endpoint.ID,
			EventID:      eventID,
			EventType:    model.EventTypePriceReached,
			PayloadJSON:  string(payloadJSON),
			Status:       model.DeliveryStatusPending,
			AttemptCount: 0,
			MaxAttempts:  DefaultMaxAttempts,
			NextRetryAt:  now, // Immediate delivery
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := p.repo.CreateDelivery(ctx, delivery); err != nil {
			p.logger.Warn("failed to create delivery",
				"endpoint_id", endpoint.ID,
				"event_id", eventID,
				"error", err,
			)
			continue
		}

		p.logger.Debug("alert delivery created",
			"delivery_id", delivery.ID,
			"endpoint_id", endpoint.ID,
			"event_id", eventID,
		)
	}

	return nil
}
