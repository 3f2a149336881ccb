//go:build integration

package alert

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/testutil"
)

func TestIntegrationAlertRepository_EndpointLifecycle(t *testing.T) {
	ctx, repo, userID := newAlertTestEnv(t)

	endpoint := newTestEndpoint(userID)
	if err := repo.CreateEndpoint(ctx, endpoint); err != nil {
		t.Fatalf("CreateEndpoint failed: %v", err)
	}

	retrieved, err := repo.GetEndpoint(ctx, endpoint.ID)
	if err != nil {
		t.Fatalf("GetEndpoint failed: %v", err)
	}
	if retrieved.TargetURL != endpoint.TargetURL {
		t.Errorf("TargetURL mismatch: got %q", retrieved.TargetURL)
	}
	if !retrieved.IsActive() {
		t.Error("new endpoint should be active")
	}

	if err := repo.DeleteEndpoint(ctx, endpoint.ID); err != nil {
		t.Fatalf("DeleteEndpoint failed: %v", err)
	}
	_, err = repo.GetEndpoint(ctx, endpoint.ID)
	if !errors.Is(err, ErrEndpointNotFound) {
		t.Errorf("Expected ErrEndpointNotFound after delete, got: %v", err)
	}
}

func TestIntegrationAlertPublisher_Idempotency(t *testing.T) {
	ctx, repo, userID := newAlertTestEnv(t)

	endpoint := newTestEndpoint(userID)
	if err := repo.CreateEndpoint(ctx, endpoint); err != nil {
		t.Fatalf("CreateEndpoint failed: %v", err)
	}

	publisher := NewPublisher(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	product := &model.Product{
		ID:      testutil.UniqueID("product"),
		Title:   "Test Product",
		OwnerID: userID,
		LPrice:  9000,
		MyPrice: 10000,
	}

	// The same price point publishes exactly one delivery.
	if err := publisher.PublishPriceReached(ctx, product); err != nil {
		t.Fatalf("PublishPriceReached failed: %v", err)
	}
	if err := publisher.PublishPriceReached(ctx, product); err != nil {
		t.Fatalf("PublishPriceReached (repeat) failed: %v", err)
	}

	deliveries, err := repo.ListDeliveriesByEndpoint(ctx, endpoint.ID, 10)
	if err != nil {
		t.Fatalf("ListDeliveriesByEndpoint failed: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}

	// A new price point is a new event.
	product.LPrice = 8500
	if err := publisher.PublishPriceReached(ctx, product); err != nil {
		t.Fatalf("PublishPriceReached (new price) failed: %v", err)
	}
	deliveries, err = repo.ListDeliveriesByEndpoint(ctx, endpoint.ID, 10)
	if err != nil {
		t.Fatalf("ListDeliveriesByEndpoint failed: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
}

func TestIntegrationAlertRepository_DeliveryRetryFlow(t *testing.T) {
	ctx, repo, userID := newAlertTestEnv(t)

	endpoint := newTestEndpoint(userID)
	if err := repo.CreateEndpoint(ctx, endpoint); err != nil {
		t.Fatalf("CreateEndpoint failed: %v", err)
	}

	delivery := &model.AlertDelivery{
		ID:          testutil.UniqueID("delivery"),
		EndpointID:  endpoint.ID,
		EventID:     testutil.UniqueID("event"),
		EventType:   model.EventTypePriceReached,
		PayloadJSON: `{"event_type":"price.reached"}`,
		Status:      model.DeliveryStatusPending,
		MaxAttempts: DefaultMaxAttempts,
		NextRetryAt: time.Now().Add(-time.Minute),
	}
	if err := repo.CreateDelivery(ctx, delivery); err != nil {
		t.Fatalf("CreateDelivery failed: %v", err)
	}

	pending, err := repo.GetPendingDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingDeliveries failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending delivery, got %d", len(pending))
	}

	status := 502
	if err := repo.UpdateDeliveryFailure(ctx, delivery.ID, &status, "bad gateway", time.Now().Add(time.Hour), false); err != nil {
		t.Fatalf("UpdateDeliveryFailure failed: %v", err)
	}

	// Not due yet after the failure pushed next_retry_at out.
	pending, err = repo.GetPendingDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingDeliveries failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no due deliveries, got %d", len(pending))
	}

	if err := repo.UpdateDeliverySuccess(ctx, delivery.ID, 200); err != nil {
		t.Fatalf("UpdateDeliverySuccess failed: %v", err)
	}

	// Updates against an unknown delivery report the missing row.
	if err := repo.UpdateDeliverySuccess(ctx, "no-such-delivery", 200); !errors.Is(err, ErrDeliveryNotFound) {
		t.Errorf("expected ErrDeliveryNotFound, got %v", err)
	}
	if err := repo.UpdateDeliveryFailure(ctx, "no-such-delivery", nil, "x", time.Now(), false); !errors.Is(err, ErrDeliveryNotFound) {
		t.Errorf("expected ErrDeliveryNotFound, got %v", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newTestEndpoint(userID string) *model.AlertEndpoint {
	now := time.Now().UTC()
	return &model.AlertEndpoint{
		ID:         testutil.UniqueID("endpoint"),
		UserID:     userID,
		TargetURL:  "https://hooks.example.com/alerts",
		SecretHash: HashSecret("test-secret"),
		Enabled:    true,
		EventTypes: []model.EventType{model.EventTypePriceReached},
		Name:       "test endpoint",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func newAlertTestEnv(t *testing.T) (context.Context, *Repository, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetDatabase(ctx, pool); err != nil {
		t.Fatalf("reset database: %v", err)
	}

	userID := testutil.UniqueID("user")
	_, err = pool.Exec(ctx,
		"INSERT INTO users (id, username, password_hash, role) VALUES ($1, $2, 'x', 'USER')",
		userID, "alertuser"+userID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return ctx, NewRepository(db), userID
}
