package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/shopwatch/shopwatch/internal/model"
)

var (
	ErrEndpointNotFound = errors.New("alert endpoint not found")
	ErrDeliveryNotFound = errors.New("alert delivery not found")
)

// Repository handles alert endpoint and delivery persistence. It runs
// over database/sql so delivery polling can use SKIP LOCKED row
// claiming independent of the main pgx pool.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new alert repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateEndpoint creates a new alert endpoint.
func (r *Repository) CreateEndpoint(ctx context.Context, endpoint *model.AlertEndpoint) error {
	query := `
		INSERT INTO alert_endpoints (
			id, user_id, target_url, secret_hash, enabled,
			event_types, name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		endpoint.ID,
		endpoint.UserID,
		endpoint.TargetURL,
		endpoint.SecretHash,
		endpoint.Enabled,
		pq.Array(eventTypeStrings(endpoint.EventTypes)),
		endpoint.Name,
		endpoint.CreatedAt,
		endpoint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert endpoint: %w", err)
	}
	return nil
}

// GetEndpoint retrieves an alert endpoint by ID.
func (r *Repository) GetEndpoint(ctx context.Context, id string) (*model.AlertEndpoint, error) {
	query := `
		SELECT id, user_id, target_url, secret_hash, enabled, event_types,
		       name, created_at, updated_at, deleted_at
		FROM alert_endpoints
		WHERE id = $1 AND deleted_at IS NULL
	`

	var endpoint model.AlertEndpoint
	var eventTypes []string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&endpoint.ID,
		&endpoint.UserID,
		&endpoint.TargetURL,
		&endpoint.SecretHash,
		&endpoint.Enabled,
		pq.Array(&eventTypes),
		&endpoint.Name,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
		&endpoint.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEndpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query alert endpoint: %w", err)
	}

	endpoint.EventTypes = parseEventTypes(eventTypes)
	return &endpoint, nil
}

// ListEndpointsByUser retrieves all alert endpoints for a user.
func (r *Repository) ListEndpointsByUser(ctx context.Context, userID string) ([]*model.AlertEndpoint, error) {
	query := `
		SELECT id, user_id, target_url, secret_hash, enabled, event_types,
		       name, created_at, updated_at
		FROM alert_endpoints
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query alerts by user: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// ListActiveEndpointsByUserAndEvent retrieves enabled endpoints
// subscribed to an event type, for fan-out.
func (r *Repository) ListActiveEndpointsByUserAndEvent(ctx context.Context, userID string, eventType model.EventType) ([]*model.AlertEndpoint, error) {
	query := `
		SELECT id, user_id, target_url, secret_hash, enabled, event_types,
		       name, created_at, updated_at
		FROM alert_endpoints
		WHERE user_id = $1
		  AND deleted_at IS NULL
		  AND enabled = true
		  AND $2 = ANY(event_types)
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("query active alert endpoints: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// UpdateEndpoint updates an alert endpoint.
func (r *Repository) UpdateEndpoint(ctx context.Context, endpoint *model.AlertEndpoint) error {
	query := `
		UPDATE alert_endpoints
		SET target_url = $2, enabled = $3, event_types = $4,
		    name = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		endpoint.ID,
		endpoint.TargetURL,
		endpoint.Enabled,
		pq.Array(eventTypeStrings(endpoint.EventTypes)),
		endpoint.Name,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update alert endpoint: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

// RotateEndpointSecret updates the secret hash for an endpoint.
func (r *Repository) RotateEndpointSecret(ctx context.Context, id, secretHash string) error {
	query := `
		UPDATE alert_endpoints
		SET secret_hash = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, secretHash, time.Now())
	if err != nil {
		return fmt.Errorf("rotate endpoint secret: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

// DeleteEndpoint soft-deletes an alert endpoint.
func (r *Repository) DeleteEndpoint(ctx context.Context, id string) error {
	query := `
		UPDATE alert_endpoints
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("delete alert endpoint: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

// CreateDelivery creates a new delivery record. Duplicate
// event/endpoint pairs are ignored for idempotency.
func (r *Repository) CreateDelivery(ctx context.Context, delivery *model.AlertDelivery) error {
	query := `
		INSERT INTO alert_deliveries (
			id, endpoint_id, event_id, event_type, payload_json,
			status, attempt_count, max_attempts, next_retry_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id, endpoint_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		delivery.ID,
		delivery.EndpointID,
		delivery.EventID,
		string(delivery.EventType),
		delivery.PayloadJSON,
		string(delivery.Status),
		delivery.AttemptCount,
		delivery.MaxAttempts,
		delivery.NextRetryAt,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert delivery: %w", err)
	}
	return nil
}

// GetPendingDeliveries retrieves deliveries ready to be sent.
func (r *Repository) GetPendingDeliveries(ctx context.Context, limit int) ([]*model.AlertDelivery, error) {
	query := `
		SELECT d.id, d.endpoint_id, d.event_id, d.event_type, d.payload_json,
		       d.status, d.attempt_count, d.max_attempts, d.next_retry_at,
		       d.last_attempt_at, d.last_http_status, d.last_error,
		       d.created_at, d.updated_at
		FROM alert_deliveries d
		JOIN alert_endpoints e ON d.endpoint_id = e.id
		WHERE d.status IN ('pending', 'failed')
		  AND d.next_retry_at <= $1
		  AND e.deleted_at IS NULL
		  AND e.enabled = true
		ORDER BY d.next_retry_at
		LIMIT $2
		FOR UPDATE OF d SKIP LOCKED
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// UpdateDeliverySuccess marks a delivery as successful.
func (r *Repository) UpdateDeliverySuccess(ctx context.Context, id string, httpStatus int) error {
	query := `
		UPDATE alert_deliveries
		SET status = 'success',
		    attempt_count = attempt_count + 1,
		    last_attempt_at = $2,
		    last_http_status = $3,
		    last_error = NULL,
		    updated_at = $2
		WHERE id = $1
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, id, now, httpStatus)
	if err != nil {
		return fmt.Errorf("update delivery success: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// UpdateDeliveryFailure marks a delivery as failed and schedules the
// next retry, or as exhausted if the attempt budget is spent.
func (r *Repository) UpdateDeliveryFailure(ctx context.Context, id string, httpStatus *int, errMsg string, nextRetryAt time.Time, exhausted bool) error {
	status := "failed"
	if exhausted {
		status = "exhausted"
	}

	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}

	query := `
		UPDATE alert_deliveries
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    last_attempt_at = $3,
		    last_http_status = $4,
		    last_error = $5,
		    next_retry_at = $6,
		    updated_at = $3
		WHERE id = $1
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, id, status, now, httpStatus, errMsg, nextRetryAt)
	if err != nil {
		return fmt.Errorf("update delivery failure: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// ListDeliveriesByEndpoint retrieves recent deliveries for an endpoint.
func (r *Repository) ListDeliveriesByEndpoint(ctx context.Context, endpointID string, limit int) ([]*model.AlertDelivery, error) {
	query := `
		SELECT id, endpoint_id, event_id, event_type, payload_json,
		       status, attempt_count, max_attempts, next_retry_at,
		       last_attempt_at, last_http_status, last_error,
		       created_at, updated_at
		FROM alert_deliveries
		WHERE endpoint_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, endpointID, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// GetQueueDepth returns the count of pending and failed deliveries.
func (r *Repository) GetQueueDepth(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM alert_deliveries
		WHERE status IN ('pending', 'failed')
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue depth: %w", err)
	}
	return count, nil
}

func scanEndpoints(rows *sql.Rows) ([]*model.AlertEndpoint, error) {
	var endpoints []*model.AlertEndpoint
	for rows.Next() {
		var endpoint model.AlertEndpoint
		var eventTypes []string

		if err := rows.Scan(
			&endpoint.ID,
			&endpoint.UserID,
			&endpoint.TargetURL,
			&endpoint.SecretHash,
			&endpoint.Enabled,
			pq.Array(&eventTypes),
			&endpoint.Name,
			&endpoint.CreatedAt,
			&endpoint.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert endpoint: %w", err)
		}

		endpoint.EventTypes = parseEventTypes(eventTypes)
		endpoints = append(endpoints, &endpoint)
	}
	return endpoints, rows.Err()
}

func scanDeliveries(rows *sql.Rows) ([]*model.AlertDelivery, error) {
	var deliveries []*model.AlertDelivery
	for rows.Next() {
		var d model.AlertDelivery
		var eventType, status string
		var lastError sql.NullString

		if err := rows.Scan(
			&d.ID,
			&d.EndpointID,
			&d.EventID,
			&eventType,
			&d.PayloadJSON,
			&status,
			&d.AttemptCount,
			&d.MaxAttempts,
			&d.NextRetryAt,
			&d.LastAttemptAt,
			&d.LastHTTPStatus,
			&lastError,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}

		d.EventType = model.EventType(eventType)
		d.Status = model.DeliveryStatus(status)
		d.LastError = lastError.String
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}

func eventTypeStrings(types []model.EventType) []string {
	out := make([]string, len(types))
	for i, et := range types {
		out[i] = string(et)
	}
	return out
}

func parseEventTypes(types []string) []model.EventType {
	out := make([]model.EventType, len(types))
	for i, et := range types {
		out[i] = model.EventType(et)
	}
	return out
}
