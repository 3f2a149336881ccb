package model

import (
	"slices"
	"time"
)

// EventType represents price-alert event types.
type EventType string

const (
	// EventTypePriceReached fires when a catalog sync brings a product's
	// listed price at or below the owner's target price.
	EventTypePriceReached EventType = "price.reached"
)

// ValidEventTypes contains all valid event types.
var ValidEventTypes = []EventType{EventTypePriceReached}

// IsValidEventType checks if an event type is valid.
func IsValidEventType(et EventType) bool {
	return slices.Contains(ValidEventTypes, et)
}

// DeliveryStatus represents alert delivery state.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSuccess   DeliveryStatus = "success"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusExhausted DeliveryStatus = "exhausted"
)

// AlertEndpoint is a user-registered webhook target for price alerts.
type AlertEndpoint struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	TargetURL  string      `json:"target_url"`
	SecretHash string      `json:"-"` // Never expose
	Enabled    bool        `json:"enabled"`
	EventTypes []EventType `json:"event_types"`
	Name       string      `json:"name,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	DeletedAt  *time.Time  `json:"-"`
}

// IsActive returns true if the endpoint can receive alerts.
func (e *AlertEndpoint) IsActive() bool {
	return e.Enabled && e.DeletedAt == nil
}

// SubscribesToEvent checks if the endpoint subscribes to an event type.
func (e *AlertEndpoint) SubscribesToEvent(et EventType) bool {
	return slices.Contains(e.EventTypes, et)
}

// AlertDelivery is one delivery attempt record for an alert event.
type AlertDelivery struct {
	ID             string         `json:"id"`
	EndpointID     string         `json:"endpoint_id"`
	EventID        string         `json:"event_id"`
	EventType      EventType      `json:"event_type"`
	PayloadJSON    string         `json:"-"`
	Status         DeliveryStatus `json:"status"`
	AttemptCount   int            `json:"attempt_count"`
	MaxAttempts    int            `json:"max_attempts"`
	NextRetryAt    time.Time      `json:"next_retry_at,omitempty"`
	LastAttemptAt  *time.Time     `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int           `json:"last_http_status,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsTerminal returns true if the delivery is in a terminal state.
func (d *AlertDelivery) IsTerminal() bool {
	return d.Status == DeliveryStatusSuccess || d.Status == DeliveryStatusExhausted
}

// AlertPayload is the JSON body sent to alert endpoints.
type AlertPayload struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}
