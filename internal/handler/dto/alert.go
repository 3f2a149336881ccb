package dto

import (
	"time"

	"github.com/shopwatch/shopwatch/internal/model"
)

// CreateAlertEndpointRequest represents the request body for
// registering an alert endpoint.
type CreateAlertEndpointRequest struct {
	TargetURL  string   `json:"target_url"`
	EventTypes []string `json:"event_types"`
	Name       string   `json:"name,omitempty"`
}

// UpdateAlertEndpointRequest represents the request body for updating
// an alert endpoint.
type UpdateAlertEndpointRequest struct {
	TargetURL  *string  `json:"target_url,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
	Name       *string  `json:"name,omitempty"`
}

// AlertEndpointResponse represents an alert endpoint in API responses.
// Secret is only populated on creation and rotation.
type AlertEndpointResponse struct {
	ID         string    `json:"id"`
	TargetURL  string    `json:"target_url"`
	Enabled    bool      `json:"enabled"`
	EventTypes []string  `json:"event_types"`
	Name       string    `json:"name,omitempty"`
	Secret     string    `json:"secret,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AlertDeliveryResponse represents a delivery attempt in API responses.
type AlertDeliveryResponse struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	EventType      string     `json:"event_type"`
	Status         string     `json:"status"`
	AttemptCount   int        `json:"attempt_count"`
	MaxAttempts    int        `json:"max_attempts"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	LastHTTPStatus *int       `json:"last_http_status,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToAlertEndpointResponse converts an AlertEndpoint to its DTO.
func ToAlertEndpointResponse(endpoint *model.AlertEndpoint, secret string) *AlertEndpointResponse {
	eventTypes := make([]string, len(endpoint.EventTypes))
	for i, et := range endpoint.EventTypes {
		eventTypes[i] = string(et)
	}
	return &AlertEndpointResponse{
		ID:         endpoint.ID,
		TargetURL:  endpoint.TargetURL,
		Enabled:    endpoint.Enabled,
		EventTypes: eventTypes,
		Name:       endpoint.Name,
		Secret:     secret,
		CreatedAt:  endpoint.CreatedAt,
		UpdatedAt:  endpoint.UpdatedAt,
	}
}

// ToAlertDeliveryResponse converts an AlertDelivery to its DTO.
func ToAlertDeliveryResponse(delivery *model.AlertDelivery) *AlertDeliveryResponse {
	return &AlertDeliveryResponse{
		ID:             delivery.ID,
		EventID:        delivery.EventID,
		EventType:      string(delivery.EventType),
		Status:         string(delivery.Status),
		AttemptCount:   delivery.AttemptCount,
		MaxAttempts:    delivery.MaxAttempts,
		LastAttemptAt:  delivery.LastAttemptAt,
		LastHTTPStatus: delivery.LastHTTPStatus,
		LastError:      delivery.LastError,
		CreatedAt:      delivery.CreatedAt,
	}
}
