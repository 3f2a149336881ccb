package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/shopwatch/shopwatch/internal/alert"
	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/handler/dto"
	"github.com/shopwatch/shopwatch/internal/model"
)

const deliveryListLimit = 50

// AlertHandler handles HTTP requests for alert endpoint management.
type AlertHandler struct {
	repo   *alert.Repository
	logger *slog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(repo *alert.Repository, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /api/v1/alerts.
// The plaintext secret is returned exactly once.
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAlertEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := alert.ValidateTargetURL(req.TargetURL); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_TARGET_URL", err.Error())
		return
	}

	eventTypes, ok := parseEventTypes(req.EventTypes)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", "Unknown event type")
		return
	}

	secret, err := alert.GenerateSecret()
	if err != nil {
		h.logger.Error("secret generation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	user := auth.MustAuthFromContext(r.Context())
	now := time.Now().UTC()
	endpoint := &model.AlertEndpoint{
		ID:         ulid.Make().String(),
		UserID:     user.UserID,
		TargetURL:  req.TargetURL,
		SecretHash: alert.HashSecret(secret),
		Enabled:    true,
		EventTypes: eventTypes,
		Name:       req.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.repo.CreateEndpoint(r.Context(), endpoint); err != nil {
		h.logger.Error("create endpoint failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("alert_endpoint_created",
		"endpoint_id", endpoint.ID,
		"user_id", user.UserID,
		"target_host", alert.ExtractHost(endpoint.TargetURL),
	)

	writeJSON(w, http.StatusCreated, dto.ToAlertEndpointResponse(endpoint, secret))
}

// List handles GET /api/v1/alerts.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	endpoints, err := h.repo.ListEndpointsByUser(r.Context(), user.UserID)
	if err != nil {
		h.logger.Error("list endpoints failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	responses := make([]dto.AlertEndpointResponse, len(endpoints))
	for i, endpoint := range endpoints {
		responses[i] = *dto.ToAlertEndpointResponse(endpoint, "")
	}
	writeJSON(w, http.StatusOK, responses)
}

// Update handles PATCH /api/v1/alerts/{id}.
func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	endpoint := h.ownedEndpoint(w, r)
	if endpoint == nil {
		return
	}

	var req dto.UpdateAlertEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.TargetURL != nil {
		if err := alert.ValidateTargetURL(*req.TargetURL); err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_TARGET_URL", err.Error())
			return
		}
		endpoint.TargetURL = *req.TargetURL
	}
	if req.Enabled != nil {
		endpoint.Enabled = *req.Enabled
	}
	if req.Name != nil {
		endpoint.Name = *req.Name
	}
	if len(req.EventTypes) > 0 {
		eventTypes, ok := parseEventTypes(req.EventTypes)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE", "Unknown event type")
			return
		}
		endpoint.EventTypes = eventTypes
	}

	if err := h.repo.UpdateEndpoint(r.Context(), endpoint); err != nil {
		h.handleRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAlertEndpointResponse(endpoint, ""))
}

// RotateSecret handles POST /api/v1/alerts/{id}/rotate.
func (h *AlertHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	endpoint := h.ownedEndpoint(w, r)
	if endpoint == nil {
		return
	}

	secret, err := alert.GenerateSecret()
	if err != nil {
		h.logger.Error("secret generation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if err := h.repo.RotateEndpointSecret(r.Context(), endpoint.ID, alert.HashSecret(secret)); err != nil {
		h.handleRepoError(w, err)
		return
	}

	h.logger.Info("alert_secret_rotated", "endpoint_id", endpoint.ID)

	writeJSON(w, http.StatusOK, dto.ToAlertEndpointResponse(endpoint, secret))
}

// Delete handles DELETE /api/v1/alerts/{id}.
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	endpoint := h.ownedEndpoint(w, r)
	if endpoint == nil {
		return
	}

	if err := h.repo.DeleteEndpoint(r.Context(), endpoint.ID); err != nil {
		h.handleRepoError(w, err)
		return
	}

	h.logger.Info("alert_endpoint_deleted", "endpoint_id", endpoint.ID)

	w.WriteHeader(http.StatusNoContent)
}

// ListDeliveries handles GET /api/v1/alerts/{id}/deliveries.
func (h *AlertHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	endpoint := h.ownedEndpoint(w, r)
	if endpoint == nil {
		return
	}

	deliveries, err := h.repo.ListDeliveriesByEndpoint(r.Context(), endpoint.ID, deliveryListLimit)
	if err != nil {
		h.logger.Error("list deliveries failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	responses := make([]dto.AlertDeliveryResponse, len(deliveries))
	for i, delivery := range deliveries {
		responses[i] = *dto.ToAlertDeliveryResponse(delivery)
	}
	writeJSON(w, http.StatusOK, responses)
}

// ownedEndpoint loads the endpoint from the URL parameter and verifies
// the caller owns it. Writes the error response and returns nil on any
// failure.
func (h *AlertHandler) ownedEndpoint(w http.ResponseWriter, r *http.Request) *model.AlertEndpoint {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Endpoint ID is required")
		return nil
	}

	endpoint, err := h.repo.GetEndpoint(r.Context(), id)
	if err != nil {
		h.handleRepoError(w, err)
		return nil
	}

	user := auth.MustAuthFromContext(r.Context())
	if endpoint.UserID != user.UserID && !user.Role.IsAdmin() {
		// 404 rather than 403 to avoid leaking endpoint existence
		h.writeError(w, http.StatusNotFound, "ENDPOINT_NOT_FOUND", "Alert endpoint not found")
		return nil
	}

	return endpoint
}

func parseEventTypes(raw []string) ([]model.EventType, bool) {
	if len(raw) == 0 {
		return []model.EventType{model.EventTypePriceReached}, true
	}
	out := make([]model.EventType, len(raw))
	for i, s := range raw {
		et := model.EventType(s)
		if !model.IsValidEventType(et) {
			return nil, false
		}
		out[i] = et
	}
	return out, true
}

// handleRepoError maps repository errors to HTTP responses.
func (h *AlertHandler) handleRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, alert.ErrEndpointNotFound) {
		h.writeError(w, http.StatusNotFound, "ENDPOINT_NOT_FOUND", "Alert endpoint not found")
		return
	}
	h.logger.Error("internal_error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

// writeError writes an error response.
func (h *AlertHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
