package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopwatch/shopwatch/internal/handler/dto"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/repository"
)

// AdminUserSearcher defines the interface for user lookup operations.
type AdminUserSearcher interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// AdminHandler provides admin-only endpoints for debugging and operations.
type AdminHandler struct {
	userRepo AdminUserSearcher
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userRepo AdminUserSearcher, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// UserLookupResponse represents the response for user lookup.
type UserLookupResponse struct {
	Users []dto.UserResponse `json:"users"`
	Total int                `json:"total"`
}

// LookupUsers handles GET /api/v1/admin/users?q={username|id}
// Searches by username (exact match), then by user ID.
func (h *AdminHandler) LookupUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter 'q' is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var users []*model.User

	if user, err := h.userRepo.GetUserByUsername(ctx, query); err == nil {
		users = append(users, user)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		h.logger.Error("user lookup by username failed",
			slog.String("error", err.Error()),
		)
	}

	if len(users) == 0 {
		if user, err := h.userRepo.GetUserByID(ctx, query); err == nil {
			users = append(users, user)
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			h.logger.Error("user lookup by id failed",
				slog.String("error", err.Error()),
			)
		}
	}

	response := UserLookupResponse{
		Users: make([]dto.UserResponse, 0, len(users)),
		Total: len(users),
	}
	for _, user := range users {
		response.Users = append(response.Users, *dto.ToUserResponse(user))
	}

	writeJSON(w, http.StatusOK, response)
}

// StatsResponse represents operational statistics.
type StatsResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// Stats handles GET /api/v1/admin/stats
// Returns basic operational statistics.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{
		Timestamp: time.Now().UTC(),
		Service:   "shopwatch",
		Version:   "0.1.0",
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
