package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopwatch/shopwatch/internal/handler/dto"
	"github.com/shopwatch/shopwatch/internal/service"
)

// UserHandler handles signup, login and logout.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Signup handles POST /api/v1/auth/signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.SignupInput{
		Username:   req.Username,
		Password:   req.Password,
		Admin:      req.Admin,
		AdminToken: req.AdminToken,
	}

	user, err := h.svc.Signup(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_signed_up",
		"user_id", user.ID,
		"role", string(user.Role),
	)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/v1/auth/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  *dto.ToUserResponse(user),
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUsername):
		h.writeError(w, http.StatusBadRequest, "INVALID_USERNAME", "Username must be 4-10 lowercase letters and digits")
	case errors.Is(err, service.ErrInvalidPassword):
		h.writeError(w, http.StatusBadRequest, "INVALID_PASSWORD", "Password must be 8-15 letters and digits")
	case errors.Is(err, service.ErrInvalidAdminToken):
		h.writeError(w, http.StatusForbidden, "INVALID_ADMIN_TOKEN", "Admin token is not valid")
	case errors.Is(err, service.ErrUsernameTaken):
		h.writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, service.ErrLoginFailed):
		// Same message for unknown user and wrong password
		h.writeError(w, http.StatusUnauthorized, "LOGIN_FAILED", "Invalid username or password")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *UserHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
