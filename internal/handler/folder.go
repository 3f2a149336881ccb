package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/handler/dto"
	"github.com/shopwatch/shopwatch/internal/service"
)

// FolderHandler handles HTTP requests for folder operations.
type FolderHandler struct {
	svc    *service.FolderService
	logger *slog.Logger
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(svc *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/folders.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFoldersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if len(req.Names) == 0 {
		h.writeError(w, http.StatusBadRequest, "MISSING_NAMES", "At least one folder name is required")
		return
	}

	user := auth.MustAuthFromContext(r.Context())

	created, err := h.svc.CreateFolders(r.Context(), req.Names, user)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("folders_created",
		"user_id", user.UserID,
		"count", len(created),
	)

	writeJSON(w, http.StatusCreated, dto.ToFolderListResponse(created))
}

// List handles GET /api/v1/folders.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())

	folders, err := h.svc.ListFolders(r.Context(), user)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToFolderListResponse(folders))
}

// handleServiceError maps service errors to HTTP responses.
func (h *FolderHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFolderName):
		h.writeError(w, http.StatusBadRequest, "INVALID_FOLDER_NAME", "Folder names must be non-blank and at most 100 characters")
	case errors.Is(err, service.ErrFolderExists):
		h.writeError(w, http.StatusConflict, "FOLDER_EXISTS", "Folder name already exists")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *FolderHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
