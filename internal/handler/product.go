package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/handler/dto"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/service"
)

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	svc    *service.ProductService
	logger *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Link) == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Title and link are required")
		return
	}

	user := auth.MustAuthFromContext(r.Context())

	input := service.CreateProductInput{
		Title:  req.Title,
		Link:   req.Link,
		Image:  req.Image,
		LPrice: req.LPrice,
	}

	product, err := h.svc.CreateProduct(r.Context(), input, user)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("product_created",
		"product_id", product.ID,
		"user_id", user.UserID,
	)

	writeJSON(w, http.StatusCreated, dto.ToProductResponse(product, nil))
}

// UpdateMyPrice handles PATCH /api/v1/products/{id}/myprice.
func (h *ProductHandler) UpdateMyPrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Product ID is required")
		return
	}

	var req dto.UpdateMyPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	product, err := h.svc.UpdateMyPrice(r.Context(), id, req.MyPrice)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("myprice_updated",
		"product_id", product.ID,
		"myprice", product.MyPrice,
	)

	writeJSON(w, http.StatusOK, dto.ToProductResponse(product, nil))
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustAuthFromContext(r.Context())
	req := parsePageRequest(r)

	page, err := h.svc.ListProducts(r.Context(), user, req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writePage(w, r, page)
}

// ListInFolder handles GET /api/v1/folders/{folderID}/products.
func (h *ProductHandler) ListInFolder(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")
	if folderID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Folder ID is required")
		return
	}

	user := auth.MustAuthFromContext(r.Context())
	req := parsePageRequest(r)

	page, err := h.svc.ListProductsInFolder(r.Context(), folderID, req, user)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writePage(w, r, page)
}

// AddToFolder handles POST /api/v1/products/{id}/folders/{folderID}.
func (h *ProductHandler) AddToFolder(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	folderID := chi.URLParam(r, "folderID")
	if productID == "" || folderID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Product and folder IDs are required")
		return
	}

	user := auth.MustAuthFromContext(r.Context())

	if err := h.svc.AddProductToFolder(r.Context(), productID, folderID, user); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("product_added_to_folder",
		"product_id", productID,
		"folder_id", folderID,
		"user_id", user.UserID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// writePage enriches a product page with folder projections and
// writes it.
func (h *ProductHandler) writePage(w http.ResponseWriter, r *http.Request, page *model.ProductPage) {
	folders, err := h.svc.FoldersForProducts(r.Context(), page.Items)
	if err != nil {
		h.logger.Warn("folder projection failed", "error", err)
		folders = nil
	}

	writeJSON(w, http.StatusOK, dto.ToProductPageResponse(page, folders))
}

// parsePageRequest extracts pagination parameters from the query
// string. Page numbering is zero based.
func parsePageRequest(r *http.Request) model.PageRequest {
	query := r.URL.Query()

	req := model.PageRequest{
		Page:      0,
		Size:      model.DefaultPageSize,
		SortBy:    "id",
		Ascending: true,
	}

	if p := query.Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			req.Page = parsed
		}
	}
	if s := query.Get("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			req.Size = parsed
		}
	}
	if sort := query.Get("sort"); sort != "" {
		req.SortBy = sort
	}
	if asc := query.Get("asc"); asc != "" {
		if parsed, err := strconv.ParseBool(asc); err == nil {
			req.Ascending = parsed
		}
	}

	return req
}

// handleServiceError maps service errors to HTTP responses. Errors
// carrying a resolved user message surface it verbatim.
func (h *ProductHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPriceBelowMinimum):
		h.writeError(w, http.StatusBadRequest, "PRICE_BELOW_MINIMUM", service.UserMessage(err, "Wrong Price"))
	case errors.Is(err, service.ErrProductNotFound):
		h.writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", service.UserMessage(err, "Not Found Product"))
	case errors.Is(err, service.ErrFolderNotFound):
		h.writeError(w, http.StatusNotFound, "FOLDER_NOT_FOUND", "Folder not found")
	case errors.Is(err, service.ErrNotOwned):
		h.writeError(w, http.StatusForbidden, "NOT_OWNED", "Not your product or folder")
	case errors.Is(err, service.ErrDuplicateFolder):
		h.writeError(w, http.StatusConflict, "ALREADY_IN_FOLDER", "Product is already in this folder")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *ProductHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
