package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shopwatch/shopwatch/internal/auth"
	"github.com/shopwatch/shopwatch/internal/handler/dto"
	"github.com/shopwatch/shopwatch/internal/i18n"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/repository"
	"github.com/shopwatch/shopwatch/internal/service"
)

// stubStore backs the product service with fixed data for handler tests.
type stubStore struct {
	products map[string]*model.Product
	folders  map[string]*model.Folder
	links    map[string]*model.ProductFolder
}

func newStubStore() *stubStore {
	return &stubStore{
		products: make(map[string]*model.Product),
		folders:  make(map[string]*model.Folder),
		links:    make(map[string]*model.ProductFolder),
	}
}

func (s *stubStore) CreateProduct(_ context.Context, p *model.Product) error {
	s.products[p.ID] = p
	return nil
}

func (s *stubStore) GetProductByID(_ context.Context, id string) (*model.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

func (s *stubStore) ListProductsByOwner(_ context.Context, ownerID string, req model.PageRequest) (*model.ProductPage, error) {
	var items []*model.Product
	for _, p := range s.products {
		if p.OwnerID == ownerID {
			items = append(items, p)
		}
	}
	return model.NewProductPage(items, int64(len(items)), req), nil
}

func (s *stubStore) ListAllProducts(_ context.Context, req model.PageRequest) (*model.ProductPage, error) {
	var items []*model.Product
	for _, p := range s.products {
		items = append(items, p)
	}
	return model.NewProductPage(items, int64(len(items)), req), nil
}

func (s *stubStore) ListProductsInFolder(_ context.Context, ownerID, folderID string, req model.PageRequest) (*model.ProductPage, error) {
	return model.NewProductPage(nil, 0, req), nil
}

func (s *stubStore) UpdateMyPrice(_ context.Context, id string, myprice int64) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p.MyPrice = myprice
	return p, nil
}

func (s *stubStore) UpdateProductCatalog(_ context.Context, id string, item *model.SearchItem) (*model.Product, error) {
	return nil, repository.ErrProductNotFound
}

func (s *stubStore) CreateFolder(_ context.Context, f *model.Folder) error {
	s.folders[f.ID] = f
	return nil
}

func (s *stubStore) GetFolderByID(_ context.Context, id string) (*model.Folder, error) {
	if f, ok := s.folders[id]; ok {
		return f, nil
	}
	return nil, repository.ErrFolderNotFound
}

func (s *stubStore) ListFoldersByOwner(_ context.Context, ownerID string) ([]*model.Folder, error) {
	return nil, nil
}

func (s *stubStore) ListFoldersForProducts(_ context.Context, productIDs []string) (map[string][]*model.Folder, error) {
	return map[string][]*model.Folder{}, nil
}

func (s *stubStore) GetProductFolder(_ context.Context, productID, folderID string) (*model.ProductFolder, error) {
	if l, ok := s.links[productID+"/"+folderID]; ok {
		return l, nil
	}
	return nil, repository.ErrLinkNotFound
}

func (s *stubStore) CreateProductFolder(_ context.Context, link *model.ProductFolder) error {
	s.links[link.ProductID+"/"+link.FolderID] = link
	return nil
}

func newTestProductHandler(store *stubStore) *ProductHandler {
	svc := service.NewProductService(store, store, store, i18n.NewResolver("en"), "en", nil, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProductHandler(svc, logger)
}

func newTestRouter(h *ProductHandler, caller *model.AuthContext) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.ContextWithAuth(req.Context(), caller)))
		})
	})
	r.Post("/api/v1/products", h.Create)
	r.Patch("/api/v1/products/{id}/myprice", h.UpdateMyPrice)
	r.Get("/api/v1/products", h.List)
	r.Post("/api/v1/products/{id}/folders/{folderID}", h.AddToFolder)
	return r
}

func TestProductHandler_CreateValidation(t *testing.T) {
	h := newTestProductHandler(newStubStore())
	router := newTestRouter(h, &model.AuthContext{UserID: "u1", Role: model.RoleUser})

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing_title", `{"link":"https://x.example"}`, http.StatusBadRequest, "MISSING_FIELDS"},
		{"missing_link", `{"title":"Keyboard"}`, http.StatusBadRequest, "MISSING_FIELDS"},
		{"bad_json", `{`, http.StatusBadRequest, "INVALID_JSON"},
		{"valid", `{"title":"Keyboard","link":"https://x.example","lprice":90000}`, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				var resp dto.ErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error: %v", err)
				}
				if resp.Code != tt.wantErr {
					t.Fatalf("error code = %q, want %q", resp.Code, tt.wantErr)
				}
			}
		})
	}
}

func TestProductHandler_UpdateMyPrice(t *testing.T) {
	store := newStubStore()
	store.products["p1"] = &model.Product{ID: "p1", OwnerID: "u1", LPrice: 90000}
	h := newTestProductHandler(store)
	router := newTestRouter(h, &model.AuthContext{UserID: "u1", Role: model.RoleUser})

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{
			name:     "below_minimum",
			path:     "/api/v1/products/p1/myprice",
			body:     `{"myprice":99}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "PRICE_BELOW_MINIMUM",
			wantMsg:  "Invalid target price. Please set it to at least 100.",
		},
		{
			name:     "unknown_product",
			path:     "/api/v1/products/nope/myprice",
			body:     `{"myprice":5000}`,
			wantCode: http.StatusNotFound,
			wantErr:  "PRODUCT_NOT_FOUND",
			wantMsg:  "Product not found.",
		},
		{
			name:     "valid",
			path:     "/api/v1/products/p1/myprice",
			body:     `{"myprice":5000}`,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				var resp dto.ErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error: %v", err)
				}
				if resp.Code != tt.wantErr {
					t.Fatalf("error code = %q, want %q", resp.Code, tt.wantErr)
				}
				if resp.Error != tt.wantMsg {
					t.Fatalf("message = %q, want %q", resp.Error, tt.wantMsg)
				}
			}
		})
	}
}

func TestProductHandler_AddToFolder(t *testing.T) {
	tests := []struct {
		name     string
		seed     func(store *stubStore)
		path     string
		wantCode int
		wantErr  string
	}{
		{
			name: "success",
			seed: func(store *stubStore) {
				store.products["p1"] = &model.Product{ID: "p1", OwnerID: "u1"}
				store.folders["f1"] = &model.Folder{ID: "f1", OwnerID: "u1"}
			},
			path:     "/api/v1/products/p1/folders/f1",
			wantCode: http.StatusNoContent,
		},
		{
			name:     "product_missing",
			seed:     func(store *stubStore) {},
			path:     "/api/v1/products/p1/folders/f1",
			wantCode: http.StatusNotFound,
			wantErr:  "PRODUCT_NOT_FOUND",
		},
		{
			name: "folder_missing",
			seed: func(store *stubStore) {
				store.products["p1"] = &model.Product{ID: "p1", OwnerID: "u1"}
			},
			path:     "/api/v1/products/p1/folders/f1",
			wantCode: http.StatusNotFound,
			wantErr:  "FOLDER_NOT_FOUND",
		},
		{
			name: "not_owned",
			seed: func(store *stubStore) {
				store.products["p1"] = &model.Product{ID: "p1", OwnerID: "u2"}
				store.folders["f1"] = &model.Folder{ID: "f1", OwnerID: "u1"}
			},
			path:     "/api/v1/products/p1/folders/f1",
			wantCode: http.StatusForbidden,
			wantErr:  "NOT_OWNED",
		},
		{
			name: "duplicate",
			seed: func(store *stubStore) {
				store.products["p1"] = &model.Product{ID: "p1", OwnerID: "u1"}
				store.folders["f1"] = &model.Folder{ID: "f1", OwnerID: "u1"}
				store.links["p1/f1"] = &model.ProductFolder{ID: "l1", ProductID: "p1", FolderID: "f1"}
			},
			path:     "/api/v1/products/p1/folders/f1",
			wantCode: http.StatusConflict,
			wantErr:  "ALREADY_IN_FOLDER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStore()
			tt.seed(store)
			h := newTestProductHandler(store)
			router := newTestRouter(h, &model.AuthContext{UserID: "u1", Role: model.RoleUser})

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				var resp dto.ErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error: %v", err)
				}
				if resp.Code != tt.wantErr {
					t.Fatalf("error code = %q, want %q", resp.Code, tt.wantErr)
				}
			}
		})
	}
}

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  model.PageRequest
	}{
		{
			name:  "defaults",
			query: "",
			want:  model.PageRequest{Page: 0, Size: model.DefaultPageSize, SortBy: "id", Ascending: true},
		},
		{
			name:  "all_params",
			query: "?page=2&size=25&sort=lprice&asc=false",
			want:  model.PageRequest{Page: 2, Size: 25, SortBy: "lprice", Ascending: false},
		},
		{
			name:  "garbage_ignored",
			query: "?page=abc&size=xyz&asc=maybe",
			want:  model.PageRequest{Page: 0, Size: model.DefaultPageSize, SortBy: "id", Ascending: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products"+tt.query, nil)
			if got := parsePageRequest(req); got != tt.want {
				t.Fatalf("parsePageRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
