// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/shopwatch/shopwatch/internal/model"
)

// CreateProductRequest represents the request body for registering a
// product.
type CreateProductRequest struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Image  string `json:"image,omitempty"`
	LPrice int64  `json:"lprice"`
}

// UpdateMyPriceRequest represents the request body for setting a
// target price.
type UpdateMyPriceRequest struct {
	MyPrice int64 `json:"myprice"`
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Link      string           `json:"link"`
	Image     string           `json:"image,omitempty"`
	LPrice    int64            `json:"lprice"`
	MyPrice   int64            `json:"myprice"`
	Folders   []FolderResponse `json:"folders,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProductPageResponse represents a page of products.
type ProductPageResponse struct {
	Content    []ProductResponse `json:"content"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToProductResponse converts a Product model to ProductResponse DTO.
// folders may be nil when folder projection is not requested.
func ToProductResponse(product *model.Product, folders []*model.Folder) *ProductResponse {
	resp := &ProductResponse{
		ID:        product.ID,
		Title:     product.Title,
		Link:      product.Link,
		Image:     product.Image,
		LPrice:    product.LPrice,
		MyPrice:   product.MyPrice,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
	for _, f := range folders {
		resp.Folders = append(resp.Folders, *ToFolderResponse(f))
	}
	return resp
}

// ToProductPageResponse converts a ProductPage to its DTO, attaching
// each product's folders from the projection map.
func ToProductPageResponse(page *model.ProductPage, foldersByProduct map[string][]*model.Folder) *ProductPageResponse {
	content := make([]ProductResponse, len(page.Items))
	for i, product := range page.Items {
		content[i] = *ToProductResponse(product, foldersByProduct[product.ID])
	}
	return &ProductPageResponse{
		Content:    content,
		Page:       page.Page,
		Size:       page.Size,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
}
