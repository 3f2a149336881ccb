package model

// Pagination bounds enforced on every listing call.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest carries offset pagination and sorting parameters.
// Page is zero-based.
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Ascending bool
}

// Normalize clamps the request into valid bounds and returns the result.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 || p.Size > MaxPageSize {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset returns the row offset for the request.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// ProductPage is one page of products plus page metadata.
type ProductPage struct {
	Items      []*Product `json:"items"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalPages int        `json:"total_pages"`
}

// NewProductPage builds a page, computing TotalPages from the total count.
// An out-of-range page yields an empty Items slice with correct metadata.
func NewProductPage(items []*Product, total int64, req PageRequest) *ProductPage {
	if items == nil {
		items = []*Product{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &ProductPage{
		Items:      items,
		TotalCount: total,
		Page:       req.Page,
		Size:       req.Size,
		TotalPages: totalPages,
	}
}
