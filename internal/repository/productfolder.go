package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shopwatch/shopwatch/internal/model"
)

// Common errors for product-folder link operations.
var (
	ErrLinkNotFound  = errors.New("product folder link not found")
	ErrDuplicateLink = errors.New("product folder link already exists")
)

// GetProductFolder retrieves the link for a (product, folder) pair.
func (r *Repository) GetProductFolder(ctx context.Context, productID, folderID string) (*model.ProductFolder, error) {
	query := `
		SELECT id, product_id, folder_id, created_at
		FROM product_folders
		WHERE product_id = $1 AND folder_id = $2
	`

	var link model.ProductFolder
	err := r.pool.QueryRow(ctx, query, productID, folderID).Scan(
		&link.ID,
		&link.ProductID,
		&link.FolderID,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get product folder link: %w", err)
	}

	return &link, nil
}

// CreateProductFolder inserts a link between a product and a folder.
// The unique constraint on (product_id, folder_id) is the backstop for
// concurrent association attempts on the same pair.
func (r *Repository) CreateProductFolder(ctx context.Context, link *model.ProductFolder) error {
	query := `
		INSERT INTO product_folders (id, product_id, folder_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		link.ID,
		link.ProductID,
		link.FolderID,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLink
		}
		return fmt.Errorf("failed to create product folder link: %w", err)
	}

	return nil
}
