package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shopwatch/shopwatch/internal/model"
)

// Common errors for folder repository operations.
var (
	ErrFolderNotFound   = errors.New("folder not found")
	ErrFolderNameExists = errors.New("folder name already exists")
)

// CreateFolder inserts a new folder into the database.
// Folder names are unique per owner.
func (r *Repository) CreateFolder(ctx context.Context, folder *model.Folder) error {
	query := `
		INSERT INTO folders (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		folder.ID,
		folder.Name,
		folder.OwnerID,
		folder.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFolderNameExists
		}
		return fmt.Errorf("failed to create folder: %w", err)
	}

	return nil
}

// GetFolderByID retrieves a folder by its ID.
func (r *Repository) GetFolderByID(ctx context.Context, id string) (*model.Folder, error) {
	query := `SELECT id, name, owner_id, created_at FROM folders WHERE id = $1`

	var folder model.Folder
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&folder.ID,
		&folder.Name,
		&folder.OwnerID,
		&folder.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder by ID: %w", err)
	}

	return &folder, nil
}

// ListFoldersByOwner retrieves all folders a user owns, newest first.
func (r *Repository) ListFoldersByOwner(ctx context.Context, ownerID string) ([]*model.Folder, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM folders
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders by owner: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// ListFoldersForProducts fetches the folders linked to each of the given
// products in one query. The result maps product ID to its folders.
func (r *Repository) ListFoldersForProducts(ctx context.Context, productIDs []string) (map[string][]*model.Folder, error) {
	result := make(map[string][]*model.Folder, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT pf.product_id, f.id, f.name, f.owner_id, f.created_at
		FROM product_folders pf
		JOIN folders f ON f.id = pf.folder_id
		WHERE pf.product_id = ANY($1)
		ORDER BY f.created_at
	`

	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders for products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var folder model.Folder
		if err := rows.Scan(&productID, &folder.ID, &folder.Name, &folder.OwnerID, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product folder: %w", err)
		}
		result[productID] = append(result[productID], &folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product folders: %w", err)
	}

	return result, nil
}

// collectFolders drains rows into Folder models.
func collectFolders(rows pgx.Rows) ([]*model.Folder, error) {
	var folders []*model.Folder
	for rows.Next() {
		var folder model.Folder
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.OwnerID, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, &folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}

	return folders, nil
}
