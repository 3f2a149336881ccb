package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shopwatch/shopwatch/internal/model"
)

// Common errors for product repository operations.
var (
	ErrProductNotFound = errors.New("product not found")
)

// productColumns is the select list shared by all product queries.
const productColumns = "id, title, link, image, lprice, myprice, owner_id, created_at, updated_at"

// sortColumns whitelists sortable fields against their DB columns.
// Anything outside this map falls back to id ordering.
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"lprice":     "lprice",
	"myprice":    "myprice",
	"created_at": "created_at",
}

// orderClause builds a deterministic ORDER BY for a page request.
// The id tiebreaker keeps pagination stable for equal sort values.
func orderClause(req model.PageRequest) string {
	column, ok := sortColumns[req.SortBy]
	if !ok {
		column = "id"
	}

	direction := "DESC"
	if req.Ascending {
		direction = "ASC"
	}

	if column == "id" {
		return fmt.Sprintf(" ORDER BY id %s", direction)
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

// CreateProduct inserts a new product into the database.
func (r *Repository) CreateProduct(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, title, link, image, lprice, myprice, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.Title,
		product.Link,
		product.Image,
		product.LPrice,
		product.MyPrice,
		product.OwnerID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetProductByID retrieves a product by its ID.
func (r *Repository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}

	return product, nil
}

// ListProductsByOwner retrieves one page of products owned by a user.
func (r *Repository) ListProductsByOwner(ctx context.Context, ownerID string, req model.PageRequest) (*model.ProductPage, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM products WHERE owner_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products by owner: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id = $1` +
		orderClause(req) + ` LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list products by owner: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return model.NewProductPage(products, total, req), nil
}

// ListAllProducts retrieves one page of products across all owners.
// Used for admin-scoped listing.
func (r *Repository) ListAllProducts(ctx context.Context, req model.PageRequest) (*model.ProductPage, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` +
		orderClause(req) + ` LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return model.NewProductPage(products, total, req), nil
}

// ListProductsInFolder retrieves one page of the user's products linked
// to a folder. Folder scoping happens entirely through the join filter.
func (r *Repository) ListProductsInFolder(ctx context.Context, ownerID, folderID string, req model.PageRequest) (*model.ProductPage, error) {
	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM products p
		JOIN product_folders pf ON pf.product_id = p.id
		WHERE p.owner_id = $1 AND pf.folder_id = $2
	`
	if err := r.pool.QueryRow(ctx, countQuery, ownerID, folderID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products in folder: %w", err)
	}

	query := `
		SELECT p.id, p.title, p.link, p.image, p.lprice, p.myprice, p.owner_id, p.created_at, p.updated_at
		FROM products p
		JOIN product_folders pf ON pf.product_id = p.id
		WHERE p.owner_id = $1 AND pf.folder_id = $2
	` + folderOrderClause(req) + ` LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, ownerID, folderID, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list products in folder: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	return model.NewProductPage(products, total, req), nil
}

// folderOrderClause is orderClause with the products alias applied.
func folderOrderClause(req model.PageRequest) string {
	column, ok := sortColumns[req.SortBy]
	if !ok {
		column = "id"
	}

	direction := "DESC"
	if req.Ascending {
		direction = "ASC"
	}

	if column == "id" {
		return fmt.Sprintf(" ORDER BY p.id %s", direction)
	}
	return fmt.Sprintf(" ORDER BY p.%s %s, p.id %s", column, direction, direction)
}

// UpdateMyPrice sets a product's target price inside a transaction.
// The row is locked for the read-modify-write so concurrent updates of
// the same product serialize on the row lock.
func (r *Repository) UpdateMyPrice(ctx context.Context, id string, myprice int64) (*model.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	product, err := scanProduct(tx.QueryRow(ctx, lockQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	updateQuery := `UPDATE products SET myprice = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateQuery, id, myprice).Scan(&product.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update target price: %w", err)
	}
	product.MyPrice = myprice

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return product, nil
}

// UpdateProductCatalog overwrites a product's catalog fields from an
// external search item, inside a transaction like UpdateMyPrice.
// Returns the product as it was before the overwrite so callers can
// compare old and new prices.
func (r *Repository) UpdateProductCatalog(ctx context.Context, id string, item *model.SearchItem) (*model.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	previous, err := scanProduct(tx.QueryRow(ctx, lockQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	updateQuery := `
		UPDATE products
		SET lprice = $2, image = $3, link = $4, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, updateQuery, id, item.LPrice, item.Image, item.Link); err != nil {
		return nil, fmt.Errorf("failed to update catalog fields: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return previous, nil
}

// ListProductIDs returns all product IDs in insertion order.
// Used by the catalog sync worker to walk the whole catalog.
func (r *Repository) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM products ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list product IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product IDs: %w", err)
	}

	return ids, nil
}

// scanProduct scans a single row into a Product model.
func scanProduct(row pgx.Row) (*model.Product, error) {
	var product model.Product
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Link,
		&product.Image,
		&product.LPrice,
		&product.MyPrice,
		&product.OwnerID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return &product, err
}

// collectProducts drains rows into Product models.
func collectProducts(rows pgx.Rows) ([]*model.Product, error) {
	var products []*model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation (error code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
