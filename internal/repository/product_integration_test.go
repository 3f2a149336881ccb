//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/testutil"
)

func TestIntegrationProductRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newProductTestEnv(t)

	owner := seedTestUser(ctx, t, repo, "alice")
	product := testutil.NewTestProduct(t, owner.ID)

	if err := repo.CreateProduct(ctx, product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	retrieved, err := repo.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductByID failed: %v", err)
	}

	if retrieved.Title != product.Title {
		t.Errorf("Title mismatch: got %q, want %q", retrieved.Title, product.Title)
	}
	if retrieved.OwnerID != owner.ID {
		t.Errorf("OwnerID mismatch: got %q, want %q", retrieved.OwnerID, owner.ID)
	}
	if retrieved.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestIntegrationProductRepository_GetNotFound(t *testing.T) {
	ctx, repo := newProductTestEnv(t)

	_, err := repo.GetProductByID(ctx, "nonexistent-id")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got: %v", err)
	}
}

func TestIntegrationProductRepository_UpdateMyPrice(t *testing.T) {
	ctx, repo := newProductTestEnv(t)

	owner := seedTestUser(ctx, t, repo, "alice")
	product := testutil.NewTestProduct(t, owner.ID)
	if err := repo.CreateProduct(ctx, product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	updated, err := repo.UpdateMyPrice(ctx, product.ID, 12000)
	if err != nil {
		t.Fatalf("UpdateMyPrice failed: %v", err)
	}
	if updated.MyPrice != 12000 {
		t.Errorf("MyPrice = %d, want 12000", updated.MyPrice)
	}
	if !updated.UpdatedAt.After(product.UpdatedAt) {
		t.Error("UpdatedAt should advance")
	}

	_, err = repo.UpdateMyPrice(ctx, "nonexistent-id", 12000)
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got: %v", err)
	}
}

func TestIntegrationProductRepository_ListByOwner(t *testing.T) {
	ctx, repo := newProductTestEnv(t)

	alice := seedTestUser(ctx, t, repo, "alice")
	bob := seedTestUser(ctx, t, repo, "bob")

	for i := 0; i < 3; i++ {
		if err := repo.CreateProduct(ctx, testutil.NewTestProduct(t, alice.ID)); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}
	if err := repo.CreateProduct(ctx, testutil.NewTestProduct(t, bob.ID)); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	page, err := repo.ListProductsByOwner(ctx, alice.ID, model.PageRequest{Page: 0, Size: 2, SortBy: "id", Ascending: true})
	if err != nil {
		t.Fatalf("ListProductsByOwner failed: %v", err)
	}

	if page.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", page.TotalCount)
	}
	if len(page.Items) != 2 {
		t.Errorf("Items = %d, want 2", len(page.Items))
	}
	if page.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page.TotalPages)
	}

	all, err := repo.ListAllProducts(ctx, model.PageRequest{Page: 0, Size: 10, SortBy: "id", Ascending: true})
	if err != nil {
		t.Fatalf("ListAllProducts failed: %v", err)
	}
	if all.TotalCount != 4 {
		t.Errorf("all TotalCount = %d, want 4", all.TotalCount)
	}
}

func TestIntegrationProductFolderRepository_LinkLifecycle(t *testing.T) {
	ctx, repo := newProductTestEnv(t)

	owner := seedTestUser(ctx, t, repo, "alice")
	product := testutil.NewTestProduct(t, owner.ID)
	if err := repo.CreateProduct(ctx, product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	folder := testutil.NewTestFolder(t, owner.ID, "wishlist")
	if err := repo.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	link := &model.ProductFolder{
		ID:        testutil.UniqueID("link"),
		ProductID: product.ID,
		FolderID:  folder.ID,
	}
	if err := repo.CreateProductFolder(ctx, link); err != nil {
		t.Fatalf("CreateProductFolder failed: %v", err)
	}

	// Duplicate link hits the unique constraint.
	dup := *link
	dup.ID = testutil.UniqueID("link")
	err := repo.CreateProductFolder(ctx, &dup)
	if !errors.Is(err, ErrDuplicateLink) {
		t.Errorf("Expected ErrDuplicateLink, got: %v", err)
	}

	page, err := repo.ListProductsInFolder(ctx, owner.ID, folder.ID, model.PageRequest{Page: 0, Size: 10, SortBy: "id", Ascending: true})
	if err != nil {
		t.Fatalf("ListProductsInFolder failed: %v", err)
	}
	if page.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", page.TotalCount)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newProductTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetDatabase(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset database: %v", err)
	}

	return ctx, repo
}

func seedTestUser(ctx context.Context, t *testing.T, repo *Repository, username string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, username+testutil.UniqueID(""), model.RoleUser)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}
