package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopwatch/shopwatch/internal/i18n"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/repository"
)

// memStore is an in-memory stand-in for the repository, implementing
// the product, folder and link store contracts.
type memStore struct {
	products map[string]*model.Product
	folders  map[string]*model.Folder
	links    map[string]*model.ProductFolder

	listAllCalled    bool
	listOwnerCalled  bool
	updatePriceCalls int
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]*model.Product),
		folders:  make(map[string]*model.Folder),
		links:    make(map[string]*model.ProductFolder),
	}
}

func linkKey(productID, folderID string) string {
	return productID + "/" + folderID
}

func (m *memStore) CreateProduct(_ context.Context, product *model.Product) error {
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *memStore) GetProductByID(_ context.Context, id string) (*model.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (m *memStore) ListProductsByOwner(_ context.Context, ownerID string, req model.PageRequest) (*model.ProductPage, error) {
	m.listOwnerCalled = true
	var items []*model.Product
	for _, p := range m.products {
		if p.OwnerID == ownerID {
			items = append(items, p)
		}
	}
	return model.NewProductPage(items, int64(len(items)), req), nil
}

func (m *memStore) ListAllProducts(_ context.Context, req model.PageRequest) (*model.ProductPage, error) {
	m.listAllCalled = true
	var items []*model.Product
	for _, p := range m.products {
		items = append(items, p)
	}
	return model.NewProductPage(items, int64(len(items)), req), nil
}

func (m *memStore) ListProductsInFolder(_ context.Context, ownerID, folderID string, req model.PageRequest) (*model.ProductPage, error) {
	var items []*model.Product
	for _, p := range m.products {
		if p.OwnerID != ownerID {
			continue
		}
		if _, ok := m.links[linkKey(p.ID, folderID)]; ok {
			items = append(items, p)
		}
	}
	return model.NewProductPage(items, int64(len(items)), req), nil
}

func (m *memStore) UpdateMyPrice(_ context.Context, id string, myprice int64) (*model.Product, error) {
	m.updatePriceCalls++
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	product.MyPrice = myprice
	cp := *product
	return &cp, nil
}

func (m *memStore) UpdateProductCatalog(_ context.Context, id string, item *model.SearchItem) (*model.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	previous := *product
	// Sync refreshes listing fields only. Title keeps the value set at
	// creation, same as the SQL UPDATE in the repository.
	product.Link = item.Link
	product.Image = item.Image
	product.LPrice = item.LPrice
	return &previous, nil
}

func (m *memStore) CreateFolder(_ context.Context, folder *model.Folder) error {
	for _, f := range m.folders {
		if f.OwnerID == folder.OwnerID && f.Name == folder.Name {
			return repository.ErrFolderNameExists
		}
	}
	cp := *folder
	m.folders[folder.ID] = &cp
	return nil
}

func (m *memStore) GetFolderByID(_ context.Context, id string) (*model.Folder, error) {
	folder, ok := m.folders[id]
	if !ok {
		return nil, repository.ErrFolderNotFound
	}
	cp := *folder
	return &cp, nil
}

func (m *memStore) ListFoldersByOwner(_ context.Context, ownerID string) ([]*model.Folder, error) {
	var folders []*model.Folder
	for _, f := range m.folders {
		if f.OwnerID == ownerID {
			folders = append(folders, f)
		}
	}
	return folders, nil
}

func (m *memStore) ListFoldersForProducts(_ context.Context, productIDs []string) (map[string][]*model.Folder, error) {
	result := make(map[string][]*model.Folder)
	for _, id := range productIDs {
		for _, link := range m.links {
			if link.ProductID != id {
				continue
			}
			if folder, ok := m.folders[link.FolderID]; ok {
				result[id] = append(result[id], folder)
			}
		}
	}
	return result, nil
}

func (m *memStore) GetProductFolder(_ context.Context, productID, folderID string) (*model.ProductFolder, error) {
	link, ok := m.links[linkKey(productID, folderID)]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *memStore) CreateProductFolder(_ context.Context, link *model.ProductFolder) error {
	key := linkKey(link.ProductID, link.FolderID)
	if _, ok := m.links[key]; ok {
		return repository.ErrDuplicateLink
	}
	cp := *link
	m.links[key] = &cp
	return nil
}

// fakeAlerts records published price-reached events.
type fakeAlerts struct {
	published []*model.Product
	err       error
}

func (f *fakeAlerts) PublishPriceReached(_ context.Context, product *model.Product) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, product)
	return nil
}

func newProductService(store *memStore, alerts AlertPublisher) *ProductService {
	return NewProductService(store, store, store, i18n.NewResolver("en"), "en", alerts, nil)
}

func seedProduct(store *memStore, id, ownerID string, lprice, myprice int64) *model.Product {
	product := &model.Product{
		ID:        id,
		Title:     "Seed " + id,
		Link:      "https://shop.example.com/" + id,
		LPrice:    lprice,
		MyPrice:   myprice,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	store.products[id] = product
	return product
}

func seedFolder(store *memStore, id, ownerID, name string) *model.Folder {
	folder := &model.Folder{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	store.folders[id] = folder
	return folder
}

func authUser(id string) *model.AuthContext {
	return &model.AuthContext{UserID: id, Username: "u-" + id, Role: model.RoleUser}
}

func authAdmin(id string) *model.AuthContext {
	return &model.AuthContext{UserID: id, Username: "a-" + id, Role: model.RoleAdmin}
}

func TestCreateProductAssignsOwner(t *testing.T) {
	store := newMemStore()
	svc := newProductService(store, nil)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Title:  "Mechanical Keyboard",
		Link:   "https://shop.example.com/kb",
		LPrice: 120000,
	}, authUser("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if product.ID == "" {
		t.Fatal("expected generated product ID")
	}
	if product.OwnerID != "alice" {
		t.Fatalf("expected owner alice, got %q", product.OwnerID)
	}
	if product.MyPrice != 0 {
		t.Fatalf("expected zero target price, got %d", product.MyPrice)
	}
	if _, ok := store.products[product.ID]; !ok {
		t.Fatal("product not persisted")
	}
}

func TestUpdateMyPriceBelowMinimum(t *testing.T) {
	tests := []struct {
		name    string
		myprice int64
	}{
		{"just_below", model.MinMyPrice - 1},
		{"zero", 0},
		{"negative", -500},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newMemStore()
			seedProduct(store, "p1", "alice", 90000, 0)
			svc := newProductService(store, nil)

			_, err := svc.UpdateMyPrice(context.Background(), "p1", test.myprice)
			if !errors.Is(err, ErrPriceBelowMinimum) {
				t.Fatalf("expected ErrPriceBelowMinimum, got %v", err)
			}
			if store.updatePriceCalls != 0 {
				t.Fatal("store must not be touched when validation fails")
			}

			want := fmt.Sprintf("Invalid target price. Please set it to at least %d.", model.MinMyPrice)
			if got := UserMessage(err, ""); got != want {
				t.Fatalf("expected message %q, got %q", want, got)
			}
		})
	}
}

func TestUpdateMyPriceAtMinimum(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "alice", 90000, 0)
	svc := newProductService(store, nil)

	product, err := svc.UpdateMyPrice(context.Background(), "p1", model.MinMyPrice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.MyPrice != model.MinMyPrice {
		t.Fatalf("expected target price %d, got %d", model.MinMyPrice, product.MyPrice)
	}
}

func TestUpdateMyPriceNotFound(t *testing.T) {
	store := newMemStore()
	svc := newProductService(store, nil)

	_, err := svc.UpdateMyPrice(context.Background(), "missing", 5000)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if got := UserMessage(err, ""); got != "Product not found." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestListProductsRoleScoping(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "alice", 1000, 0)
	seedProduct(store, "p2", "bob", 2000, 0)
	svc := newProductService(store, nil)

	page, err := svc.ListProducts(context.Background(), authUser("alice"), model.PageRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.listOwnerCalled || store.listAllCalled {
		t.Fatal("USER role must list only own products")
	}
	if len(page.Items) != 1 || page.Items[0].OwnerID != "alice" {
		t.Fatalf("expected only alice's products, got %d items", len(page.Items))
	}

	store.listOwnerCalled = false
	page, err = svc.ListProducts(context.Background(), authAdmin("root"), model.PageRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.listAllCalled || store.listOwnerCalled {
		t.Fatal("ADMIN role must list all products")
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items for admin, got %d", len(page.Items))
	}
}

func TestAddProductToFolderCheckOrder(t *testing.T) {
	tests := []struct {
		name    string
		seed    func(store *memStore)
		caller  *model.AuthContext
		wantErr error
	}{
		{
			name:    "product_missing_before_folder",
			seed:    func(store *memStore) {},
			caller:  authUser("alice"),
			wantErr: ErrProductNotFound,
		},
		{
			name: "folder_missing",
			seed: func(store *memStore) {
				seedProduct(store, "p1", "alice", 1000, 0)
			},
			caller:  authUser("alice"),
			wantErr: ErrFolderNotFound,
		},
		{
			name: "product_owned_by_other",
			seed: func(store *memStore) {
				seedProduct(store, "p1", "bob", 1000, 0)
				seedFolder(store, "f1", "alice", "wishlist")
			},
			caller:  authUser("alice"),
			wantErr: ErrNotOwned,
		},
		{
			name: "folder_owned_by_other",
			seed: func(store *memStore) {
				seedProduct(store, "p1", "alice", 1000, 0)
				seedFolder(store, "f1", "bob", "wishlist")
			},
			caller:  authUser("alice"),
			wantErr: ErrNotOwned,
		},
		{
			name: "duplicate_link",
			seed: func(store *memStore) {
				seedProduct(store, "p1", "alice", 1000, 0)
				seedFolder(store, "f1", "alice", "wishlist")
				store.links[linkKey("p1", "f1")] = &model.ProductFolder{
					ID: "l1", ProductID: "p1", FolderID: "f1",
				}
			},
			caller:  authUser("alice"),
			wantErr: ErrDuplicateFolder,
		},
		{
			name: "success",
			seed: func(store *memStore) {
				seedProduct(store, "p1", "alice", 1000, 0)
				seedFolder(store, "f1", "alice", "wishlist")
			},
			caller:  authUser("alice"),
			wantErr: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newMemStore()
			test.seed(store)
			svc := newProductService(store, nil)

			err := svc.AddProductToFolder(context.Background(), "p1", "f1", test.caller)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
			if test.wantErr == nil {
				if _, ok := store.links[linkKey("p1", "f1")]; !ok {
					t.Fatal("link not persisted")
				}
			}
		})
	}
}

// racyLinks simulates a concurrent association slipping in between the
// existence check and the insert.
type racyLinks struct {
	ProductFolderStore
}

func (r *racyLinks) GetProductFolder(context.Context, string, string) (*model.ProductFolder, error) {
	return nil, repository.ErrLinkNotFound
}

func (r *racyLinks) CreateProductFolder(context.Context, *model.ProductFolder) error {
	return repository.ErrDuplicateLink
}

func TestAddProductToFolderInsertRace(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "alice", 1000, 0)
	seedFolder(store, "f1", "alice", "wishlist")

	svc := NewProductService(store, store, &racyLinks{}, i18n.NewResolver("en"), "en", nil, nil)

	err := svc.AddProductToFolder(context.Background(), "p1", "f1", authUser("alice"))
	if !errors.Is(err, ErrDuplicateFolder) {
		t.Fatalf("expected ErrDuplicateFolder on insert race, got %v", err)
	}
}

func TestListProductsInFolderScopedToCaller(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "alice", 1000, 0)
	seedProduct(store, "p2", "bob", 2000, 0)
	seedFolder(store, "f1", "bob", "deals")
	store.links[linkKey("p1", "f1")] = &model.ProductFolder{ID: "l1", ProductID: "p1", FolderID: "f1"}
	store.links[linkKey("p2", "f1")] = &model.ProductFolder{ID: "l2", ProductID: "p2", FolderID: "f1"}

	svc := newProductService(store, nil)

	// Even in another user's folder, the caller only ever sees their
	// own products through the join filter.
	page, err := svc.ListProductsInFolder(context.Background(), "f1", model.PageRequest{}, authUser("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "p1" {
		t.Fatalf("expected only alice's p1, got %d items", len(page.Items))
	}
}

func TestUpdateFromSearchAlertTransitions(t *testing.T) {
	tests := []struct {
		name      string
		lprice    int64
		myprice   int64
		newLPrice int64
		wantAlert bool
	}{
		{"crosses_target", 15000, 10000, 9500, true},
		{"lands_on_target", 15000, 10000, 10000, true},
		{"already_reached", 9000, 10000, 8500, false},
		{"still_above", 15000, 10000, 12000, false},
		{"no_target_set", 15000, 0, 9500, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newMemStore()
			seedProduct(store, "p1", "alice", test.lprice, test.myprice)
			alerts := &fakeAlerts{}
			svc := newProductService(store, alerts)

			item := &model.SearchItem{
				Title:  "Updated Title",
				Link:   "https://shop.example.com/updated",
				LPrice: test.newLPrice,
			}
			if err := svc.UpdateFromSearch(context.Background(), "p1", item); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if test.wantAlert && len(alerts.published) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(alerts.published))
			}
			if !test.wantAlert && len(alerts.published) != 0 {
				t.Fatalf("expected no alert, got %d", len(alerts.published))
			}
			if test.wantAlert && alerts.published[0].LPrice != test.newLPrice {
				t.Fatalf("alert should carry the updated listing, got lprice %d", alerts.published[0].LPrice)
			}

			if got := store.products["p1"].LPrice; got != test.newLPrice {
				t.Fatalf("expected stored lprice %d, got %d", test.newLPrice, got)
			}
			if got := store.products["p1"].Title; got != "Seed p1" {
				t.Fatalf("sync must not rewrite the title, got %q", got)
			}
		})
	}
}

func TestUpdateFromSearchMissingProduct(t *testing.T) {
	store := newMemStore()
	svc := newProductService(store, nil)

	err := svc.UpdateFromSearch(context.Background(), "missing", &model.SearchItem{LPrice: 100})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestUpdateFromSearchAlertFailureDoesNotFailSync(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "alice", 15000, 10000)
	alerts := &fakeAlerts{err: errors.New("broker down")}
	svc := newProductService(store, alerts)

	err := svc.UpdateFromSearch(context.Background(), "p1", &model.SearchItem{LPrice: 9000})
	if err != nil {
		t.Fatalf("sync must succeed despite alert failure, got %v", err)
	}
}
