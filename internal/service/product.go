package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopwatch/shopwatch/internal/i18n"
	"github.com/shopwatch/shopwatch/internal/metrics"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/repository"
)

// Fallback messages used when the resolver has no catalog entry.
const (
	fallbackWrongPrice      = "Wrong Price"
	fallbackProductNotFound = "Not Found Product"
)

// ProductService handles interest-product business logic.
type ProductService struct {
	products ProductStore
	folders  FolderStore
	links    ProductFolderStore
	messages MessageResolver
	locale   string
	alerts   AlertPublisher
	metrics  metrics.Recorder
}

// NewProductService creates a new ProductService. The alert publisher
// may be nil to disable price alerts.
func NewProductService(
	products ProductStore,
	folders FolderStore,
	links ProductFolderStore,
	messages MessageResolver,
	locale string,
	alerts AlertPublisher,
	recorder metrics.Recorder,
) *ProductService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProductService{
		products: products,
		folders:  folders,
		links:    links,
		messages: messages,
		locale:   locale,
		alerts:   alerts,
		metrics:  recorder,
	}
}

// CreateProductInput defines input for registering a product.
type CreateProductInput struct {
	Title  string
	Link   string
	Image  string
	LPrice int64
}

// CreateProduct registers a new interest product owned by the caller.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput, user *model.AuthContext) (*model.Product, error) {
	now := time.Now().UTC()
	product := &model.Product{
		ID:        ulid.Make().String(),
		Title:     input.Title,
		Link:      input.Link,
		Image:     input.Image,
		LPrice:    input.LPrice,
		OwnerID:   user.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.metrics.IncProductCreated()

	return product, nil
}

// UpdateMyPrice sets a product's target price.
// The target must be at least model.MinMyPrice; the read-modify-write
// runs inside the store's transaction so the product is untouched on
// any failure path.
func (s *ProductService) UpdateMyPrice(ctx context.Context, productID string, myprice int64) (*model.Product, error) {
	if myprice < model.MinMyPrice {
		msg := s.messages.Resolve(s.locale, i18n.KeyBelowMinMyPrice, []any{model.MinMyPrice}, fallbackWrongPrice)
		return nil, NewMessageError(ErrPriceBelowMinimum, msg)
	}

	product, err := s.products.UpdateMyPrice(ctx, productID, myprice)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			msg := s.messages.Resolve(s.locale, i18n.KeyNotFoundProduct, nil, fallbackProductNotFound)
			return nil, NewMessageError(ErrProductNotFound, msg)
		}
		return nil, err
	}

	s.metrics.IncPriceUpdated()

	return product, nil
}

// ListProducts retrieves one page of products visible to the caller.
// USER-role callers see only their own products; ADMIN sees all.
func (s *ProductService) ListProducts(ctx context.Context, user *model.AuthContext, req model.PageRequest) (*model.ProductPage, error) {
	req = req.Normalize()

	if user.Role.IsAdmin() {
		return s.products.ListAllProducts(ctx, req)
	}
	return s.products.ListProductsByOwner(ctx, user.UserID, req)
}

// UpdateFromSearch overwrites a product's catalog fields from an
// external search result. Invoked by the catalog sync worker.
func (s *ProductService) UpdateFromSearch(ctx context.Context, productID string, item *model.SearchItem) error {
	previous, err := s.products.UpdateProductCatalog(ctx, productID, item)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.maybePublishAlert(ctx, previous, item)

	return nil
}

// maybePublishAlert fires a price-reached alert when the sync moved the
// listed price from above the target to at or below it.
func (s *ProductService) maybePublishAlert(ctx context.Context, previous *model.Product, item *model.SearchItem) {
	if s.alerts == nil {
		return
	}

	updated := *previous
	updated.LPrice = item.LPrice
	updated.Link = item.Link
	updated.Image = item.Image

	if previous.PriceReached() || !updated.PriceReached() {
		return
	}

	if err := s.alerts.PublishPriceReached(ctx, &updated); err != nil {
		// Alert fan-out is best effort; the sync itself already succeeded.
		s.metrics.IncAlertPublished("dropped")
		return
	}
	s.metrics.IncAlertPublished("success")
}

// AddProductToFolder associates a product with a folder.
// Check order is fixed: product existence, folder existence, joint
// ownership, then duplicate link - each short-circuits on failure.
func (s *ProductService) AddProductToFolder(ctx context.Context, productID, folderID string, user *model.AuthContext) error {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	folder, err := s.folders.GetFolderByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, repository.ErrFolderNotFound) {
			return ErrFolderNotFound
		}
		return err
	}

	// Both the product and the folder must belong to the caller. The
	// two cases are deliberately indistinguishable to the caller.
	if !ownedBy(user.UserID, product, folder) {
		return ErrNotOwned
	}

	if _, err := s.links.GetProductFolder(ctx, productID, folderID); err == nil {
		return ErrDuplicateFolder
	} else if !errors.Is(err, repository.ErrLinkNotFound) {
		return err
	}

	link := &model.ProductFolder{
		ID:        ulid.Make().String(),
		ProductID: productID,
		FolderID:  folderID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.links.CreateProductFolder(ctx, link); err != nil {
		// Two concurrent associations can pass the existence check; the
		// unique constraint resolves the race.
		if errors.Is(err, repository.ErrDuplicateLink) {
			return ErrDuplicateFolder
		}
		return fmt.Errorf("failed to create product folder link: %w", err)
	}

	s.metrics.IncFolderLinkCreated()

	return nil
}

// ListProductsInFolder retrieves one page of the caller's products in a
// folder. Folder scoping relies on the join filter: products of other
// users never appear even when the folder is not the caller's.
func (s *ProductService) ListProductsInFolder(ctx context.Context, folderID string, req model.PageRequest, user *model.AuthContext) (*model.ProductPage, error) {
	return s.products.ListProductsInFolder(ctx, user.UserID, folderID, req.Normalize())
}

// FoldersForProducts resolves the folders each listed product belongs
// to, for response projection.
func (s *ProductService) FoldersForProducts(ctx context.Context, products []*model.Product) (map[string][]*model.Folder, error) {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return s.folders.ListFoldersForProducts(ctx, ids)
}

// owned is satisfied by every entity with an owner reference.
type owned interface {
	OwnedBy(userID string) bool
}

// ownedBy is the shared authorization predicate: true only when every
// entity belongs to the user.
func ownedBy(userID string, entities ...owned) bool {
	for _, e := range entities {
		if !e.OwnedBy(userID) {
			return false
		}
	}
	return true
}
