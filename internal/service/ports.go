// Package service provides business logic for the application.
package service

import (
	"context"

	"github.com/shopwatch/shopwatch/internal/model"
)

// Storage contracts consumed by the services. Implemented by
// repository.Repository; tests substitute in-memory fakes. Methods
// signal absence with the repository sentinel errors.

// ProductStore persists and queries products.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	ListProductsByOwner(ctx context.Context, ownerID string, req model.PageRequest) (*model.ProductPage, error)
	ListAllProducts(ctx context.Context, req model.PageRequest) (*model.ProductPage, error)
	ListProductsInFolder(ctx context.Context, ownerID, folderID string, req model.PageRequest) (*model.ProductPage, error)
	UpdateMyPrice(ctx context.Context, id string, myprice int64) (*model.Product, error)
	UpdateProductCatalog(ctx context.Context, id string, item *model.SearchItem) (*model.Product, error)
}

// FolderStore persists and queries folders.
type FolderStore interface {
	CreateFolder(ctx context.Context, folder *model.Folder) error
	GetFolderByID(ctx context.Context, id string) (*model.Folder, error)
	ListFoldersByOwner(ctx context.Context, ownerID string) ([]*model.Folder, error)
	ListFoldersForProducts(ctx context.Context, productIDs []string) (map[string][]*model.Folder, error)
}

// ProductFolderStore persists product-folder links.
type ProductFolderStore interface {
	GetProductFolder(ctx context.Context, productID, folderID string) (*model.ProductFolder, error)
	CreateProductFolder(ctx context.Context, link *model.ProductFolder) error
}

// UserStore persists and queries user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionStore keeps login sessions keyed by token hash.
type SessionStore interface {
	GetSession(ctx context.Context, tokenHash string) (*model.AuthContext, error)
	SetSession(ctx context.Context, tokenHash string, authCtx *model.AuthContext) error
	DeleteSession(ctx context.Context, tokenHash string) error
}

// MessageResolver resolves localizable user-facing messages.
// Resolution falls back to the given default string when the key is
// unknown for every candidate locale.
type MessageResolver interface {
	Resolve(locale, key string, args []any, fallback string) string
}

// AlertPublisher fans out price-reached events to registered webhook
// endpoints. Optional; services treat a nil publisher as disabled.
type AlertPublisher interface {
	PublishPriceReached(ctx context.Context, product *model.Product) error
}
