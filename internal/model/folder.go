package model

import "time"

// Folder is a user-owned named grouping of products.
// The owner is fixed at creation time and never reassigned.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnedBy reports whether the folder belongs to the given user.
func (f *Folder) OwnedBy(userID string) bool {
	return f.OwnerID == userID
}

// ProductFolder associates one product with one folder.
// A given (product, folder) pair exists at most once; the record is
// created by the folder-association operation and never mutated.
type ProductFolder struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	FolderID  string    `json:"folder_id"`
	CreatedAt time.Time `json:"created_at"`
}
