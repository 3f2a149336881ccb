package dto

import (
	"time"

	"github.com/shopwatch/shopwatch/internal/model"
)

// CreateFoldersRequest represents the request body for creating
// folders. Multiple names may be submitted at once.
type CreateFoldersRequest struct {
	Names []string `json:"names"`
}

// FolderResponse represents a folder in API responses.
type FolderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderListResponse represents a list of folders.
type FolderListResponse struct {
	Folders []FolderResponse `json:"folders"`
}

// ToFolderResponse converts a Folder model to FolderResponse DTO.
func ToFolderResponse(folder *model.Folder) *FolderResponse {
	return &FolderResponse{
		ID:        folder.ID,
		Name:      folder.Name,
		CreatedAt: folder.CreatedAt,
	}
}

// ToFolderListResponse converts a slice of Folder models.
func ToFolderListResponse(folders []*model.Folder) *FolderListResponse {
	responses := make([]FolderResponse, len(folders))
	for i, folder := range folders {
		responses[i] = *ToFolderResponse(folder)
	}
	return &FolderListResponse{Folders: responses}
}
