package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopwatch/shopwatch/internal/metrics"
	"github.com/shopwatch/shopwatch/internal/model"
	"github.com/shopwatch/shopwatch/internal/repository"
)

const maxFolderNameLength = 100

// FolderService handles folder business logic.
type FolderService struct {
	folders FolderStore
	metrics metrics.Recorder
}

// NewFolderService creates a new FolderService.
func NewFolderService(folders FolderStore, recorder metrics.Recorder) *FolderService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &FolderService{folders: folders, metrics: recorder}
}

// CreateFolders creates all named folders for the caller, skipping
// names the caller already owns. Blank names are rejected.
func (s *FolderService) CreateFolders(ctx context.Context, names []string, user *model.AuthContext) ([]*model.Folder, error) {
	created := make([]*model.Folder, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || len(name) > maxFolderNameLength {
			return nil, ErrInvalidFolderName
		}

		folder := &model.Folder{
			ID:        ulid.Make().String(),
			Name:      name,
			OwnerID:   user.UserID,
			CreatedAt: time.Now().UTC(),
		}

		if err := s.folders.CreateFolder(ctx, folder); err != nil {
			if errors.Is(err, repository.ErrFolderNameExists) {
				continue
			}
			return nil, fmt.Errorf("failed to create folder: %w", err)
		}

		s.metrics.IncFolderCreated()
		created = append(created, folder)
	}
	return created, nil
}

// ListFolders retrieves all folders owned by the caller.
func (s *FolderService) ListFolders(ctx context.Context, user *model.AuthContext) ([]*model.Folder, error) {
	folders, err := s.folders.ListFoldersByOwner(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}
