// Package folders declares the repository contract for folder records.
package folders

import (
	"context"

	"filevault/internal/server/models"
)

// Repository defines persistence operations for folders.
type Repository interface {
	// Create inserts a new folder and returns it with its assigned id.
	// An (owner, name) collision yields common.ErrorAlreadyExists.
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)

	// GetByID returns the folder with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// ListAccessible returns the folders on which the user holds at least one
	// capability, newest first, with the owner's username and the caller's
	// capability set attached.
	ListAccessible(ctx context.Context, userID string, limit, offset int) ([]*models.FolderListing, error)
}
