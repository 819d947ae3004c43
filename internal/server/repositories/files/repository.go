// Package files declares the repository contract for file metadata rows.
// File bytes live in object storage; rows only record where they are.
package files

import (
	"context"

	"filevault/internal/server/models"
)

// Repository defines persistence operations for file metadata.
type Repository interface {
	// Create inserts a new file row and returns it with its assigned id.
	Create(ctx context.Context, file *models.File) (*models.File, error)

	// GetByID returns the file with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// ListByFolder returns a page of the folder's files, newest first.
	ListByFolder(ctx context.Context, folderID string, limit, offset int) ([]*models.File, error)

	// Delete removes a file row. Deleting an absent row yields
	// common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
