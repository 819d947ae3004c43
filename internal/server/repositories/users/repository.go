// Package users declares the repository contract for account records.
package users

import (
	"context"

	"filevault/internal/server/models"
)

// Repository defines persistence operations for users.
type Repository interface {
	// Create inserts a new user and returns it with its assigned id.
	// A username collision yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the user with the given username, or
	// common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// BumpGeneration atomically increments the user's generation counter and
	// returns the new value. Concurrent bumps must each count.
	BumpGeneration(ctx context.Context, id string) (int64, error)
}
