// Package permissions declares the repository contract for per-folder,
// per-user capability grants.
package permissions

import (
	"context"

	"filevault/internal/server/models"
)

// Repository defines persistence operations for folder permissions.
type Repository interface {
	// Upsert writes the full capability set for a (folder, user) pair,
	// inserting or replacing the single row for that pair.
	Upsert(ctx context.Context, permission *models.FolderPermission) error

	// Capabilities returns the capability set a user holds on a folder.
	// A missing row is not an error: it is the empty set.
	Capabilities(ctx context.Context, folderID, userID string) (models.Capability, error)
}
