// Package refreshtokens declares the revocation store contract: one durable
// row per issued refresh token, keyed by the token's jti.
package refreshtokens

import (
	"context"
	"time"

	"filevault/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens. Rows are never deleted; revocation only sets revoked_at.
type Repository interface {
	// Create stores a new refresh token row.
	Create(ctx context.Context, token *models.RefreshToken) error

	// GetByID looks up a refresh token by its jti. Implementations return
	// common.ErrorNotFound when the row is absent.
	GetByID(ctx context.Context, jti string) (*models.RefreshToken, error)

	// Revoke marks the row revoked if and only if it is not revoked yet, and
	// reports whether this call flipped it. Revoking an already-revoked row
	// is a no-op, not an error: callers racing on the same token see exactly
	// one true.
	Revoke(ctx context.Context, jti string, at time.Time) (bool, error)
}
