package permissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/dbx"
	"filevault/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, permission *models.FolderPermission) error {
	query := `
		INSERT INTO folder_permissions (folder_id, user_id, can_read, can_upload, can_delete)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (folder_id, user_id)
		DO UPDATE SET can_read = $3, can_upload = $4, can_delete = $5
	`
	_, err := r.db.ExecContext(ctx, query, permission.FolderID, permission.UserID,
		permission.Read, permission.Upload, permission.Delete)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Capabilities(ctx context.Context, folderID, userID string) (models.Capability, error) {
	query := `
		SELECT can_read, can_upload, can_delete
		FROM folder_permissions
		WHERE folder_id = $1 AND user_id = $2
	`
	var c models.Capability
	err := r.db.QueryRowContext(ctx, query, folderID, userID).
		Scan(&c.Read, &c.Upload, &c.Delete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Capability{}, nil
		}
		return models.Capability{}, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}
