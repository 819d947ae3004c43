package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
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

func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (owner_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, folder.OwnerID, folder.Name).
		Scan(&folder.ID, &folder.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := `
		SELECT id, owner_id, name, created_at
		FROM folders
		WHERE id = $1
	`
	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&folder.ID, &folder.OwnerID, &folder.Name, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) ListAccessible(ctx context.Context, userID string, limit, offset int) ([]*models.FolderListing, error) {
	query := `
		SELECT f.id, f.name, u.username, p.can_read, p.can_upload, p.can_delete
		FROM folder_permissions p
		JOIN folders f ON f.id = p.folder_id
		JOIN users u ON u.id = f.owner_id
		WHERE p.user_id = $1 AND (p.can_read OR p.can_upload OR p.can_delete)
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	listings := []*models.FolderListing{}
	for rows.Next() {
		l := &models.FolderListing{}
		if err := rows.Scan(&l.ID, &l.Name, &l.OwnerUsername,
			&l.Capability.Read, &l.Capability.Upload, &l.Capability.Delete); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return listings, nil
}
