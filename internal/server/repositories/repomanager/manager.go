package repomanager

import (
	"context"
	"database/sql"

	"filevault/internal/dbx"
	"filevault/internal/server/repositories/files"
	"filevault/internal/server/repositories/folders"
	"filevault/internal/server/repositories/permissions"
	"filevault/internal/server/repositories/refreshtokens"
	"filevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// constructor works inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Folders(db dbx.DBTX) folders.Repository
	Permissions(db dbx.DBTX) permissions.Repository
	Files(db dbx.DBTX) files.Repository
}
