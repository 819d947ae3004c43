package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
	"filevault/internal/server/storage"
)

// BlobStore is the part of object storage the folder service needs: handing
// out presigned URLs and removing blobs. File bytes never pass through the
// server.
type BlobStore interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// FolderService implements folder management and per-folder authorization.
//
// Authorization follows one rule: every folder-scoped check that fails, for
// whatever reason, answers with common.ErrorForbidden. A caller probing a
// folder id cannot tell an absent folder from one they lack access to.
type FolderService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	blobs         BlobStore
	maxUploadSize int64
}

// NewFolderService constructs a FolderService.
func NewFolderService(db *sql.DB, repos repomanager.RepositoryManager, blobs BlobStore, cfg *config.Config) *FolderService {
	return &FolderService{db: db, repos: repos, blobs: blobs, maxUploadSize: cfg.MaxUploadSize}
}

// pageBounds turns 1-based page parameters into a limit and offset,
// normalizing out-of-range values instead of rejecting them.
func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// CreateFolder makes a new folder and grants its owner the full capability
// set in the same transaction, so no folder ever exists without an owner
// grant.
func (s *FolderService) CreateFolder(ctx context.Context, ownerID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrorValidation
	}

	var folder *models.Folder
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		folder, err = s.repos.Folders(tx).Create(ctx, &models.Folder{OwnerID: ownerID, Name: name})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrorAlreadyExists
			}
			return common.ErrorInternal
		}

		grant := &models.FolderPermission{
			FolderID:   folder.ID,
			UserID:     ownerID,
			Capability: models.FullCapability(),
		}
		if err := s.repos.Permissions(tx).Upsert(ctx, grant); err != nil {
			return common.ErrorInternal
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFolders returns a page of the folders the user can see, which is
// exactly the set they hold at least one capability on.
func (s *FolderService) ListFolders(ctx context.Context, userID string, page, pageSize int) ([]*models.FolderListing, error) {
	limit, offset := pageBounds(page, pageSize)
	listings, err := s.repos.Folders(s.db).ListAccessible(ctx, userID, limit, offset)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return listings, nil
}

// ListFiles returns a page of a folder's files. Requires the read
// capability; without it the folder might as well not exist.
func (s *FolderService) ListFiles(ctx context.Context, userID, folderID string, page, pageSize int) ([]*models.File, error) {
	caps, err := s.repos.Permissions(s.db).Capabilities(ctx, folderID, userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !caps.Read {
		return nil, common.ErrorForbidden
	}

	limit, offset := pageBounds(page, pageSize)
	list, err := s.repos.Files(s.db).ListByFolder(ctx, folderID, limit, offset)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return list, nil
}

// ModifyPermissions replaces the target user's capability set on a folder.
// Only the folder's owner may grant or revoke, and the owner check hides
// absent folders behind the same refusal as foreign ones. The target
// username is the one lookup allowed to say "not found": the caller has
// already proven ownership, so folder enumeration is not at stake.
func (s *FolderService) ModifyPermissions(ctx context.Context, callerID, folderID, targetUsername string, caps models.Capability) error {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorForbidden
		}
		return common.ErrorInternal
	}
	if folder.OwnerID != callerID {
		return common.ErrorForbidden
	}

	target, err := s.repos.Users(s.db).GetByUsername(ctx, targetUsername)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	grant := &models.FolderPermission{FolderID: folder.ID, UserID: target.ID, Capability: caps}
	if err := s.repos.Permissions(s.db).Upsert(ctx, grant); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// RegisterUpload validates an upload request, records the file's metadata
// and returns a presigned PUT URL for the client to push the bytes to.
// Requires the upload capability.
func (s *FolderService) RegisterUpload(ctx context.Context, userID, folderID, name string, size int64) (*models.File, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || size <= 0 || size > s.maxUploadSize {
		return nil, "", common.ErrorValidation
	}

	caps, err := s.repos.Permissions(s.db).Capabilities(ctx, folderID, userID)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	if !caps.Upload {
		return nil, "", common.ErrorForbidden
	}

	key := storage.RandomKey()
	url, err := s.blobs.PresignPut(ctx, key)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	file, err := s.repos.Files(s.db).Create(ctx, &models.File{
		FolderID:   folderID,
		Name:       name,
		Size:       size,
		StorageKey: key,
	})
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return file, url, nil
}

// DownloadURL returns a presigned GET URL for a file. Requires the read
// capability on the file's folder; an unknown file id gets the same refusal.
func (s *FolderService) DownloadURL(ctx context.Context, userID, fileID string) (string, error) {
	file, err := s.repos.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorForbidden
		}
		return "", common.ErrorInternal
	}

	caps, err := s.repos.Permissions(s.db).Capabilities(ctx, file.FolderID, userID)
	if err != nil {
		return "", common.ErrorInternal
	}
	if !caps.Read {
		return "", common.ErrorForbidden
	}

	url, err := s.blobs.PresignGet(ctx, file.StorageKey)
	if err != nil {
		return "", common.ErrorInternal
	}
	return url, nil
}

// DeleteFile removes a file's blob and then its metadata row. Requires the
// delete capability on the file's folder.
func (s *FolderService) DeleteFile(ctx context.Context, userID, fileID string) error {
	file, err := s.repos.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorForbidden
		}
		return common.ErrorInternal
	}

	caps, err := s.repos.Permissions(s.db).Capabilities(ctx, file.FolderID, userID)
	if err != nil {
		return common.ErrorInternal
	}
	if !caps.Delete {
		return common.ErrorForbidden
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		return common.ErrorInternal
	}
	if err := s.repos.Files(s.db).Delete(ctx, file.ID); err != nil {
		// a concurrent delete already removed the row; the blob is gone either way
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}
	return nil
}
