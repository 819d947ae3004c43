package httpapi

import (
	"time"

	"filevault/internal/server/models"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type createFolderRequest struct {
	Name string `json:"name" binding:"required"`
}

// permissionsRequest carries a full capability set. All three flags use
// *bool with required binding, so a request that omits any of them is
// rejected instead of silently defaulting to false.
type permissionsRequest struct {
	Username string `json:"username" binding:"required"`
	Read     *bool  `json:"read" binding:"required"`
	Upload   *bool  `json:"upload" binding:"required"`
	Delete   *bool  `json:"delete" binding:"required"`
}

type registerUploadRequest struct {
	Name string `json:"name" binding:"required"`
	Size int64  `json:"size" binding:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type capabilityResponse struct {
	Read   bool `json:"read"`
	Upload bool `json:"upload"`
	Delete bool `json:"delete"`
}

type folderResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Owner        string              `json:"owner,omitempty"`
	Capabilities *capabilityResponse `json:"capabilities,omitempty"`
}

type fileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

func toCapabilityResponse(c models.Capability) *capabilityResponse {
	return &capabilityResponse{Read: c.Read, Upload: c.Upload, Delete: c.Delete}
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:        f.ID,
		Name:      f.Name,
		Size:      f.Size,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
	}
}
