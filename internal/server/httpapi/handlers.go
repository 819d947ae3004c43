package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filevault/internal/server/models"
)

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := s.sessions.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := s.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	setSessionCookies(c, pair, s.accessTTL, s.refreshTTL)
	respondSuccess(c, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) validateSession(c *gin.Context) {
	token := accessTokenFrom(c)
	if token == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	identity, err := s.sessions.Validate(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"user_id":  identity.UserID,
		"username": identity.Username,
	})
}

func (s *Server) refreshSession(c *gin.Context) {
	var req refreshRequest
	// body is optional when the cookie is present
	_ = c.ShouldBindJSON(&req)

	token := refreshTokenFrom(c, req.RefreshToken)
	if token == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	pair, err := s.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	setSessionCookies(c, pair, s.accessTTL, s.refreshTTL)
	respondSuccess(c, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	access := accessTokenFrom(c)
	refresh := refreshTokenFrom(c, req.RefreshToken)

	if err := s.sessions.Logout(c.Request.Context(), access, refresh); err != nil {
		respondServiceError(c, err)
		return
	}

	clearSessionCookies(c)
	respondSuccess(c, http.StatusOK, gin.H{"logged_out": true})
}

func (s *Server) createFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	folder, err := s.folders.CreateFolder(c.Request.Context(), c.GetString(ctxUserIDKey), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, folderResponse{ID: folder.ID, Name: folder.Name})
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

func (s *Server) listFolders(c *gin.Context) {
	page, pageSize := pageParams(c)

	listings, err := s.folders.ListFolders(c.Request.Context(), c.GetString(ctxUserIDKey), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]folderResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, folderResponse{
			ID:           l.ID,
			Name:         l.Name,
			Owner:        l.OwnerUsername,
			Capabilities: toCapabilityResponse(l.Capability),
		})
	}
	respondSuccess(c, http.StatusOK, out)
}

func (s *Server) listFiles(c *gin.Context) {
	page, pageSize := pageParams(c)

	files, err := s.folders.ListFiles(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("id"), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	respondSuccess(c, http.StatusOK, out)
}

func (s *Server) modifyPermissions(c *gin.Context) {
	var req permissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "All of read, upload and delete must be stated")
		return
	}

	caps := models.Capability{Read: *req.Read, Upload: *req.Upload, Delete: *req.Delete}
	err := s.folders.ModifyPermissions(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("id"), req.Username, caps)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"updated": true})
}

func (s *Server) registerUpload(c *gin.Context) {
	var req registerUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	file, url, err := s.folders.RegisterUpload(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("id"), req.Name, req.Size)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{
		"file":       toFileResponse(file),
		"upload_url": url,
	})
}

func (s *Server) downloadFile(c *gin.Context) {
	url, err := s.folders.DownloadURL(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"download_url": url})
}

func (s *Server) deleteFile(c *gin.Context) {
	if err := s.folders.DeleteFile(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
