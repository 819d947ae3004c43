// Package httpapi is the HTTP transport: gin routing, cookie handling, and
// the mapping of service results onto JSON responses.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filevault/internal/logging"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	"filevault/internal/server/services"
)

// SessionAPI is what the transport needs from the session authority.
type SessionAPI interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Validate(ctx context.Context, accessToken string) (*services.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

// FolderAPI is what the transport needs from the folder service.
type FolderAPI interface {
	CreateFolder(ctx context.Context, ownerID, name string) (*models.Folder, error)
	ListFolders(ctx context.Context, userID string, page, pageSize int) ([]*models.FolderListing, error)
	ListFiles(ctx context.Context, userID, folderID string, page, pageSize int) ([]*models.File, error)
	ModifyPermissions(ctx context.Context, callerID, folderID, targetUsername string, caps models.Capability) error
	RegisterUpload(ctx context.Context, userID, folderID, name string, size int64) (*models.File, string, error)
	DownloadURL(ctx context.Context, userID, fileID string) (string, error)
	DeleteFile(ctx context.Context, userID, fileID string) error
}

// Server hosts the public HTTP endpoint.
type Server struct {
	addr       string
	router     *gin.Engine
	logger     logging.Logger
	sessions   SessionAPI
	folders    FolderAPI
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewServer builds the gin engine and registers all routes.
func NewServer(cfg *config.Config, logger logging.Logger, sessions SessionAPI, folders FolderAPI) *Server {
	s := &Server{
		addr:       cfg.EndpointAddrHTTP,
		logger:     logger,
		sessions:   sessions,
		folders:    folders,
		accessTTL:  cfg.AccessTokenValidityDuration,
		refreshTTL: cfg.RefreshTokenValidityDuration,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.router = router
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/healthz", s.healthz)
		api.POST("/register", s.register)
		api.POST("/login", s.login)
		api.GET("/session/validate", s.validateSession)

		manage := api.Group("/session/manage")
		{
			manage.POST("/refresh", s.refreshSession)
			manage.POST("/logout", s.logout)
		}

		protected := api.Group("", s.authRequired())
		{
			protected.POST("/folders", s.createFolder)
			protected.GET("/folders", s.listFolders)
			protected.GET("/folders/:id/files", s.listFiles)
			protected.POST("/folders/:id/files", s.registerUpload)
			protected.PUT("/folders/:id/permissions", s.modifyPermissions)
			protected.GET("/files/:id/download", s.downloadFile)
			protected.DELETE("/files/:id", s.deleteFile)
		}
	}
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server starting", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
