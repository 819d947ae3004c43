package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"filevault/internal/common"
	"filevault/internal/logging"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	"filevault/internal/server/services"
)

// --- fakes ---

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

type fakeSessions struct {
	registerOut *models.User
	registerErr error

	loginOut *services.TokenPair
	loginErr error

	validateOut *services.Identity
	validateErr error

	refreshOut *services.TokenPair
	refreshErr error
	refreshIn  string

	logoutErr       error
	logoutAccessIn  string
	logoutRefreshIn string
}

func (f *fakeSessions) Register(ctx context.Context, username, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerOut, nil
}
func (f *fakeSessions) Login(ctx context.Context, username, password string) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginOut, nil
}
func (f *fakeSessions) Validate(ctx context.Context, accessToken string) (*services.Identity, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return f.validateOut, nil
}
func (f *fakeSessions) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	f.refreshIn = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshOut, nil
}
func (f *fakeSessions) Logout(ctx context.Context, accessToken, refreshToken string) error {
	f.logoutAccessIn = accessToken
	f.logoutRefreshIn = refreshToken
	return f.logoutErr
}

type fakeFolders struct {
	createOut *models.Folder
	createErr error

	listOut []*models.FolderListing
	listErr error

	filesOut []*models.File
	filesErr error

	modifyErr  error
	modifyCaps *models.Capability
	modifyUser string

	uploadFile *models.File
	uploadURL  string
	uploadErr  error

	downloadURL string
	downloadErr error

	deleteErr error
}

func (f *fakeFolders) CreateFolder(ctx context.Context, ownerID, name string) (*models.Folder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}
func (f *fakeFolders) ListFolders(ctx context.Context, userID string, page, pageSize int) ([]*models.FolderListing, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}
func (f *fakeFolders) ListFiles(ctx context.Context, userID, folderID string, page, pageSize int) ([]*models.File, error) {
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return f.filesOut, nil
}
func (f *fakeFolders) ModifyPermissions(ctx context.Context, callerID, folderID, targetUsername string, caps models.Capability) error {
	f.modifyCaps = &caps
	f.modifyUser = targetUsername
	return f.modifyErr
}
func (f *fakeFolders) RegisterUpload(ctx context.Context, userID, folderID, name string, size int64) (*models.File, string, error) {
	if f.uploadErr != nil {
		return nil, "", f.uploadErr
	}
	return f.uploadFile, f.uploadURL, nil
}
func (f *fakeFolders) DownloadURL(ctx context.Context, userID, fileID string) (string, error) {
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	return f.downloadURL, nil
}
func (f *fakeFolders) DeleteFile(ctx context.Context, userID, fileID string) error {
	return f.deleteErr
}

func newTestServer(sessions SessionAPI, folders FolderAPI) *Server {
	cfg := &config.Config{
		EndpointAddrHTTP:             ":0",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
	return NewServer(cfg, nopLogger{}, sessions, folders)
}

func doJSON(t *testing.T, s *Server, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func authed(identity *services.Identity) *fakeSessions {
	return &fakeSessions{validateOut: identity}
}

func withBearer(req *http.Request) {
	req.Header.Set("Authorization", "Bearer some-access-token")
}

// --- tests ---

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeSessions{}, &fakeFolders{})
	w := doJSON(t, s, http.MethodGet, "/api/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}

func TestRegister_Statuses(t *testing.T) {
	sOK := newTestServer(&fakeSessions{registerOut: &models.User{ID: "u1", Username: "alice"}}, &fakeFolders{})
	w := doJSON(t, sOK, http.MethodPost, "/api/register", `{"username":"alice","password":"pw"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", w.Code, w.Body.String())
	}

	sDup := newTestServer(&fakeSessions{registerErr: common.ErrorAlreadyExists}, &fakeFolders{})
	w = doJSON(t, sDup, http.MethodPost, "/api/register", `{"username":"alice","password":"pw"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}

	w = doJSON(t, sOK, http.MethodPost, "/api/register", `{"username":"alice"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password status = %d", w.Code)
	}
}

func TestLogin_SetsScopedCookies(t *testing.T) {
	s := newTestServer(&fakeSessions{loginOut: &services.TokenPair{AccessToken: "A", RefreshToken: "R"}}, &fakeFolders{})
	w := doJSON(t, s, http.MethodPost, "/api/login", `{"username":"u","password":"p"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}

	var access, refresh *http.Cookie
	for _, ck := range w.Result().Cookies() {
		switch ck.Name {
		case "access_token":
			access = ck
		case "refresh_token":
			refresh = ck
		}
	}
	if access == nil || access.Path != "/api" || !access.HttpOnly || access.Value != "A" {
		t.Fatalf("access cookie wrong: %+v", access)
	}
	if refresh == nil || refresh.Path != "/api/session/manage" || !refresh.HttpOnly || refresh.Value != "R" {
		t.Fatalf("refresh cookie wrong: %+v", refresh)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	s := newTestServer(&fakeSessions{loginErr: common.ErrorUnauthorized}, &fakeFolders{})
	w := doJSON(t, s, http.MethodPost, "/api/login", `{"username":"u","password":"p"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d", w.Code)
	}
}

func TestValidate_TokenSources(t *testing.T) {
	s := newTestServer(authed(&services.Identity{UserID: "u1", Username: "alice"}), &fakeFolders{})

	// no token at all
	w := doJSON(t, s, http.MethodGet, "/api/session/validate", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", w.Code)
	}

	// bearer header
	w = doJSON(t, s, http.MethodGet, "/api/session/validate", "", withBearer)
	if w.Code != http.StatusOK {
		t.Fatalf("bearer status = %d", w.Code)
	}

	// cookie
	w = doJSON(t, s, http.MethodGet, "/api/session/validate", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "tok"})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cookie status = %d", w.Code)
	}

	var body struct {
		Data struct {
			UserID   string `json:"user_id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Data.UserID != "u1" || body.Data.Username != "alice" {
		t.Fatalf("identity wrong: %+v", body.Data)
	}
}

func TestRefresh_PrefersCookieOverBody(t *testing.T) {
	fs := &fakeSessions{refreshOut: &services.TokenPair{AccessToken: "A2", RefreshToken: "R2"}}
	s := newTestServer(fs, &fakeFolders{})

	w := doJSON(t, s, http.MethodPost, "/api/session/manage/refresh", `{"refresh_token":"from-body"}`, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "from-cookie"})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", w.Code)
	}
	if fs.refreshIn != "from-cookie" {
		t.Fatalf("refresh token source = %q, want cookie", fs.refreshIn)
	}

	// body fallback
	fs2 := &fakeSessions{refreshOut: &services.TokenPair{AccessToken: "A2", RefreshToken: "R2"}}
	s2 := newTestServer(fs2, &fakeFolders{})
	w = doJSON(t, s2, http.MethodPost, "/api/session/manage/refresh", `{"refresh_token":"from-body"}`, nil)
	if w.Code != http.StatusOK || fs2.refreshIn != "from-body" {
		t.Fatalf("body fallback: status=%d token=%q", w.Code, fs2.refreshIn)
	}

	// replayed token
	s3 := newTestServer(&fakeSessions{refreshErr: common.ErrorUnauthorized}, &fakeFolders{})
	w = doJSON(t, s3, http.MethodPost, "/api/session/manage/refresh", `{"refresh_token":"old"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d", w.Code)
	}
}

func TestLogout_ClearsCookies(t *testing.T) {
	fs := &fakeSessions{}
	s := newTestServer(fs, &fakeFolders{})

	w := doJSON(t, s, http.MethodPost, "/api/session/manage/logout", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "acc"})
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "ref"})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d body=%s", w.Code, w.Body.String())
	}
	if fs.logoutAccessIn != "acc" || fs.logoutRefreshIn != "ref" {
		t.Fatalf("logout inputs: access=%q refresh=%q", fs.logoutAccessIn, fs.logoutRefreshIn)
	}
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge >= 0 {
			t.Fatalf("cookie %q not cleared: %+v", ck.Name, ck)
		}
	}

	// invalid access token → forbidden
	s2 := newTestServer(&fakeSessions{logoutErr: common.ErrorForbidden}, &fakeFolders{})
	w = doJSON(t, s2, http.MethodPost, "/api/session/manage/logout", "", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("forbidden logout status = %d", w.Code)
	}
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(&fakeSessions{validateErr: common.ErrorUnauthorized}, &fakeFolders{})

	for _, rt := range []struct{ method, path string }{
		{http.MethodPost, "/api/folders"},
		{http.MethodGet, "/api/folders"},
		{http.MethodGet, "/api/folders/f1/files"},
		{http.MethodPut, "/api/folders/f1/permissions"},
		{http.MethodPost, "/api/folders/f1/files"},
		{http.MethodGet, "/api/files/x1/download"},
		{http.MethodDelete, "/api/files/x1"},
	} {
		w := doJSON(t, s, rt.method, rt.path, "", withBearer)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d, want 401", rt.method, rt.path, w.Code)
		}
	}
}

func TestCreateFolder_Statuses(t *testing.T) {
	id := &services.Identity{UserID: "u1", Username: "alice"}

	s := newTestServer(authed(id), &fakeFolders{createOut: &models.Folder{ID: "f1", Name: "docs"}})
	w := doJSON(t, s, http.MethodPost, "/api/folders", `{"name":"docs"}`, withBearer)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}

	sDup := newTestServer(authed(id), &fakeFolders{createErr: common.ErrorAlreadyExists})
	w = doJSON(t, sDup, http.MethodPost, "/api/folders", `{"name":"docs"}`, withBearer)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}
}

func TestListFolders_Payload(t *testing.T) {
	id := &services.Identity{UserID: "u1", Username: "alice"}
	s := newTestServer(authed(id), &fakeFolders{listOut: []*models.FolderListing{
		{ID: "f1", Name: "docs", OwnerUsername: "bob", Capability: models.Capability{Read: true}},
	}})

	w := doJSON(t, s, http.MethodGet, "/api/folders?page=2&page_size=5", "", withBearer)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}

	var body struct {
		Data []folderResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Owner != "bob" || !body.Data[0].Capabilities.Read || body.Data[0].Capabilities.Upload {
		t.Fatalf("payload wrong: %+v", body.Data)
	}
}

func TestModifyPermissions_RequiresAllThreeFlags(t *testing.T) {
	id := &services.Identity{UserID: "u1", Username: "alice"}
	ff := &fakeFolders{}
	s := newTestServer(authed(id), ff)

	// one flag missing → the request never reaches the service
	w := doJSON(t, s, http.MethodPut, "/api/folders/f1/permissions",
		`{"username":"bob","read":true,"upload":false}`, withBearer)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("partial set status = %d", w.Code)
	}
	if ff.modifyCaps != nil {
		t.Fatalf("service must not be called on a partial set")
	}

	// explicit false is not "missing"
	w = doJSON(t, s, http.MethodPut, "/api/folders/f1/permissions",
		`{"username":"bob","read":false,"upload":false,"delete":false}`, withBearer)
	if w.Code != http.StatusOK {
		t.Fatalf("revocation status = %d body=%s", w.Code, w.Body.String())
	}
	if ff.modifyCaps == nil || !ff.modifyCaps.Empty() || ff.modifyUser != "bob" {
		t.Fatalf("service inputs wrong: caps=%+v user=%q", ff.modifyCaps, ff.modifyUser)
	}

	// unknown target username is reported, unlike folder probes
	sNF := newTestServer(authed(id), &fakeFolders{modifyErr: common.ErrorNotFound})
	w = doJSON(t, sNF, http.MethodPut, "/api/folders/f1/permissions",
		`{"username":"ghost","read":true,"upload":true,"delete":true}`, withBearer)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown target status = %d", w.Code)
	}

	// non-owner and missing folder both map to 403
	sFb := newTestServer(authed(id), &fakeFolders{modifyErr: common.ErrorForbidden})
	w = doJSON(t, sFb, http.MethodPut, "/api/folders/f1/permissions",
		`{"username":"bob","read":true,"upload":true,"delete":true}`, withBearer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("forbidden status = %d", w.Code)
	}
}

func TestRegisterUpload_ReturnsPresignedURL(t *testing.T) {
	id := &services.Identity{UserID: "u1", Username: "alice"}
	s := newTestServer(authed(id), &fakeFolders{
		uploadFile: &models.File{ID: "x1", FolderID: "f1", Name: "a.txt", Size: 10},
		uploadURL:  "https://s3/put",
	})

	w := doJSON(t, s, http.MethodPost, "/api/folders/f1/files", `{"name":"a.txt","size":10}`, withBearer)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			File      fileResponse `json:"file"`
			UploadURL string       `json:"upload_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Data.UploadURL != "https://s3/put" || body.Data.File.ID != "x1" {
		t.Fatalf("payload wrong: %+v", body.Data)
	}

	// missing size never reaches the service
	w = doJSON(t, s, http.MethodPost, "/api/folders/f1/files", `{"name":"a.txt"}`, withBearer)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing size status = %d", w.Code)
	}
}

func TestDownloadAndDelete_Statuses(t *testing.T) {
	id := &services.Identity{UserID: "u1", Username: "alice"}

	sOK := newTestServer(authed(id), &fakeFolders{downloadURL: "https://s3/get"})
	w := doJSON(t, sOK, http.MethodGet, "/api/files/x1/download", "", withBearer)
	if w.Code != http.StatusOK {
		t.Fatalf("download status = %d", w.Code)
	}

	// unknown file id and no-capability folder give the same refusal
	sFb := newTestServer(authed(id), &fakeFolders{downloadErr: common.ErrorForbidden})
	w = doJSON(t, sFb, http.MethodGet, "/api/files/ghost/download", "", withBearer)
	if w.Code != http.StatusForbidden {
		t.Fatalf("probe status = %d", w.Code)
	}

	sDel := newTestServer(authed(id), &fakeFolders{})
	w = doJSON(t, sDel, http.MethodDelete, "/api/files/x1", "", withBearer)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
}
