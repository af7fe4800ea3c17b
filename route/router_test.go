package route

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshare/database"
	"photoshare/processing"
	"photoshare/services"
	"photoshare/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *database.SQLiteStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	store, err := database.OpenSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	uploadDir := filepath.Join(dir, "uploads")
	objects, err := storage.NewDiskStorage(uploadDir, "/uploads")
	require.NoError(t, err)

	cfg := processing.DefaultConfig()
	cfg.WorkDir = t.TempDir()

	likes := services.NewLikeService(store, store)
	router := NewRouter(Deps{
		Users:        services.NewUserService(store, "secret", time.Hour),
		Photos:       services.NewPhotoService(store, objects, processing.New(cfg), likes),
		Likes:        likes,
		DB:           store,
		Secret:       "secret",
		MaxBodyBytes: cfg.MaxUploadBytes + 1<<20,
		StaticDir:    uploadDir,
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) upload(t *testing.T, method, path, token, title string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		require.NoError(t, mw.WriteField("title", title))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

// signup registers and logs in a user, returning the bearer token.
func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w := s.json(http.MethodPost, "/registration", "", gin.H{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"password":   "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json(http.MethodPost, "/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

type photoBody struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Likes    int64  `json:"likes"`
	Liked    bool   `json:"liked"`
	Variants map[string]struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"variants"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHomeAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/photos")

	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")

	w := s.json(http.MethodPost, "/registration", "", gin.H{
		"first_name": "Test",
		"last_name":  "User",
		"email":      "ANA@example.com",
		"password":   "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.json(http.MethodPost, "/login", "", gin.H{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@example.com", decode[map[string]any](t, w)["email"])

	w = s.json(http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodGet, "/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginCookieAuthenticates(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "cookie@example.com")

	w := s.json(http.MethodPost, "/login", "", gin.H{"email": "cookie@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	w = s.do(req, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.json(http.MethodPost, "/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "pw@example.com")

	w := s.json(http.MethodPatch, "/me/password", token, gin.H{"current_password": "nope", "new_password": "another1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodPatch, "/me/password", token, gin.H{"current_password": "secret123", "new_password": "another1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.json(http.MethodPost, "/login", "", gin.H{"email": "pw@example.com", "password": "another1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegistrationValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.json(http.MethodPost, "/registration", "", gin.H{
		"first_name": "Test",
		"email":      "not-an-email",
		"password":   "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhotoLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "owner@example.com")

	w := s.upload(t, http.MethodPost, "/photos", token, "sunset", pngBytes(t, 1000, 500))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[photoBody](t, w)
	assert.Equal(t, "sunset", created.Title)
	assert.Equal(t, "stored", created.Status)
	require.Len(t, created.Variants, 3)
	assert.Equal(t, 300, created.Variants["medium"].Width)
	assert.Equal(t, 150, created.Variants["medium"].Height)
	assert.Equal(t, 80, created.Variants["thumb"].Width)
	assert.True(t, strings.HasPrefix(created.Variants["thumb"].URL, "/uploads/"))

	// Renditions are served from the upload directory.
	w = s.do(httptest.NewRequest(http.MethodGet, created.Variants["thumb"].URL, nil), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/photos", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Photos []photoBody `json:"photos"`
		Total  int         `json:"total"`
	}](t, w)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, created.ID, list.Photos[0].ID)

	w = s.upload(t, http.MethodPatch, "/photos/"+created.ID, token, "dusk", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "dusk", decode[photoBody](t, w).Title)

	w = s.do(httptest.NewRequest(http.MethodDelete, "/photos/"+created.ID, nil), token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/photos/"+created.ID, nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePhotoRejectsBadUploads(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "bad@example.com")

	w := s.upload(t, http.MethodPost, "/photos", "", "anon", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.upload(t, http.MethodPost, "/photos", token, "empty", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, http.MethodPost, "/photos", token, "text", []byte("definitely not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	corrupt := pngBytes(t, 50, 50)[:60]
	w = s.upload(t, http.MethodPost, "/photos", token, "corrupt", corrupt)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/photos", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[struct {
		Total int `json:"total"`
	}](t, w).Total)
}

func TestOnlyOwnerCanModify(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	other := s.signup(t, "other@example.com")

	w := s.upload(t, http.MethodPost, "/photos", owner, "mine", pngBytes(t, 120, 120))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[photoBody](t, w).ID

	w = s.upload(t, http.MethodPatch, "/photos/"+id, other, "theirs", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodDelete, "/photos/"+id, nil), other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/photos/"+id, nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mine", decode[photoBody](t, w).Title)
}

func TestToggleLike(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	fan := s.signup(t, "fan@example.com")

	w := s.upload(t, http.MethodPost, "/photos", owner, "likeable", pngBytes(t, 100, 100))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[photoBody](t, w).ID

	type likeBody struct {
		Liked bool  `json:"liked"`
		Likes int64 `json:"likes"`
	}

	w = s.do(httptest.NewRequest(http.MethodPatch, "/photos/"+id+"/like", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodPatch, "/photos/"+id+"/like", nil), fan)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, likeBody{Liked: true, Likes: 1}, decode[likeBody](t, w))

	w = s.do(httptest.NewRequest(http.MethodGet, "/photos/"+id, nil), fan)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[photoBody](t, w)
	assert.True(t, view.Liked)
	assert.EqualValues(t, 1, view.Likes)

	w = s.do(httptest.NewRequest(http.MethodGet, "/photos/"+id, nil), "")
	assert.False(t, decode[photoBody](t, w).Liked)

	w = s.do(httptest.NewRequest(http.MethodPatch, "/photos/"+id+"/like", nil), fan)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, likeBody{Liked: false, Likes: 0}, decode[likeBody](t, w))

	w = s.do(httptest.NewRequest(http.MethodPatch, "/photos/missing/like", nil), fan)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadBodyLimit(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "big@example.com")

	// Rebuild the router with a tiny body limit over the same store.
	cfg := processing.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	objects, err := storage.NewDiskStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	likes := services.NewLikeService(s.store, s.store)
	s.router = NewRouter(Deps{
		Users:        services.NewUserService(s.store, "secret", time.Hour),
		Photos:       services.NewPhotoService(s.store, objects, processing.New(cfg), likes),
		Likes:        likes,
		DB:           s.store,
		Secret:       "secret",
		MaxBodyBytes: 1024,
	})

	w := s.upload(t, http.MethodPost, "/photos", token, "huge", bytes.Repeat([]byte{0xff}, 64<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
