package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"photoshare/database"
	"photoshare/models"
	"photoshare/processing"
	"photoshare/storage"
)

type testEnv struct {
	store     *database.SQLiteStore
	objects   *storage.DiskStorage
	uploadDir string
	photos    *PhotoService
	likes     *LikeService
	users     *UserService
}

func newTestEnv(t *testing.T) *testEnv {
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

	likes := NewLikeService(store, store)
	return &testEnv{
		store:     store,
		objects:   objects,
		uploadDir: uploadDir,
		photos:    NewPhotoService(store, objects, processing.New(cfg), likes),
		likes:     likes,
		users:     NewUserService(store, "secret", time.Hour),
	}
}

func (e *testEnv) user(t *testing.T, id string) string {
	t.Helper()
	now := time.Now()
	require.NoError(t, e.store.CreateUser(context.Background(), &models.User{
		ID:        id,
		FirstName: "Test",
		LastName:  id,
		Email:     id + "@example.com",
		Password:  "hash",
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return id
}

func (e *testEnv) files(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(e.uploadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(e.uploadDir, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func (e *testEnv) photoCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.store.DB.Model(&models.Photo{}).Count(&n).Error)
	return n
}

func pngSource(t *testing.T, name string, w, h int) processing.Source {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y += 7 {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return processing.FromBytes(name, buf.Bytes())
}
