package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"postboard/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/storage/uploads/")
	require.NoError(t, err)
	assert.Equal(t, "/storage/uploads", store.PublicPrefix())

	t.Run("put and exists", func(t *testing.T) {
		path, err := store.Put(ctx, "1700000000_a.png", []byte("png"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "/storage/uploads/1700000000_a.png", path)

		data, err := os.ReadFile(store.Path("1700000000_a.png"))
		require.NoError(t, err)
		assert.Equal(t, "png", string(data))

		ok, err := store.Exists(ctx, path)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing blob", func(t *testing.T) {
		ok, err := store.Exists(ctx, "/storage/uploads/missing.png")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.Exists(ctx, "/elsewhere/a.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, name := range []string{"", "..", "../escape.png", `a\b.png`, "a/b.png"} {
			_, err := store.Put(ctx, name, []byte("x"), "image/png")
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})

	t.Run("serves blobs", func(t *testing.T) {
		_, err := store.Put(ctx, "served.png", []byte("served"), "image/png")
		require.NoError(t, err)

		handler := store.Handler()
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/uploads/served.png", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "served", w.Body.String())

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage/uploads/", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("escapes reserved characters", func(t *testing.T) {
		handler := store.Handler()
		for name, want := range map[string]string{
			"photo #1.png": "/storage/uploads/photo%20%231.png",
			"what?.png":    "/storage/uploads/what%3F.png",
			"100%.png":     "/storage/uploads/100%25.png",
		} {
			path, err := store.Put(ctx, name, []byte(name), "image/png")
			require.NoError(t, err, name)
			assert.Equal(t, want, path)

			_, err = os.Stat(store.Path(name))
			assert.NoError(t, err, "stored under its raw name")

			ok, err := store.Exists(ctx, path)
			require.NoError(t, err)
			assert.True(t, ok, name)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, name)
			assert.Equal(t, name, w.Body.String())
		}

		ok, err := store.Exists(ctx, "/storage/uploads/bad%zz.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNewStore(t *testing.T) {
	cfg := config.Default().Storage
	cfg.Dir = t.TempDir()

	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &DiskStore{}, store)
	assert.Implements(t, (*Server)(nil), store)

	cfg.Driver = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestMinioPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", publicBaseURL(config.MinIOConfig{Endpoint: "localhost:9000"}))
	assert.Equal(t, "https://s3.example.com", publicBaseURL(config.MinIOConfig{Endpoint: "s3.example.com", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(config.MinIOConfig{Endpoint: "minio:9000", PublicURL: "https://cdn.example.com/"}))
}

func TestMinioObjectURL(t *testing.T) {
	s := &MinioStore{baseURL: "http://localhost:9000", bucket: "uploads"}
	assert.Equal(t, "http://localhost:9000/uploads/1700000000_a.png", s.objectURL("1700000000_a.png"))
	assert.Equal(t, "http://localhost:9000/uploads/photo%20%231.png", s.objectURL("photo #1.png"))
	assert.Equal(t, "http://localhost:9000/uploads/100%25.png", s.objectURL("100%.png"))
}
