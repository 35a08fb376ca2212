// Package storage persists uploaded picture blobs and maps them to public
// paths.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"postboard/app/config"
)

// ErrInvalidName is returned for names that would escape the store.
var ErrInvalidName = errors.New("invalid blob name")

// BlobStore writes blobs and reports where they are publicly reachable.
type BlobStore interface {
	// Put stores data under name and returns the public path or URL.
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	// Exists reports whether the blob behind a public path is present.
	Exists(ctx context.Context, publicPath string) (bool, error)
}

// Server is implemented by stores that serve their own blobs over HTTP.
type Server interface {
	PublicPrefix() string
	Handler() http.Handler
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "", "disk":
		return NewDiskStore(cfg.Dir, cfg.PublicPrefix)
	case "minio":
		return NewMinioStore(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
