// Package storage keeps uploaded artifacts: delivery files and bid proposals.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xin-kz910/SE-project/internal/config"
)

var ErrNotFound = errors.New("storage: object not found")

type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is implemented by LocalStore and MinioStore. Keys are slash separated
// and never start with a slash.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Open picks the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinioStore(ctx, cfg.MinIO)
	case "local", "":
		return NewLocalStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
