package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rongwang/condo-ledger/internal/config"
)

// ErrNotFound is returned when a blob does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore keeps attachment bytes outside the database
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New builds the blob store selected in the configuration
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsJSON)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
