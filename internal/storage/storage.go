// Package storage keeps attached document bytes outside the database.
package storage

import (
	"context"
	"fmt"

	"github.com/Domenick1991/itinerary/config"
)

type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// Get returns a domain.NotFoundError when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New picks the backend named by cfg.Driver.
func New(cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("storage.s3.bucket is required")
		}
		return NewS3Store(cfg.S3), nil
	case "local", "":
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
