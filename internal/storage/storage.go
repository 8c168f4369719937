// Package storage keeps payment proof images in an object store.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hoa-backend/internal/config"
)

// ObjectStore stores opaque blobs under slash-separated keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a link a browser can open, presigned where the backend supports it.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by storage.driver.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	ttl := cfg.PresignTTL()
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3", "r2":
		return NewS3Store(ctx, S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Prefix:          cfg.Storage.Prefix,
			PresignTTL:      ttl,
		})
	case "minio":
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			UseSSL:          cfg.Storage.UseSSL,
			Region:          cfg.Storage.Region,
			Prefix:          cfg.Storage.Prefix,
			PresignTTL:      ttl,
		})
	case "", "local":
		return NewLocalStore(cfg.Storage.BaseDir, cfg.Storage.PublicPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// validKey rejects empty keys and path traversal.
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid object key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid object key %q", key)
		}
	}
	return nil
}
