package storage

import (
	"context"
	"fmt"
	"io"

	"photoshare/config"
)

// ObjectStore holds the rendition files referenced by photos.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete succeeds when the object is already gone.
	Delete(ctx context.Context, key string) error
	// URL returns an address clients can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}

func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.BucketName,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
			PresignTTL:      cfg.PresignTTL,
		})
	case "minio":
		return NewMinioStorage(ctx, MinioConfig{
			Endpoint:   cfg.MinioHost,
			AccessKey:  cfg.MinioAccessKey,
			SecretKey:  cfg.MinioSecretKey,
			UseSSL:     cfg.MinioUseSSL,
			Bucket:     cfg.BucketName,
			PresignTTL: cfg.PresignTTL,
		})
	case "disk":
		return NewDiskStorage(cfg.UploadDir, cfg.BaseURL+"/uploads")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// DeleteAll removes every key and returns the first failure.
func DeleteAll(ctx context.Context, store ObjectStore, keys []string) error {
	var first error
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil && first == nil {
			first = fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return first
}
