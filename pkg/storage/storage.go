// Package storage provides the object-storage backends the monitor measures
// and cleans up: the S3 API (optionally sized through the Ceph RGW admin API)
// and MinIO.
package storage

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/thannaske/s3monitor/pkg/models"
)

// Storage lists buckets, measures them and removes stale multipart uploads.
type Storage interface {
	// ListBuckets returns every bucket name visible to the credentials,
	// in the order the backend reports them.
	ListBuckets(ctx context.Context) ([]string, error)

	// BucketSize returns the aggregate size of all objects in bytes.
	// pageSize is a hint for the number of keys requested per listing call.
	BucketSize(ctx context.Context, bucket string, pageSize int32) (int64, error)

	// CleanMultiparts aborts every incomplete multipart upload in the bucket
	// and returns how many were removed.
	CleanMultiparts(ctx context.Context, bucket string) (int, error)
}

// New creates the backend selected by cfg.S3Backend
func New(cfg models.Config, logger zerolog.Logger) (Storage, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	switch cfg.S3Backend {
	case models.BackendMinio:
		return NewMinioClient(cfg, logger)
	default:
		return NewS3Client(cfg, logger)
	}
}
