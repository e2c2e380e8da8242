package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/thannaske/s3monitor/pkg/models"
)

// compile-time check that MinioClient satisfies the Storage interface.
var _ Storage = (*MinioClient)(nil)

// MinioClient wraps the MinIO SDK and implements Storage.
type MinioClient struct {
	client *minio.Client
	logger zerolog.Logger
}

// NewMinioClient creates a new MinIO storage client.
func NewMinioClient(cfg models.Config, logger zerolog.Logger) (*MinioClient, error) {
	host, secure, err := splitEndpoint(cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}

	mc, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure:       secure,
		Region:       cfg.S3Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return &MinioClient{
		client: mc,
		logger: logger.With().Str("backend", models.BackendMinio).Logger(),
	}, nil
}

// splitEndpoint turns an endpoint URL into the host and TLS flag minio-go expects.
// A bare host:port is treated as plain HTTP.
func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

// ListBuckets lists all buckets of the account
func (c *MinioClient) ListBuckets(ctx context.Context) ([]string, error) {
	buckets, err := c.client.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

// BucketSize sums the size of every object in the bucket
func (c *MinioClient) BucketSize(ctx context.Context, bucket string, pageSize int32) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var total int64
	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Recursive: true,
		MaxKeys:   int(pageSize),
	}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("list objects: %w", obj.Err)
		}
		total += obj.Size
	}

	c.logger.Debug().Str("bucket", bucket).Int64("bytes", total).Msg("measured bucket")
	return total, nil
}

// CleanMultiparts removes every incomplete upload of the bucket
func (c *MinioClient) CleanMultiparts(ctx context.Context, bucket string) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// RemoveIncompleteUpload drops all uploads of a key at once
	var keys []string
	seen := make(map[string]struct{})
	for upload := range c.client.ListIncompleteUploads(ctx, bucket, "", true) {
		if upload.Err != nil {
			return 0, fmt.Errorf("list incomplete uploads: %w", upload.Err)
		}
		if _, ok := seen[upload.Key]; ok {
			continue
		}
		seen[upload.Key] = struct{}{}
		keys = append(keys, upload.Key)
	}

	var errs error
	removed := 0
	for _, key := range keys {
		if err := c.client.RemoveIncompleteUpload(ctx, bucket, key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove incomplete upload %q: %w", key, err))
			continue
		}
		c.logger.Debug().Str("bucket", bucket).Str("key", key).Msg("removed incomplete upload")
		removed++
	}
	return removed, errs
}
