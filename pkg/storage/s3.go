package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/thannaske/s3monitor/pkg/models"
)

// compile-time check that S3Client satisfies the Storage interface.
var _ Storage = (*S3Client)(nil)

// S3Client talks to an S3 compatible endpoint such as Ceph RGW
type S3Client struct {
	client *s3.Client
	admin  *AdminClient
	logger zerolog.Logger
}

// NewS3Client creates a new S3 client for the configured endpoint
func NewS3Client(cfg models.Config, logger zerolog.Logger) (*S3Client, error) {
	// Create AWS credentials with the provided access and secret keys
	creds := credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")

	awsCfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithCredentialsProvider(creds),
		config.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	c := &S3Client{
		client: client,
		logger: logger.With().Str("backend", models.BackendS3).Logger(),
	}
	if cfg.S3SizeSource == models.SizeSourceRGWAdmin {
		c.admin = NewAdminClient(cfg, logger)
	}
	return c, nil
}

// ListBuckets lists all buckets of the account
func (c *S3Client) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := c.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// BucketSize sums the size of every object in the bucket. When the RGW admin
// size source is configured the bucket stats are used instead of a listing.
func (c *S3Client) BucketSize(ctx context.Context, bucket string, pageSize int32) (int64, error) {
	if c.admin != nil {
		return c.admin.BucketSize(ctx, bucket)
	}

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(pageSize),
	})

	var total int64
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list objects: %w", err)
		}
		pages++
		for _, obj := range page.Contents {
			total += aws.ToInt64(obj.Size)
		}
	}

	c.logger.Debug().Str("bucket", bucket).Int("pages", pages).Int64("bytes", total).Msg("measured bucket")
	return total, nil
}

// CleanMultiparts aborts all incomplete multipart uploads of the bucket
func (c *S3Client) CleanMultiparts(ctx context.Context, bucket string) (int, error) {
	input := &s3.ListMultipartUploadsInput{Bucket: aws.String(bucket)}

	var errs error
	aborted := 0
	for {
		out, err := c.client.ListMultipartUploads(ctx, input)
		if err != nil {
			return aborted, multierr.Append(errs, fmt.Errorf("failed to list multipart uploads: %w", err))
		}

		for _, upload := range out.Uploads {
			key := aws.ToString(upload.Key)
			_, err := c.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
				Bucket:   aws.String(bucket),
				Key:      upload.Key,
				UploadId: upload.UploadId,
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("failed to abort upload %s of %s: %w",
					aws.ToString(upload.UploadId), key, err))
				continue
			}
			c.logger.Debug().Str("bucket", bucket).Str("key", key).Msg("aborted multipart upload")
			aborted++
		}

		if !aws.ToBool(out.IsTruncated) || (out.NextKeyMarker == nil && out.NextUploadIdMarker == nil) {
			break
		}
		input.KeyMarker = out.NextKeyMarker
		input.UploadIdMarker = out.NextUploadIdMarker
	}

	return aborted, errs
}
