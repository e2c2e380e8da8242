package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/rs/zerolog"

	"github.com/thannaske/s3monitor/pkg/models"
)

// AdminClient reads bucket statistics from the Ceph RGW Admin API.
// It answers size queries without walking every object.
type AdminClient struct {
	httpClient *http.Client
	endpoint   string
	accessKey  string
	secretKey  string
	region     string
	logger     zerolog.Logger
}

// NewAdminClient creates a client for the RGW Admin API of the configured endpoint
func NewAdminClient(cfg models.Config, logger zerolog.Logger) *AdminClient {
	return &AdminClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:  cfg.S3Endpoint,
		accessKey: cfg.S3AccessKey,
		secretKey: cfg.S3SecretKey,
		region:    cfg.S3Region,
		logger:    logger.With().Str("backend", models.SizeSourceRGWAdmin).Logger(),
	}
}

// BucketStats represents the statistics of a bucket from Ceph RGW Admin API
type BucketStats struct {
	Bucket    string `json:"bucket"`
	Usage     Usage  `json:"usage"`
	OwnerName string `json:"owner"`
}

// Usage contains usage statistics for a bucket
type Usage struct {
	RgwMain struct {
		SizeKB       int64 `json:"size_kb"`
		SizeKBActual int64 `json:"size_kb_actual"`
		NumObjects   int64 `json:"num_objects"`
	} `json:"rgw.main"`
}

// executeSignedRequest executes an API request with proper AWS v4 signature
func (c *AdminClient) executeSignedRequest(ctx context.Context, method, path string, queryParams url.Values) ([]byte, error) {
	parsedURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint URL: %w", err)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	parsedURL.Path = path
	if queryParams != nil {
		parsedURL.RawQuery = queryParams.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, parsedURL.String(), bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Admin requests carry no body
	sum := sha256.Sum256(nil)
	payloadHash := hex.EncodeToString(sum[:])
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	creds := aws.Credentials{
		AccessKeyID:     c.accessKey,
		SecretAccessKey: c.secretKey,
	}
	signer := v4.NewSigner()
	if err := signer.SignHTTP(ctx, creds, req, payloadHash, "s3", c.region, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	c.logger.Trace().Str("method", method).Str("url", req.URL.String()).Msg("executing admin request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// GetBucketStats retrieves the statistics of a bucket
func (c *AdminClient) GetBucketStats(ctx context.Context, bucketName string) (*BucketStats, error) {
	queryParams := url.Values{}
	queryParams.Set("bucket", bucketName)
	queryParams.Set("stats", "true")

	respBody, err := c.executeSignedRequest(ctx, http.MethodGet, "/admin/bucket", queryParams)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket stats: %w", err)
	}

	var stats BucketStats
	if err := json.Unmarshal(respBody, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &stats, nil
}

// BucketSize returns the bucket size in bytes as reported by RGW
func (c *AdminClient) BucketSize(ctx context.Context, bucketName string) (int64, error) {
	stats, err := c.GetBucketStats(ctx, bucketName)
	if err != nil {
		return 0, err
	}
	// Convert KB to bytes
	return stats.Usage.RgwMain.SizeKB * 1024, nil
}
