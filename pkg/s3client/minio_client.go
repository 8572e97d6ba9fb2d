package s3client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bstardust/photosync/internal/logger"
)

// Config represents the configuration for an S3 client
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
	// DisableChecksums turns off content checksums for providers that
	// reject them, such as Backblaze B2.
	DisableChecksums bool
}

// Validate checks the required connection settings
func (cfg Config) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("S3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("S3 bucket name is required")
	}
	if err := ValidateBucketName(cfg.Bucket); err != nil {
		return fmt.Errorf("invalid S3 bucket %q: %w", cfg.Bucket, err)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return fmt.Errorf("S3 access key and secret key are required")
	}
	return nil
}

// host returns the endpoint without a protocol prefix
func (cfg Config) host() string {
	endpoint := strings.TrimPrefix(cfg.Endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimSuffix(endpoint, "/")
}

// MinioClient represents an S3 client using the MinIO SDK
type MinioClient struct {
	client *minio.Client
	config Config
}

// NewMinIO creates a new MinIO S3 client and checks that the bucket exists
func NewMinIO(ctx context.Context, cfg Config) (*MinioClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := cfg.host()

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s: %w", cfg.Bucket, ErrBucketNotFound)
	}

	logger.Info("Successfully connected to S3 endpoint %s, bucket %s", endpoint, cfg.Bucket)

	return &MinioClient{
		client: client,
		config: cfg,
	}, nil
}

// UploadFile uploads a file to S3
func (c *MinioClient) UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error {
	objectKey = c.getObjectKey(objectKey)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}
	if c.config.DisableChecksums {
		opts.SendContentMd5 = false
		opts.DisableContentSha256 = true
	}

	info, err := c.client.PutObject(ctx, c.config.Bucket, objectKey, reader, size, opts)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	logger.Debug("Uploaded file to %s (%s, etag: %s)", objectKey, humanize.Bytes(uint64(info.Size)), info.ETag)
	return nil
}

// DeleteObject deletes an object from the bucket
func (c *MinioClient) DeleteObject(ctx context.Context, objectKey string) error {
	objectKey = c.getObjectKey(objectKey)

	err := c.client.RemoveObject(ctx, c.config.Bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		if IsNotFoundError(err) {
			logger.Debug("Object %s already gone", objectKey)
			return nil
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}

	logger.Debug("Deleted object %s", objectKey)
	return nil
}

// ObjectURL returns the path-style URL of an object
func (c *MinioClient) ObjectURL(objectKey string) string {
	return ObjectURL(c.config, objectKey)
}

// ObjectURL builds the path-style URL of objectKey under cfg's bucket and
// prefix
func ObjectURL(cfg Config, objectKey string) string {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   cfg.host(),
		Path:   "/" + path.Join(cfg.Bucket, JoinKey(cfg.Prefix, objectKey)),
	}
	return u.String()
}

// getObjectKey returns the full object key with prefix
func (c *MinioClient) getObjectKey(key string) string {
	return JoinKey(c.config.Prefix, key)
}

// JoinKey prepends prefix to key with exactly one separating slash
func JoinKey(prefix, key string) string {
	key = strings.TrimPrefix(key, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

// GetPrefix returns the prefix
func (c *MinioClient) GetPrefix() string {
	return c.config.Prefix
}
