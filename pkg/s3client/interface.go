package s3client

import (
	"context"
	"io"
)

// ObjectStorage defines the operations the photo uploader needs from an
// S3-compatible store
type ObjectStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error
	DeleteObject(ctx context.Context, objectKey string) error
	ObjectURL(objectKey string) string
	GetPrefix() string
}
