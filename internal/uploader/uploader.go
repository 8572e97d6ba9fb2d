package uploader

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/models"
	"github.com/bstardust/photosync/pkg/s3client"
)

// PhotoStore records uploaded photos
type PhotoStore interface {
	InsertPhoto(ctx context.Context, rec models.PhotoRecord) error
}

// Options control where and how photos are uploaded
type Options struct {
	DryRun bool
	Retry  RetryConfig

	// Timeout bounds the object put of one photo, retries included.
	// Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// Uploader stores photo bytes in object storage and records them in the
// photo store. From the caller's point of view the two steps are atomic: a
// failed insert removes the uploaded object again.
type Uploader struct {
	storage s3client.ObjectStorage
	photos  PhotoStore
	opts    Options

	newID func() string
	now   func() time.Time
}

// New creates a new Uploader. storage and photos may be nil in dry-run mode.
func New(storage s3client.ObjectStorage, photos PhotoStore, opts Options) *Uploader {
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialBackoff == 0 {
		opts.Retry = DefaultRetryConfig()
	}
	return &Uploader{
		storage: storage,
		photos:  photos,
		opts:    opts,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// ObjectKey lays photos out as {userID}/{yyyy}/{mm}/{id}{ext}; the storage
// client adds its own prefix.
func ObjectKey(userID string, takenAt time.Time, id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%04d/%02d/%s%s", userID, takenAt.Year(), int(takenAt.Month()), id, ext)
}

// UploadPhoto uploads one photo and records it. Errors from the photo store,
// including common.ErrDuplicatePhoto, are returned wrapped.
func (u *Uploader) UploadPhoto(ctx context.Context, userID string, data []byte, meta models.PhotoMetadata) (models.UploadResult, error) {
	id := u.newID()

	takenAt := meta.TakenAt
	if takenAt.IsZero() {
		takenAt = u.now()
	}
	key := ObjectKey(userID, takenAt.UTC(), id, meta.OriginalFilename)

	contentType := meta.ContentType
	if contentType == "" {
		contentType = s3client.DetectContentType(meta.OriginalFilename)
	}

	if u.opts.DryRun {
		logger.Info("[DRY RUN] Would upload %s to %s (%s)", meta.OriginalFilename, key, humanize.Bytes(uint64(len(data))))
		return models.UploadResult{ID: id, ObjectKey: key}, nil
	}

	putCtx := ctx
	if u.opts.Timeout > 0 {
		var cancel context.CancelFunc
		putCtx, cancel = context.WithTimeout(ctx, u.opts.Timeout)
		defer cancel()
	}

	err := RetryWithBackoff(putCtx, "upload "+key, func() error {
		return u.storage.UploadFile(putCtx, bytes.NewReader(data), key, int64(len(data)), objectMetadata(meta), contentType)
	}, u.opts.Retry)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("upload object: %w", err)
	}

	url := u.storage.ObjectURL(key)
	rec := models.PhotoRecord{
		ID:           id,
		UserID:       userID,
		ObjectKey:    s3client.JoinKey(u.storage.GetPrefix(), key),
		URL:          url,
		ContentHash:  meta.ContentHash,
		TakenAt:      takenAt,
		Location:     meta.Location,
		GPS:          meta.GPS,
		OriginalName: meta.OriginalFilename,
		ContentType:  contentType,
		Size:         int64(len(data)),
		CreatedAt:    u.now(),
	}

	if err := u.photos.InsertPhoto(ctx, rec); err != nil {
		// the record is what makes the object reachable; drop the orphan
		if delErr := u.storage.DeleteObject(context.WithoutCancel(ctx), key); delErr != nil {
			logger.Warn("Failed to delete orphaned object %s: %v", key, delErr)
		}
		return models.UploadResult{}, fmt.Errorf("record photo: %w", err)
	}

	logger.Debug("Uploaded %s as %s (%s)", meta.OriginalFilename, rec.ObjectKey, humanize.Bytes(uint64(len(data))))
	return models.UploadResult{ID: id, ObjectKey: rec.ObjectKey, URL: url}, nil
}

// objectMetadata encodes non-ASCII values (place names, file names) as
// RFC 2047 words so they survive as HTTP header values.
func objectMetadata(meta models.PhotoMetadata) map[string]string {
	m := meta.ToMap()
	for k, v := range m {
		m[k] = mime.QEncoding.Encode("utf-8", v)
	}
	return m
}
