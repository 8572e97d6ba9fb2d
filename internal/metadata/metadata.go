package metadata

import (
	"bytes"
	"path"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/bstardust/photosync/internal/exif"
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/models"
	"github.com/bstardust/photosync/pkg/s3client"
)

// Extractor builds upload metadata for a photo
type Extractor struct {
	timezone *time.Location
}

// NewExtractor creates a new metadata extractor. Naive EXIF timestamps are
// interpreted in timezone.
func NewExtractor(timezone *time.Location) *Extractor {
	if timezone == nil {
		timezone = time.UTC
	}
	return &Extractor{
		timezone: timezone,
	}
}

// Extract decodes the photo's EXIF segment and fills in everything the
// upload needs except the location and content hash. The capture time falls
// back from DateTimeOriginal to DateTime to the file modification time.
func (e *Extractor) Extract(data []byte, ref models.PhotoRef) models.PhotoMetadata {
	rec := exif.Decode(data)

	meta := models.PhotoMetadata{
		OriginalFilename: path.Base(ref.Path),
		ContentType:      s3client.DetectContentType(ref.Path),
		Size:             int64(len(data)),
	}

	meta.TakenAt, meta.TakenAtSource = e.takenAt(rec, ref)

	if rec.GPS != nil {
		meta.GPS = &models.GeoPoint{
			Latitude:  rec.GPS.Latitude,
			Longitude: rec.GPS.Longitude,
		}
	}

	meta.CameraMake, meta.CameraModel = camera(data)

	return meta
}

func (e *Extractor) takenAt(rec exif.Record, ref models.PhotoRef) (time.Time, string) {
	if t, ok := exif.ParseCaptureTime(rec.DateTimeOriginal, e.timezone); ok {
		return t, models.TimeSourceExifOriginal
	}
	if t, ok := exif.ParseCaptureTime(rec.DateTime, e.timezone); ok {
		return t, models.TimeSourceExif
	}
	return ref.ModTime.In(e.timezone), models.TimeSourceFile
}

// camera reads make and model. Any decoding problem yields empty values.
func camera(data []byte) (cameraMake, cameraModel string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("Camera info decoder panicked: %v", r)
			cameraMake, cameraModel = "", ""
		}
	}()

	x, err := goexif.Decode(bytes.NewReader(data))
	if x == nil {
		logger.Debug("Camera info unavailable: %v", err)
		return "", ""
	}

	if tag, err := x.Get(goexif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			cameraMake = strings.TrimSpace(s)
		}
	}
	if tag, err := x.Get(goexif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			cameraModel = strings.TrimSpace(s)
		}
	}
	return cameraMake, cameraModel
}
