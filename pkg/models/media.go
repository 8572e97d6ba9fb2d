package models

import (
	"strconv"
	"time"
)

// PhotoRef points at one photo in a device library.
type PhotoRef struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// GeoPoint is a signed decimal-degree position.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Timestamp sources, most to least trusted
const (
	TimeSourceExifOriginal = "exif-original"
	TimeSourceExif         = "exif"
	TimeSourceFile         = "file"
)

// PhotoMetadata is everything sent along with the photo bytes on upload.
type PhotoMetadata struct {
	TakenAt          time.Time `json:"taken_at"`
	TakenAtSource    string    `json:"taken_at_source"`
	Location         string    `json:"location,omitempty"`
	ContentHash      string    `json:"content_hash,omitempty"`
	GPS              *GeoPoint `json:"gps,omitempty"`
	CameraMake       string    `json:"camera_make,omitempty"`
	CameraModel      string    `json:"camera_model,omitempty"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	ContentType      string    `json:"content_type,omitempty"`
	Size             int64     `json:"size"`
}

// ToMap converts metadata to a map for S3 object metadata
func (m PhotoMetadata) ToMap() map[string]string {
	result := make(map[string]string)

	if !m.TakenAt.IsZero() {
		result["taken-at"] = m.TakenAt.Format(time.RFC3339)
		result["taken-at-source"] = m.TakenAtSource
	}
	if m.Location != "" {
		result["location"] = m.Location
	}
	if m.ContentHash != "" {
		result["content-hash"] = m.ContentHash
	}
	if m.GPS != nil {
		result["geo-latitude"] = strconv.FormatFloat(m.GPS.Latitude, 'f', 6, 64)
		result["geo-longitude"] = strconv.FormatFloat(m.GPS.Longitude, 'f', 6, 64)
	}
	if m.CameraMake != "" {
		result["camera-make"] = m.CameraMake
	}
	if m.CameraModel != "" {
		result["camera-model"] = m.CameraModel
	}
	if m.OriginalFilename != "" {
		result["original-filename"] = m.OriginalFilename
	}

	return result
}

// UploadResult is returned once a photo is stored and recorded.
type UploadResult struct {
	ID        string `json:"id"`
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
}

// PhotoRecord is a row in the photo store.
type PhotoRecord struct {
	ID           string
	UserID       string
	ObjectKey    string
	URL          string
	ContentHash  string
	TakenAt      time.Time
	Location     string
	GPS          *GeoPoint
	OriginalName string
	ContentType  string
	Size         int64
	CreatedAt    time.Time
}
