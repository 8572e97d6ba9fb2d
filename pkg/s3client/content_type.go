package s3client

import (
	"mime"
	"path/filepath"
	"strings"
)

// MIME types for photo formats a device library may hold
var photoMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".dng":  "image/x-adobe-dng",
}

// DetectContentType determines the content type of a file based on its extension
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	if mimeType, ok := photoMimeTypes[ext]; ok {
		return mimeType
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}

	return "application/octet-stream"
}

// IsJPEG reports whether the file name has a JPEG extension
func IsJPEG(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// IsImageFile checks if a file is a photo based on its extension
func IsImageFile(filename string) bool {
	_, ok := photoMimeTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}
