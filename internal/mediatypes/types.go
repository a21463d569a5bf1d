package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of an uploaded file.
type FileType string

const (
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video file.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// Upload size ceilings.
const (
	MaxVideoBytes     int64 = 100 << 20
	MaxThumbnailBytes int64 = 5 << 20
)

// VideoExtensions maps file extensions to whether they are accepted video uploads.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".wmv":  true,
	".flv":  true,
	".mkv":  true,
	".webm": true,
}

// ImageExtensions maps file extensions to whether they are accepted thumbnail uploads.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MimeTypes maps file extensions to MIME types.
var MimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Ext returns the lowercased extension of name, including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// GetFileType returns the FileType for a lowercased extension.
func GetFileType(ext string) FileType {
	switch {
	case VideoExtensions[ext]:
		return FileTypeVideo
	case ImageExtensions[ext]:
		return FileTypeImage
	default:
		return FileTypeOther
	}
}

// IsVideo reports whether name has an accepted video extension.
func IsVideo(name string) bool {
	return VideoExtensions[Ext(name)]
}

// IsImage reports whether name has an accepted image extension.
func IsImage(name string) bool {
	return ImageExtensions[Ext(name)]
}

// GetMimeType returns the MIME type for an extension, or
// application/octet-stream when unknown.
func GetMimeType(ext string) string {
	if mt, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}
