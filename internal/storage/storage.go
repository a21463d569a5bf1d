package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"video-platform/internal/apperr"
)

// Store persists binary media under slash-separated keys such as
// "videos/<id>.mp4". Delete of a missing key is not an error.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Key prefixes used by the lifecycle.
const (
	VideoPrefix     = "videos"
	ThumbnailPrefix = "thumbnails"
)

// VideoKey returns the key for a raw upload with the given extension.
func VideoKey(id, ext string) string {
	return path.Join(VideoPrefix, id+ext)
}

// ThumbnailKey returns the key for a normalized thumbnail.
func ThumbnailKey(id, ext string) string {
	return path.Join(ThumbnailPrefix, id+ext)
}

// TranscodedKey returns the key of the normalized rendition stored beside a raw
// upload: "videos/abc.mov" becomes "videos/abc_480p.mp4".
func TranscodedKey(rawKey string) string {
	ext := path.Ext(rawKey)
	return strings.TrimSuffix(rawKey, ext) + "_480p.mp4"
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", apperr.Validation("empty storage key")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", apperr.Validation("invalid storage key %q", key)
	}
	return cleaned, nil
}
