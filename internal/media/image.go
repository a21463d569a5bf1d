package media

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"video-platform/internal/apperr"
	"video-platform/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImagePixels is the maximum total pixels (width * height) we'll decode.
	// Larger uploads are rejected before the full decode allocates RGBA memory.
	MaxImagePixels = 40_000_000

	// ThumbnailWidth and ThumbnailHeight bound the stored thumbnail.
	ThumbnailWidth  = 1280
	ThumbnailHeight = 720

	// ThumbnailQuality is the JPEG quality used for stored thumbnails.
	ThumbnailQuality = 85

	// ThumbnailExt is the extension of every stored thumbnail.
	ThumbnailExt = ".jpg"
)

var log = logging.For("media")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image.
func GetImageDimensions(data []byte) (*ImageDimensions, string, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, format, nil
}

// NormalizeThumbnail decodes an uploaded image, applies EXIF orientation,
// fits it inside ThumbnailWidth x ThumbnailHeight and re-encodes it as JPEG.
// Reads at most maxBytes; anything larger or undecodable is a validation error.
func NormalizeThumbnail(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, apperr.IO("read thumbnail", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperr.Validation("thumbnail exceeds %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return nil, apperr.Validation("thumbnail is empty")
	}

	dims, format, err := GetImageDimensions(data)
	if err != nil {
		return nil, apperr.Validation("thumbnail is not a supported image: %v", err)
	}
	if dims.Width <= 0 || dims.Height <= 0 || dims.Width*dims.Height > MaxImagePixels {
		return nil, apperr.Validation("thumbnail dimensions %dx%d out of range", dims.Width, dims.Height)
	}

	log.Debug("Normalizing %s thumbnail %dx%d", format, dims.Width, dims.Height)

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Validation("thumbnail decode failed: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > ThumbnailWidth || bounds.Dy() > ThumbnailHeight {
		img = imaging.Fit(img, ThumbnailWidth, ThumbnailHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(ThumbnailQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
