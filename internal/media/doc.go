// Package media normalizes uploaded thumbnail images.
//
// Thumbnails are accepted in any format the image decoders registered here
// understand (JPEG, PNG, GIF, WebP). NormalizeThumbnail honors EXIF
// orientation, bounds the result to 1280x720 while keeping the aspect ratio,
// and stores everything as JPEG so that readers can rely on one format.
package media
