// Package lifecycle moves uploaded videos through their processing states.
//
// A submitted video is stored, recorded with status processing and handed to
// the transcode worker pool. The job ends in exactly one terminal state:
//
//	processing -> completed   rendition written, served instead of the upload
//	processing -> failed      upload kept and served as is
//
// Transcode failures are absorbed into the failed state and never returned to
// the uploader. Thumbnail replacement, edits and deletion are limited to the
// owner or an administrator; leftover files are cleaned up best-effort.
package lifecycle
