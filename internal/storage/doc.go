// Package storage implements the storage collaborator used by the video
// lifecycle: save, delete and existence checks over slash-separated keys.
//
// Two backends are provided:
//
//   - FSStore writes beneath a local directory. It also resolves keys to
//     filesystem paths, which the transcoder needs.
//   - S3Store writes to a single bucket and is used for thumbnails when
//     THUMBNAIL_STORE=s3.
//
// Errors are wrapped with apperr.ErrIO. Callers decide whether a failure is
// essential; thumbnail and file cleanup failures are logged and swallowed.
package storage
