// Package apperr defines the error taxonomy shared by the video platform
// services: validation, not-found, authorization, conflict, transcode and
// storage failures. Errors are plain sentinels wrapped with context, and
// HTTPStatus translates them for the HTTP layer.
package apperr
