// Package handlers exposes the video platform over HTTP.
//
// Routes are mounted with [Handlers.Register]. The caller identity comes from
// the request context, populated by middleware from trusted gateway headers.
// Errors are mapped to status codes through the apperr taxonomy and returned
// as {"error": "..."}.
//
// Viewing a video registers a view for the caller on a best-effort basis: a
// view accounting failure is logged and the video is still returned.
package handlers
