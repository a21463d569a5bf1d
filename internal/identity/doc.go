// Package identity carries the authenticated caller through a request.
//
// Credentials are never issued or checked here: an upstream gateway
// authenticates the user and forwards the opaque user id and admin flag in
// the X-User-ID and X-User-Admin headers.
package identity
