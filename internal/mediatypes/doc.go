// Package mediatypes provides shared type definitions for upload handling
// across the video platform.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It holds the accepted
// extension whitelists, the upload size ceilings, and MIME lookups.
//
// # Extension Detection
//
//	if !mediatypes.IsVideo(header.Filename) {
//	    return apperr.Validation("unsupported video format")
//	}
package mediatypes
