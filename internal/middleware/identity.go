package middleware

import (
	"net/http"

	"video-platform/internal/identity"
)

// Identity attaches the caller identity from the trusted gateway headers to
// the request context. Requests without a user id proceed anonymously.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromRequest(r)
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}
