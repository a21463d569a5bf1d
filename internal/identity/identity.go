package identity

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Header names set by the upstream gateway after it authenticates a request.
const (
	HeaderUserID = "X-User-ID"
	HeaderAdmin  = "X-User-Admin"
)

// Identity is the authenticated caller of a request. The zero value is an
// anonymous caller.
type Identity struct {
	UserID string `json:"userId"`
	Admin  bool   `json:"admin"`
}

// Anonymous reports whether no user is attached.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// CanModify reports whether the caller may change or delete a resource owned
// by owner: the owner itself or an administrator.
func (i Identity) CanModify(owner string) bool {
	if i.Anonymous() {
		return false
	}
	return i.Admin || i.UserID == owner
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or an anonymous identity.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

// FromRequest reads the trusted identity headers.
func FromRequest(r *http.Request) Identity {
	id := Identity{UserID: strings.TrimSpace(r.Header.Get(HeaderUserID))}
	if id.UserID == "" {
		return Identity{}
	}
	if admin, err := strconv.ParseBool(r.Header.Get(HeaderAdmin)); err == nil {
		id.Admin = admin
	}
	return id
}
