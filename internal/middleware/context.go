package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the caller a request was made on behalf of.
type Identity struct {
	UserID  string
	Email   string
	Picture string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by Identify, if any.
func IdentityFrom(r *http.Request) (Identity, bool) {
	id, ok := r.Context().Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserID returns the caller's user ID, or "" for anonymous requests.
func UserID(r *http.Request) string {
	id, _ := IdentityFrom(r)
	return id.UserID
}
