// Package http provides the HTTP boundary: access key and session
// authentication middleware, the login and command endpoints and the secret
// engine handlers.
package http

import (
	"context"

	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// userKey is a context key type for storing authenticated users.
type userKey struct{}

// accessKeyKey is a context key type for storing authenticated access keys.
type accessKeyKey struct{}

// WithUser stores an authenticated user in the context.
func WithUser(ctx context.Context, user *vaultDomain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves an authenticated user from the context.
// Returns (user, true) if present, or (nil, false) if no user was set.
func GetUser(ctx context.Context) (*vaultDomain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*vaultDomain.User)
	return user, ok
}

// WithAccessKey stores an authenticated access key in the context.
func WithAccessKey(ctx context.Context, key *vaultDomain.AccessKey) context.Context {
	return context.WithValue(ctx, accessKeyKey{}, key)
}

// GetAccessKey retrieves an authenticated access key from the context.
// Returns (key, true) if present, or (nil, false) if no key was set.
func GetAccessKey(ctx context.Context) (*vaultDomain.AccessKey, bool) {
	key, ok := ctx.Value(accessKeyKey{}).(*vaultDomain.AccessKey)
	return key, ok
}
