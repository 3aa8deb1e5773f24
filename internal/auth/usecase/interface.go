// Package usecase implements the authentication and authorization pipeline
// gating every request: principal lookup, security group filtering,
// constant-time credential verification, the failed-attempt delay policy and
// capability checks.
package usecase

import (
	"context"
	"net/netip"

	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// UserStore defines the user lookups the pipeline needs.
type UserStore interface {
	// GetUser retrieves a user by username. Returns ErrUserNotFound if not found.
	GetUser(ctx context.Context, username string) (*vaultDomain.User, error)
}

// AccessKeyStore defines the access key lookups the pipeline needs.
type AccessKeyStore interface {
	// GetAccessKey retrieves an access key by its globally unique ID.
	// Returns ErrAccessKeyNotFound if not found.
	GetAccessKey(ctx context.Context, id string) (*vaultDomain.AccessKey, error)
}

// AuthUseCase authenticates principals and enforces authorization.
//
// Every rejection is the bare ErrUnauthorized sentinel regardless of cause
// (unknown principal, wrong credential, security group miss), so nothing
// upstream can leak which step failed. Only the delay differs: security
// group filtering rejects immediately as a pre-authentication filter, while
// credential failures impose the configured delay before responding.
type AuthUseCase interface {
	// AuthenticateUser runs the user login pipeline: lookup, security group
	// check, Argon2id password verification, delay on failure.
	AuthenticateUser(
		ctx context.Context,
		username, password string,
		source netip.Addr,
	) (*vaultDomain.User, error)

	// AuthenticateAccessKey runs the access key pipeline: lookup by key ID,
	// security group check, signature verification of the presented secret
	// key, delay on failure.
	AuthenticateAccessKey(
		ctx context.Context,
		keyID, secretKey string,
		source netip.Addr,
	) (*vaultDomain.AccessKey, error)

	// Authorize rejects with ErrForbidden when the access key's permission
	// set lacks the required capability.
	Authorize(key *vaultDomain.AccessKey, required vaultDomain.Capability) error

	// RequireAdmin rejects with ErrForbidden when the user does not hold the
	// admin role.
	RequireAdmin(user *vaultDomain.User) error
}
