package domain

import (
	"github.com/allisson/vaulty/internal/errors"
)

// Domain-specific errors for vault operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same username already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrVaultNotFound indicates the requested vault does not exist.
	ErrVaultNotFound = errors.Wrap(errors.ErrNotFound, "vault not found")

	// ErrSecretNotFound indicates the requested secret does not exist in the vault.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrAccessKeyNotFound indicates the requested access key does not exist.
	ErrAccessKeyNotFound = errors.Wrap(errors.ErrNotFound, "access key not found")

	// ErrLastAdmin indicates an operation would remove the last admin user.
	ErrLastAdmin = errors.Wrap(errors.ErrInvalidState, "at least one admin user must remain")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")

	// ErrInvalidCapability indicates an unknown, duplicate or empty capability set.
	ErrInvalidCapability = errors.Wrap(errors.ErrInvalidInput, "invalid capability set")

	// ErrInvalidContentKind indicates an unknown content kind.
	ErrInvalidContentKind = errors.Wrap(errors.ErrInvalidInput, "invalid content kind")

	// ErrInvalidSecurityGroup indicates a malformed CIDR range.
	ErrInvalidSecurityGroup = errors.Wrap(errors.ErrInvalidInput, "invalid security group")

	// ErrNameRequired indicates a required name field is missing.
	ErrNameRequired = errors.Wrap(errors.ErrInvalidInput, "name is required")

	// ErrPasswordRequired indicates the password field is required.
	ErrPasswordRequired = errors.Wrap(errors.ErrInvalidInput, "password is required")

	// ErrEmptySecretValue indicates a secret insert without a payload.
	ErrEmptySecretValue = errors.Wrap(errors.ErrInvalidInput, "secret value is required")
)
