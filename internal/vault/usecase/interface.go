// Package usecase implements the business logic for managing users, vaults,
// secrets and access keys on top of the database store and the envelope
// cipher.
package usecase

import (
	"context"
	"time"

	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *vaultDomain.User) error
	GetUser(ctx context.Context, username string) (*vaultDomain.User, error)
	ListUsers(ctx context.Context) ([]*vaultDomain.User, error)
	UpdateUser(ctx context.Context, user *vaultDomain.User) error
	DeleteUser(ctx context.Context, username string) error
}

// VaultRepository defines persistence operations on whole vaults.
type VaultRepository interface {
	GetVault(ctx context.Context, name string) (*vaultDomain.Vault, error)
	ListVaults(ctx context.Context) ([]*vaultDomain.Vault, error)
	DeleteVault(ctx context.Context, name string) error
}

// SecretRepository defines persistence operations for secrets.
type SecretRepository interface {
	PutSecret(ctx context.Context, vaultName string, secret *vaultDomain.Secret) error
	GetSecret(ctx context.Context, vaultName, name string) (*vaultDomain.Secret, error)
	ListSecrets(ctx context.Context, vaultName string) ([]*vaultDomain.Secret, error)
	DeleteSecret(ctx context.Context, vaultName, name string) error
}

// AccessKeyRepository defines persistence operations for access keys.
type AccessKeyRepository interface {
	CreateAccessKey(ctx context.Context, key *vaultDomain.AccessKey) error
	GetAccessKey(ctx context.Context, id string) (*vaultDomain.AccessKey, error)
	ListAccessKeys(ctx context.Context, vaultName string) ([]*vaultDomain.AccessKey, error)
	UpdateAccessKey(ctx context.Context, key *vaultDomain.AccessKey) error
	DeleteAccessKey(ctx context.Context, id string) error
}

// SecretRewrapper applies a transformation to every stored secret record as a
// single atomic mutation.
type SecretRewrapper interface {
	RewrapSecrets(
		ctx context.Context,
		fn func(secret *vaultDomain.Secret) (*vaultDomain.Secret, error),
	) (int, error)
}

// CreateUserInput holds the fields for creating a user.
type CreateUserInput struct {
	Username       string
	Password       string
	Role           string
	SecurityGroups []string
}

// BootstrapOutput holds the generated root credentials. PlainPassword is
// surfaced exactly once to the operator and never stored.
type BootstrapOutput struct {
	Username      string
	PlainPassword string
}

// UserUseCase manages user lifecycle. All operations here assume the caller
// was already authenticated and authorized as an admin.
type UserUseCase interface {
	// Create registers a new user with a hashed password.
	Create(ctx context.Context, input *CreateUserInput) (*vaultDomain.User, error)

	// Get retrieves a user by username.
	Get(ctx context.Context, username string) (*vaultDomain.User, error)

	// List returns all users.
	List(ctx context.Context) ([]*vaultDomain.User, error)

	// Delete removes a user. Deleting the last admin fails with ErrLastAdmin.
	Delete(ctx context.Context, username string) error

	// ChangePassword replaces a user's password hash.
	ChangePassword(ctx context.Context, username, password string) error

	// ChangeSecurityGroups replaces a user's CIDR allow-list.
	ChangeSecurityGroups(ctx context.Context, username string, cidrs []string) error

	// Promote grants the admin role.
	Promote(ctx context.Context, username string) error

	// Demote revokes the admin role. Demoting the last admin fails with
	// ErrLastAdmin.
	Demote(ctx context.Context, username string) error

	// Bootstrap creates the root user with a random password and a
	// loopback-only security group. Called once on first run.
	Bootstrap(ctx context.Context) (*BootstrapOutput, error)
}

// VaultUseCase manages whole vaults. Vaults are created implicitly through
// secret and access key inserts, so there is no explicit create.
type VaultUseCase interface {
	// Get retrieves a vault with its secrets and access keys.
	Get(ctx context.Context, name string) (*vaultDomain.Vault, error)

	// List returns all vaults.
	List(ctx context.Context) ([]*vaultDomain.Vault, error)

	// Delete removes a vault and everything it owns.
	Delete(ctx context.Context, name string) error
}

// PutSecretInput holds the fields for inserting or overwriting a secret.
type PutSecretInput struct {
	Vault       string
	Name        string
	Value       []byte
	ContentKind string
}

// SecretMetadata describes a secret without its value.
type SecretMetadata struct {
	Name        string
	ContentKind vaultDomain.ContentKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SecretOutput holds a decrypted secret.
type SecretOutput struct {
	Name        string
	ContentKind vaultDomain.ContentKind
	Value       []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SecretUseCase manages encrypted secrets.
type SecretUseCase interface {
	// Put seals the value with the envelope cipher and stores it, creating
	// the vault implicitly. Overwrites replace the whole record.
	Put(ctx context.Context, input *PutSecretInput) error

	// Get decrypts and returns a secret's value.
	Get(ctx context.Context, vaultName, name string) (*SecretOutput, error)

	// List returns names and metadata only, never decrypted content.
	List(ctx context.Context, vaultName string) ([]*SecretMetadata, error)

	// Delete removes a secret.
	Delete(ctx context.Context, vaultName, name string) error
}

// CreateAccessKeyInput holds the fields for creating an access key.
type CreateAccessKeyInput struct {
	Vault          string
	Permissions    []string
	SecurityGroups []string
}

// CreateAccessKeyOutput holds the generated credential pair. PlainSecretKey
// is returned exactly once and never stored.
type CreateAccessKeyOutput struct {
	Key            *vaultDomain.AccessKey
	PlainSecretKey string
}

// AccessKeyUseCase manages access key lifecycle.
type AccessKeyUseCase interface {
	// Create generates a credential pair scoped to one vault, creating the
	// vault implicitly.
	Create(ctx context.Context, input *CreateAccessKeyInput) (*CreateAccessKeyOutput, error)

	// Get retrieves an access key by its globally unique ID.
	Get(ctx context.Context, id string) (*vaultDomain.AccessKey, error)

	// List returns a vault's access keys.
	List(ctx context.Context, vaultName string) ([]*vaultDomain.AccessKey, error)

	// Delete removes an access key.
	Delete(ctx context.Context, id string) error

	// ChangePermissions replaces the key's capability set.
	ChangePermissions(ctx context.Context, id string, permissions []string) error

	// ChangeSecurityGroups replaces the key's CIDR allow-list.
	ChangeSecurityGroups(ctx context.Context, id string, cidrs []string) error
}

// RotateUseCase re-wraps every stored data key under a new RSA key pair. The
// maintenance pass never touches ciphertexts, nonces or tags.
type RotateUseCase interface {
	Rotate(ctx context.Context) (int, error)
}
