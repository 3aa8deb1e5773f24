// Package service provides credential services: Argon2id password hashing
// and access key generation with ECDSA-signed secret keys.
package service

import (
	"context"
)

// PasswordService hashes and verifies user passwords.
type PasswordService interface {
	// GeneratePassword creates a random alphanumeric password of the given
	// length. Used for the bootstrap root user.
	GeneratePassword(length int) (string, error)

	// HashPassword hashes a plaintext password with a per-call random salt
	// embedded in the digest.
	HashPassword(plain string) (string, error)

	// ComparePassword performs a constant-time verification of a plaintext
	// password against its digest.
	ComparePassword(plain, digest string) bool
}

// GeneratedAccessKey holds a freshly generated credential pair. PlainSecretKey
// is returned to the caller exactly once and never stored.
type GeneratedAccessKey struct {
	ID                 string
	PlainSecretKey     string
	SecretKeySignature string
}

// AccessKeyService generates and verifies access key credentials.
type AccessKeyService interface {
	// GenerateCredentials creates a new credential pair with a globally
	// unique key ID and signs the secret key with the node's signing key.
	GenerateCredentials(ctx context.Context) (*GeneratedAccessKey, error)

	// VerifySecretKey checks a presented secret key against the stored
	// signature.
	VerifySecretKey(plainSecretKey, signature string) bool
}
