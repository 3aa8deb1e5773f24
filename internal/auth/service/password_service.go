package service

import (
	"github.com/allisson/go-pwdhash"

	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	apperrors "github.com/allisson/vaulty/internal/errors"
)

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordService creates a PasswordService with the Moderate Argon2id
// policy for a balance between security and login latency.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &passwordService{hasher: hasher}
}

// GeneratePassword creates a random alphanumeric password.
func (p *passwordService) GeneratePassword(length int) (string, error) {
	password, err := cryptoService.RandomString(length)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate password")
	}
	return password, nil
}

// HashPassword hashes a plaintext password using Argon2id.
func (p *passwordService) HashPassword(plain string) (string, error) {
	digest, err := p.hasher.Hash([]byte(plain))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return digest, nil
}

// ComparePassword performs a constant-time comparison between a plaintext
// password and its digest.
func (p *passwordService) ComparePassword(plain, digest string) bool {
	ok, err := p.hasher.Verify([]byte(plain), digest)
	if err != nil {
		return false
	}
	return ok
}
