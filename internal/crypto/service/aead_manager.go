package service

import (
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
)

// AEADManagerService builds AEAD ciphers keyed by algorithm name, so the
// envelope layer stays agnostic about which payload cipher is configured.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns the AEAD for the given algorithm. The key must be
// exactly KeySize bytes; both supported ciphers take 256-bit keys.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCM(key)
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}
