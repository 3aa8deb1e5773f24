package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	apperrors "github.com/allisson/vaulty/internal/errors"
)

// RSAKeyWrapper implements KeyWrapper using RSA-OAEP with SHA-256.
//
// A 32-byte data key fits in a single OAEP block for the 4096-bit keys the
// keygen command produces, so wrapping is always a single RSA operation.
// The private key may be nil for wrap-only instances (e.g., a wrapper built
// from the new public key during key rotation).
type RSAKeyWrapper struct {
	public  *rsa.PublicKey
	private *rsa.PrivateKey
}

// NewRSAKeyWrapper creates a key wrapper from the node's RSA key pair.
func NewRSAKeyWrapper(public *rsa.PublicKey, private *rsa.PrivateKey) *RSAKeyWrapper {
	return &RSAKeyWrapper{public: public, private: private}
}

// Wrap encrypts a data key under the public key with RSA-OAEP/SHA-256.
func (w *RSAKeyWrapper) Wrap(dataKey []byte) ([]byte, error) {
	if w.public == nil {
		return nil, cryptoDomain.ErrMalformedKey
	}
	if len(dataKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, w.public, dataKey, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCrypto, "rsa wrap failed")
	}
	return wrapped, nil
}

// Unwrap recovers a data key using the private key. Fails with
// ErrDecryptionFailed on malformed input or key mismatch; the cause is not
// distinguished further.
func (w *RSAKeyWrapper) Unwrap(wrapped []byte) ([]byte, error) {
	if w.private == nil {
		return nil, cryptoDomain.ErrMalformedKey
	}
	if len(wrapped) == 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	dataKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, w.private, wrapped, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if len(dataKey) != cryptoDomain.KeySize {
		cryptoDomain.Zero(dataKey)
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return dataKey, nil
}
