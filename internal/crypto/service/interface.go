// Package service provides the cryptographic primitives and the envelope
// cipher protecting secret payloads. Implements AEAD ciphers (AES-256-GCM,
// ChaCha20-Poly1305), RSA-OAEP key wrapping, ECDSA P-256 signing and secure
// random generation.
package service

import (
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager builds AEAD ciphers by algorithm name.
type AEADManager interface {
	// CreateCipher returns the AEAD for the given algorithm keyed with key.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyWrapper wraps and unwraps data keys under the node's RSA key pair.
type KeyWrapper interface {
	// Wrap encrypts a data key under the public key.
	Wrap(dataKey []byte) ([]byte, error)

	// Unwrap recovers a data key using the private key. The caller owns the
	// returned buffer and must zero it after use.
	Unwrap(wrapped []byte) ([]byte, error)
}

// Signer signs and verifies secret access keys with the node's ECDSA pair.
type Signer interface {
	// Sign returns a base64-encoded ASN.1 DER signature over the message.
	Sign(message []byte) (string, error)

	// Verify reports whether signature (base64 DER) is valid for the message.
	Verify(message []byte, signature string) bool
}

// Envelope seals and opens secret payloads with per-secret data keys.
type Envelope interface {
	// Seal encrypts plaintext under a fresh data key and nonce, wrapping the
	// data key under the RSA public key.
	Seal(plaintext []byte) (*cryptoDomain.Record, error)

	// Open recovers the plaintext of a record.
	Open(record *cryptoDomain.Record) ([]byte, error)

	// Rewrap re-encrypts the record's data key under a new key pair without
	// touching the payload or nonce. Used by the key rotation maintenance pass.
	Rewrap(record *cryptoDomain.Record, next KeyWrapper) (*cryptoDomain.Record, error)
}
