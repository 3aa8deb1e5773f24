package domain

import (
	"github.com/allisson/vaulty/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. All errors are mapped to
// appropriate HTTP status codes by the error handling layer.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	// Data keys and the key-encryption key must be exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrCrypto, "invalid key size")

	// ErrMalformedKey indicates key material could not be parsed (bad PEM,
	// wrong key type, or wrong encoding).
	ErrMalformedKey = errors.Wrap(errors.ErrCrypto, "malformed key material")

	// ErrDecryptionFailed indicates a decryption or unwrap operation failed.
	//
	// This can occur due to a wrong key, a tampered ciphertext (authentication
	// failure), an invalid nonce, or corrupted data. The specific cause is not
	// disclosed to prevent information leakage.
	ErrDecryptionFailed = errors.Wrap(errors.ErrCrypto, "decryption failed")

	// ErrEmptyPayload indicates an empty buffer was provided for sealing or opening.
	ErrEmptyPayload = errors.Wrap(errors.ErrInvalidInput, "empty payload")
)
