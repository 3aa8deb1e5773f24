package service

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	apperrors "github.com/allisson/vaulty/internal/errors"
)

// ECDSASigner implements Signer using ECDSA P-256 with ASN.1 DER signatures.
//
// Secret access keys are never stored: only the node's signature over the
// plaintext key is persisted, and presentation of the key is verified against
// that signature. The signing key may be nil for verify-only instances.
type ECDSASigner struct {
	signing   *ecdsa.PrivateKey
	verifying *ecdsa.PublicKey
}

// NewECDSASigner creates a signer from the node's ECDSA key pair.
func NewECDSASigner(signing *ecdsa.PrivateKey, verifying *ecdsa.PublicKey) *ECDSASigner {
	return &ECDSASigner{signing: signing, verifying: verifying}
}

// Sign returns a base64-encoded ASN.1 DER signature over the SHA-256 digest
// of the message.
func (s *ECDSASigner) Sign(message []byte) (string, error) {
	if s.signing == nil {
		return "", cryptoDomain.ErrMalformedKey
	}

	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, s.signing, digest[:])
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "ecdsa sign failed")
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether signature (base64 DER) is valid for the message.
// Malformed signatures verify as false, never as an error, so the caller's
// rejection path is uniform.
func (s *ECDSASigner) Verify(message []byte, signature string) bool {
	if s.verifying == nil {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(message)
	return ecdsa.VerifyASN1(s.verifying, digest[:], sig)
}
