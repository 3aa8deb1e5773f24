package service

import (
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
)

// EnvelopeService implements the Envelope interface.
//
// Every Seal generates a fresh 32-byte data key and a fresh nonce, so nonce
// reuse cannot occur across secrets or across overwrites of the same secret.
// The data key is wrapped under the node's RSA public key; the RSA pair is
// the single point of revocation, and Rewrap supports the rotation pass.
type EnvelopeService struct {
	wrapper     KeyWrapper
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewEnvelope creates an envelope cipher sealing payloads with the given AEAD
// algorithm.
func NewEnvelope(
	wrapper KeyWrapper,
	aeadManager AEADManager,
	algorithm cryptoDomain.Algorithm,
) *EnvelopeService {
	return &EnvelopeService{
		wrapper:     wrapper,
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// Seal encrypts plaintext under a fresh data key and nonce and wraps the data
// key under the RSA public key. The data key is zeroed before returning on
// every path.
func (e *EnvelopeService) Seal(plaintext []byte) (*cryptoDomain.Record, error) {
	if len(plaintext) == 0 {
		return nil, cryptoDomain.ErrEmptyPayload
	}

	dataKey, err := RandomBytes(cryptoDomain.KeySize)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dataKey)

	aead, err := e.aeadManager.CreateCipher(dataKey, e.algorithm)
	if err != nil {
		return nil, err
	}

	sealed, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return nil, err
	}

	wrapped, err := e.wrapper.Wrap(dataKey)
	if err != nil {
		return nil, err
	}

	ciphertext, tag, ok := cryptoDomain.SplitSealed(sealed)
	if !ok {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return &cryptoDomain.Record{
		WrappedKey: wrapped,
		Algorithm:  e.algorithm,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Tag:        tag,
	}, nil
}

// Open unwraps the record's data key with the RSA private key and opens the
// payload. The recovered data key is zeroed on every path.
func (e *EnvelopeService) Open(record *cryptoDomain.Record) ([]byte, error) {
	if record == nil || len(record.Ciphertext) == 0 {
		return nil, cryptoDomain.ErrEmptyPayload
	}

	dataKey, err := e.wrapper.Unwrap(record.WrappedKey)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dataKey)

	aead, err := e.aeadManager.CreateCipher(dataKey, record.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(record.Sealed(), record.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// Rewrap unwraps the record's data key with the current private key and wraps
// it under the next key pair. Payload, nonce and tag are untouched, so the
// rotation pass never rewrites secret ciphertext.
func (e *EnvelopeService) Rewrap(
	record *cryptoDomain.Record,
	next KeyWrapper,
) (*cryptoDomain.Record, error) {
	dataKey, err := e.wrapper.Unwrap(record.WrappedKey)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dataKey)

	wrapped, err := next.Wrap(dataKey)
	if err != nil {
		return nil, err
	}

	return &cryptoDomain.Record{
		WrappedKey: wrapped,
		Algorithm:  record.Algorithm,
		Nonce:      record.Nonce,
		Ciphertext: record.Ciphertext,
		Tag:        record.Tag,
	}, nil
}
