package domain

// Record is the stored form of an envelope-encrypted secret payload.
//
// Each record carries its own data key, wrapped under the node's RSA public
// key, so compromise of any single symmetric key exposes at most one secret.
// The nonce is generated fresh with the data key and is never reused: an
// overwrite produces a brand-new record, the old one is discarded whole.
type Record struct {
	// WrappedKey is the 32-byte data key encrypted with RSA-OAEP under the
	// node's public key.
	WrappedKey []byte

	// Algorithm is the AEAD used to seal the payload with the data key.
	Algorithm Algorithm

	// Nonce is the 12-byte nonce used for this payload.
	Nonce []byte

	// Ciphertext is the sealed payload, without the authentication tag.
	Ciphertext []byte

	// Tag is the 16-byte AEAD authentication tag.
	Tag []byte
}

// Sealed returns ciphertext with the authentication tag appended, the layout
// expected by the AEAD Open operation.
func (r *Record) Sealed() []byte {
	out := make([]byte, 0, len(r.Ciphertext)+len(r.Tag))
	out = append(out, r.Ciphertext...)
	out = append(out, r.Tag...)
	return out
}

// SplitSealed separates an AEAD Seal output into ciphertext and tag.
// Returns false if the buffer is too short to contain a tag.
func SplitSealed(sealed []byte) (ciphertext, tag []byte, ok bool) {
	if len(sealed) < TagSize {
		return nil, nil, false
	}
	return sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:], true
}
