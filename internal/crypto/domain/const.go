package domain

// Algorithm represents the AEAD algorithm used to seal secret payloads.
//
// Both supported algorithms provide Authenticated Encryption with Associated
// Data with a 256-bit key, 12-byte nonce and 16-byte authentication tag.
// AESGCM is the default and benefits from AES-NI hardware acceleration;
// ChaCha20 performs better on platforms without it.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the size in bytes of data keys and the key-encryption key.
	KeySize = 32

	// NonceSize is the AEAD nonce size in bytes for both algorithms.
	NonceSize = 12

	// TagSize is the AEAD authentication tag size in bytes for both algorithms.
	TagSize = 16
)

// ParseAlgorithm validates an algorithm name from configuration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
