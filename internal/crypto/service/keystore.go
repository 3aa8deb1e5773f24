package service

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strings"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	apperrors "github.com/allisson/vaulty/internal/errors"
)

// KeystoreConfig holds the file locations of the node's key material.
type KeystoreConfig struct {
	RSAPrivateKeyPath string
	RSAPublicKeyPath  string
	AESKeyPath        string
	AESIVPath         string
	SigningKeyPath    string
	VerifyingKeyPath  string
}

// LoadKeySet loads the node's long-term key material from disk.
//
// The RSA private key file is sealed with the static AES-256 key and IV (the
// key-encryption-key layer): the static key protects only the private key at
// rest and is never used on secret payloads. The remaining files are plain
// PEM (public keys, ECDSA signing key) and base64 (AES key and IV).
//
// The caller owns the returned KeySet and must Close it on shutdown.
func LoadKeySet(cfg KeystoreConfig) (*cryptoDomain.KeySet, error) {
	kek, err := readBase64File(cfg.AESKeyPath, cryptoDomain.KeySize)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(kek)

	iv, err := readBase64File(cfg.AESIVPath, cryptoDomain.NonceSize)
	if err != nil {
		return nil, err
	}

	rsaPrivate, err := loadSealedRSAPrivateKey(cfg.RSAPrivateKeyPath, kek, iv)
	if err != nil {
		return nil, err
	}

	rsaPublic, err := loadRSAPublicKey(cfg.RSAPublicKeyPath)
	if err != nil {
		return nil, err
	}

	signer, err := loadECDSAPrivateKey(cfg.SigningKeyPath)
	if err != nil {
		return nil, err
	}

	verifier, err := loadECDSAPublicKey(cfg.VerifyingKeyPath)
	if err != nil {
		return nil, err
	}

	return &cryptoDomain.KeySet{
		RSAPrivate: rsaPrivate,
		RSAPublic:  rsaPublic,
		Signer:     signer,
		Verifier:   verifier,
	}, nil
}

// SealRSAPrivateKey encrypts a PKCS#8 encoded RSA private key under the
// static AES key and IV, producing the base64 content of the sealed key file.
// Used by the keygen command.
func SealRSAPrivateKey(privateDER, kek, iv []byte) (string, error) {
	aead, err := NewAESGCM(kek)
	if err != nil {
		return "", cryptoDomain.ErrInvalidKeySize
	}

	// Seal directly with the configured IV: this key is sealed exactly once
	// per generated KEK, so the fixed nonce is never reused under the key.
	sealed := aead.aead.Seal(nil, iv, privateDER, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func loadSealedRSAPrivateKey(path string, kek, iv []byte) (*rsa.PrivateKey, error) {
	sealed, err := readBase64File(path, 0)
	if err != nil {
		return nil, err
	}

	aead, err := NewAESGCM(kek)
	if err != nil {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	privateDER, err := aead.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(privateDER)

	parsed, err := x509.ParsePKCS8PrivateKey(privateDER)
	if err != nil {
		return nil, cryptoDomain.ErrMalformedKey
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, cryptoDomain.ErrMalformedKey
	}
	return key, nil
}

func loadRSAPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEMFile(path)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cryptoDomain.ErrMalformedKey
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, cryptoDomain.ErrMalformedKey
	}
	return key, nil
}

func loadECDSAPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	block, err := readPEMFile(path)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, cryptoDomain.ErrMalformedKey
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, cryptoDomain.ErrMalformedKey
	}
	return key, nil
}

func loadECDSAPublicKey(path string) (*ecdsa.PublicKey, error) {
	block, err := readPEMFile(path)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cryptoDomain.ErrMalformedKey
	}

	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, cryptoDomain.ErrMalformedKey
	}
	return key, nil
}

// readBase64File reads a base64-encoded file. If wantLen is non-zero the
// decoded content must be exactly that many bytes.
func readBase64File(path string, wantLen int) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read %s", path)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, cryptoDomain.ErrMalformedKey
	}
	if wantLen != 0 && len(decoded) != wantLen {
		cryptoDomain.Zero(decoded)
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return decoded, nil
}

func readPEMFile(path string) (*pem.Block, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read %s", path)
	}

	block, _ := pem.Decode(content)
	if block == nil {
		return nil, cryptoDomain.ErrMalformedKey
	}
	return block, nil
}
