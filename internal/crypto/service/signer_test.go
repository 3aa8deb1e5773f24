package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testECDSAKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestECDSASigner(t *testing.T) {
	key := testECDSAKey(t)
	signer := NewECDSASigner(key, &key.PublicKey)

	t.Run("sign and verify", func(t *testing.T) {
		message := []byte("fmjPHsBSeyCVnVTmFTwjQoZmLRSqnXuy0OyizMHT")

		signature, err := signer.Sign(message)
		require.NoError(t, err)
		assert.NotEmpty(t, signature)
		assert.True(t, signer.Verify(message, signature))
	})

	t.Run("verify rejects tampered message", func(t *testing.T) {
		message := []byte("original message")

		signature, err := signer.Sign(message)
		require.NoError(t, err)
		assert.False(t, signer.Verify([]byte("tampered message"), signature))
	})

	t.Run("verify rejects malformed base64", func(t *testing.T) {
		assert.False(t, signer.Verify([]byte("message"), "%%% not base64 %%%"))
	})

	t.Run("verify rejects non-DER signature", func(t *testing.T) {
		assert.False(t, signer.Verify([]byte("message"), "bm90IGEgc2lnbmF0dXJl"))
	})

	t.Run("verify rejects signature from another key", func(t *testing.T) {
		otherKey := testECDSAKey(t)
		otherSigner := NewECDSASigner(otherKey, &otherKey.PublicKey)

		message := []byte("message")
		signature, err := otherSigner.Sign(message)
		require.NoError(t, err)
		assert.False(t, signer.Verify(message, signature))
	})

	t.Run("verify-only signer cannot sign", func(t *testing.T) {
		verifyOnly := NewECDSASigner(nil, &key.PublicKey)

		_, err := verifyOnly.Sign([]byte("message"))
		assert.Error(t, err)
	})
}
