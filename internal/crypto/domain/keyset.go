package domain

import (
	"crypto/ecdsa"
	"crypto/rsa"
)

// KeySet holds the node's long-term asymmetric key material.
//
// The RSA pair protects secret data keys (wrap/unwrap); the ECDSA pair signs
// and verifies secret access keys. The private halves are scoped resources:
// callers own the KeySet and must Close it when done so key material does not
// outlive its use.
type KeySet struct {
	RSAPrivate *rsa.PrivateKey
	RSAPublic  *rsa.PublicKey
	Signer     *ecdsa.PrivateKey
	Verifier   *ecdsa.PublicKey
}

// Close clears private key material. Best effort: big.Int internals are
// overwritten before the references are dropped.
func (k *KeySet) Close() {
	if k.RSAPrivate != nil {
		k.RSAPrivate.D.SetInt64(0)
		for _, p := range k.RSAPrivate.Primes {
			p.SetInt64(0)
		}
		k.RSAPrivate.Precomputed = rsa.PrecomputedValues{}
		k.RSAPrivate = nil
	}
	if k.Signer != nil {
		k.Signer.D.SetInt64(0)
		k.Signer = nil
	}
	k.RSAPublic = nil
	k.Verifier = nil
}
