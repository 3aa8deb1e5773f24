package usecase

import (
	"context"

	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// rotateUseCase implements RotateUseCase. It unwraps every data key with the
// current private key and wraps it under the next public key; ciphertexts
// are never re-encrypted.
type rotateUseCase struct {
	rewrapper SecretRewrapper
	envelope  cryptoService.Envelope
	next      cryptoService.KeyWrapper
}

// NewRotateUseCase creates a RotateUseCase. envelope holds the current key
// pair, next wraps under the replacement public key.
func NewRotateUseCase(
	rewrapper SecretRewrapper,
	envelope cryptoService.Envelope,
	next cryptoService.KeyWrapper,
) RotateUseCase {
	return &rotateUseCase{
		rewrapper: rewrapper,
		envelope:  envelope,
		next:      next,
	}
}

// Rotate re-wraps every stored data key as one atomic mutation and returns
// the number of secrets processed. Any failure leaves the database untouched.
func (r *rotateUseCase) Rotate(ctx context.Context) (int, error) {
	return r.rewrapper.RewrapSecrets(ctx, func(
		secret *vaultDomain.Secret,
	) (*vaultDomain.Secret, error) {
		record, err := r.envelope.Rewrap(secret.Record, r.next)
		if err != nil {
			return nil, err
		}
		secret.Record = record
		return secret, nil
	})
}
