package service

import (
	"context"

	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	apperrors "github.com/allisson/vaulty/internal/errors"
)

// maxIDAttempts bounds the retry loop on access key ID collisions. With
// alphanumeric IDs of any practical length a collision is already vanishingly
// rare.
const maxIDAttempts = 5

// IDChecker reports whether an access key ID is already taken.
type IDChecker interface {
	HasAccessKeyID(ctx context.Context, id string) bool
}

// accessKeyService implements AccessKeyService. The secret access key is
// signed with the node's ECDSA key and only the signature is handed to the
// store, so the plaintext key exists nowhere after generation.
type accessKeyService struct {
	signer       cryptoService.Signer
	idChecker    IDChecker
	idLength     int
	secretLength int
}

// NewAccessKeyService creates an AccessKeyService.
func NewAccessKeyService(
	signer cryptoService.Signer,
	idChecker IDChecker,
	idLength int,
	secretLength int,
) AccessKeyService {
	return &accessKeyService{
		signer:       signer,
		idChecker:    idChecker,
		idLength:     idLength,
		secretLength: secretLength,
	}
}

// GenerateCredentials creates a new access key credential pair.
func (a *accessKeyService) GenerateCredentials(ctx context.Context) (*GeneratedAccessKey, error) {
	id, err := a.uniqueID(ctx)
	if err != nil {
		return nil, err
	}

	plainSecretKey, err := cryptoService.RandomString(a.secretLength)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate secret access key")
	}

	signature, err := a.signer.Sign([]byte(plainSecretKey))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign secret access key")
	}

	return &GeneratedAccessKey{
		ID:                 id,
		PlainSecretKey:     plainSecretKey,
		SecretKeySignature: signature,
	}, nil
}

// VerifySecretKey checks a presented secret key against the stored signature.
func (a *accessKeyService) VerifySecretKey(plainSecretKey, signature string) bool {
	return a.signer.Verify([]byte(plainSecretKey), signature)
}

func (a *accessKeyService) uniqueID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := cryptoService.RandomString(a.idLength)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate access key id")
		}
		if !a.idChecker.HasAccessKeyID(ctx, id) {
			return id, nil
		}
	}
	return "", apperrors.New("failed to generate a unique access key id")
}
