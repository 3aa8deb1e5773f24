package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	appValidation "github.com/allisson/vaulty/internal/validation"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// secretUseCase implements SecretUseCase on top of the envelope cipher.
type secretUseCase struct {
	secretRepo SecretRepository
	envelope   cryptoService.Envelope
}

// NewSecretUseCase creates a SecretUseCase.
func NewSecretUseCase(
	secretRepo SecretRepository,
	envelope cryptoService.Envelope,
) SecretUseCase {
	return &secretUseCase{
		secretRepo: secretRepo,
		envelope:   envelope,
	}
}

func (s *secretUseCase) validatePutSecretInput(input *PutSecretInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Vault,
			validation.Required.Error("vault is required"),
			appValidation.EntityName,
			validation.Length(1, 255).Error("vault must be between 1 and 255 characters"),
		),
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.EntityName,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}
	if len(input.Value) == 0 {
		return vaultDomain.ErrEmptySecretValue
	}
	return nil
}

// Put seals the value and stores it, creating the vault implicitly.
func (s *secretUseCase) Put(ctx context.Context, input *PutSecretInput) error {
	if err := s.validatePutSecretInput(input); err != nil {
		return err
	}
	kind, err := vaultDomain.ParseContentKind(input.ContentKind)
	if err != nil {
		return err
	}

	record, err := s.envelope.Seal(input.Value)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	secret := &vaultDomain.Secret{
		Name:        input.Name,
		Record:      record,
		ContentKind: kind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.secretRepo.PutSecret(ctx, input.Vault, secret)
}

// Get decrypts and returns a secret's value.
func (s *secretUseCase) Get(ctx context.Context, vaultName, name string) (*SecretOutput, error) {
	secret, err := s.secretRepo.GetSecret(ctx, vaultName, name)
	if err != nil {
		return nil, err
	}

	value, err := s.envelope.Open(secret.Record)
	if err != nil {
		return nil, err
	}

	return &SecretOutput{
		Name:        secret.Name,
		ContentKind: secret.ContentKind,
		Value:       value,
		CreatedAt:   secret.CreatedAt,
		UpdatedAt:   secret.UpdatedAt,
	}, nil
}

// List returns names and metadata only. The envelope cipher is never invoked
// on the list path.
func (s *secretUseCase) List(ctx context.Context, vaultName string) ([]*SecretMetadata, error) {
	secrets, err := s.secretRepo.ListSecrets(ctx, vaultName)
	if err != nil {
		return nil, err
	}

	out := make([]*SecretMetadata, 0, len(secrets))
	for _, secret := range secrets {
		out = append(out, &SecretMetadata{
			Name:        secret.Name,
			ContentKind: secret.ContentKind,
			CreatedAt:   secret.CreatedAt,
			UpdatedAt:   secret.UpdatedAt,
		})
	}
	return out, nil
}

// Delete removes a secret. The old record is discarded entirely.
func (s *secretUseCase) Delete(ctx context.Context, vaultName, name string) error {
	return s.secretRepo.DeleteSecret(ctx, vaultName, name)
}
