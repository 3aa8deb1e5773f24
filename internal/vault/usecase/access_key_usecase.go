package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	authService "github.com/allisson/vaulty/internal/auth/service"
	appValidation "github.com/allisson/vaulty/internal/validation"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// accessKeyUseCase implements AccessKeyUseCase.
type accessKeyUseCase struct {
	accessKeyRepo AccessKeyRepository
	accessKeys    authService.AccessKeyService
}

// NewAccessKeyUseCase creates an AccessKeyUseCase.
func NewAccessKeyUseCase(
	accessKeyRepo AccessKeyRepository,
	accessKeys authService.AccessKeyService,
) AccessKeyUseCase {
	return &accessKeyUseCase{
		accessKeyRepo: accessKeyRepo,
		accessKeys:    accessKeys,
	}
}

// Create generates a credential pair scoped to one vault. The plain secret
// key appears only in the returned output.
func (a *accessKeyUseCase) Create(
	ctx context.Context,
	input *CreateAccessKeyInput,
) (*CreateAccessKeyOutput, error) {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Vault,
			validation.Required.Error("vault is required"),
			appValidation.EntityName,
			validation.Length(1, 255).Error("vault must be between 1 and 255 characters"),
		),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}

	permissions, err := vaultDomain.ParseCapabilities(input.Permissions)
	if err != nil {
		return nil, err
	}
	groups, err := vaultDomain.ParseSecurityGroups(input.SecurityGroups)
	if err != nil {
		return nil, err
	}

	generated, err := a.accessKeys.GenerateCredentials(ctx)
	if err != nil {
		return nil, err
	}

	key := &vaultDomain.AccessKey{
		ID:                 generated.ID,
		VaultName:          input.Vault,
		SecretKeySignature: generated.SecretKeySignature,
		Permissions:        permissions,
		SecurityGroups:     groups,
		CreatedAt:          time.Now().UTC(),
	}

	if err := a.accessKeyRepo.CreateAccessKey(ctx, key); err != nil {
		return nil, err
	}

	return &CreateAccessKeyOutput{
		Key:            key,
		PlainSecretKey: generated.PlainSecretKey,
	}, nil
}

// Get retrieves an access key by ID.
func (a *accessKeyUseCase) Get(ctx context.Context, id string) (*vaultDomain.AccessKey, error) {
	return a.accessKeyRepo.GetAccessKey(ctx, id)
}

// List returns a vault's access keys.
func (a *accessKeyUseCase) List(
	ctx context.Context,
	vaultName string,
) ([]*vaultDomain.AccessKey, error) {
	return a.accessKeyRepo.ListAccessKeys(ctx, vaultName)
}

// Delete removes an access key.
func (a *accessKeyUseCase) Delete(ctx context.Context, id string) error {
	return a.accessKeyRepo.DeleteAccessKey(ctx, id)
}

// ChangePermissions replaces the key's capability set.
func (a *accessKeyUseCase) ChangePermissions(
	ctx context.Context,
	id string,
	permissions []string,
) error {
	parsed, err := vaultDomain.ParseCapabilities(permissions)
	if err != nil {
		return err
	}

	key, err := a.accessKeyRepo.GetAccessKey(ctx, id)
	if err != nil {
		return err
	}

	key.Permissions = parsed
	return a.accessKeyRepo.UpdateAccessKey(ctx, key)
}

// ChangeSecurityGroups replaces the key's CIDR allow-list.
func (a *accessKeyUseCase) ChangeSecurityGroups(
	ctx context.Context,
	id string,
	cidrs []string,
) error {
	groups, err := vaultDomain.ParseSecurityGroups(cidrs)
	if err != nil {
		return err
	}

	key, err := a.accessKeyRepo.GetAccessKey(ctx, id)
	if err != nil {
		return err
	}

	key.SecurityGroups = groups
	return a.accessKeyRepo.UpdateAccessKey(ctx, key)
}
