package usecase

import (
	"context"

	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// vaultUseCase implements VaultUseCase.
type vaultUseCase struct {
	vaultRepo VaultRepository
}

// NewVaultUseCase creates a VaultUseCase.
func NewVaultUseCase(vaultRepo VaultRepository) VaultUseCase {
	return &vaultUseCase{vaultRepo: vaultRepo}
}

// Get retrieves a vault with its secrets and access keys.
func (v *vaultUseCase) Get(ctx context.Context, name string) (*vaultDomain.Vault, error) {
	return v.vaultRepo.GetVault(ctx, name)
}

// List returns all vaults.
func (v *vaultUseCase) List(ctx context.Context) ([]*vaultDomain.Vault, error) {
	return v.vaultRepo.ListVaults(ctx)
}

// Delete removes a vault, cascading to all its secrets and access keys.
func (v *vaultUseCase) Delete(ctx context.Context, name string) error {
	return v.vaultRepo.DeleteVault(ctx, name)
}
