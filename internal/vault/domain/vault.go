package domain

import (
	"time"
)

// Vault groups secrets and the access keys scoped to them. Vaults are created
// implicitly by the first secret or access key inserted under their name and
// deleting one cascades to everything it owns.
type Vault struct {
	// Name is the unique key.
	Name string
	// Secrets maps secret name to secret, unique within the vault.
	Secrets map[string]*Secret
	// AccessKeys maps access key ID to access key. IDs are globally unique
	// across vaults.
	AccessKeys map[string]*AccessKey
	CreatedAt  time.Time
}

// NewVault creates an empty vault.
func NewVault(name string, now time.Time) *Vault {
	return &Vault{
		Name:       name,
		Secrets:    make(map[string]*Secret),
		AccessKeys: make(map[string]*AccessKey),
		CreatedAt:  now,
	}
}
