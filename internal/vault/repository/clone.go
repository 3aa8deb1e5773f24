package repository

import (
	"slices"
	"sort"

	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// Deep copy helpers. The store never hands out pointers into the live graph,
// so callers can mutate results freely without holding any lock.

func cloneUser(user *vaultDomain.User) *vaultDomain.User {
	out := *user
	out.SecurityGroups = slices.Clone(user.SecurityGroups)
	return &out
}

func cloneSecret(secret *vaultDomain.Secret) *vaultDomain.Secret {
	out := *secret
	out.Record = cloneRecord(secret.Record)
	return &out
}

func cloneRecord(record *cryptoDomain.Record) *cryptoDomain.Record {
	if record == nil {
		return nil
	}
	return &cryptoDomain.Record{
		WrappedKey: slices.Clone(record.WrappedKey),
		Algorithm:  record.Algorithm,
		Nonce:      slices.Clone(record.Nonce),
		Ciphertext: slices.Clone(record.Ciphertext),
		Tag:        slices.Clone(record.Tag),
	}
}

func cloneAccessKey(key *vaultDomain.AccessKey) *vaultDomain.AccessKey {
	out := *key
	out.Permissions = slices.Clone(key.Permissions)
	out.SecurityGroups = slices.Clone(key.SecurityGroups)
	return &out
}

func cloneVault(vault *vaultDomain.Vault) *vaultDomain.Vault {
	out := vaultDomain.NewVault(vault.Name, vault.CreatedAt)
	for name, secret := range vault.Secrets {
		out.Secrets[name] = cloneSecret(secret)
	}
	for id, key := range vault.AccessKeys {
		out.AccessKeys[id] = cloneAccessKey(key)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
