package command

import (
	"time"

	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// Request is a structured command. Op selects the operation; the remaining
// fields are read per-op and ignored otherwise. Secret values travel
// base64-encoded in both directions.
type Request struct {
	Op             string   `json:"op"`
	Username       string   `json:"username,omitempty"`
	Password       string   `json:"password,omitempty"`
	Role           string   `json:"role,omitempty"`
	SecurityGroups []string `json:"security_groups,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
	Vault          string   `json:"vault,omitempty"`
	Secret         string   `json:"secret,omitempty"`
	AccessKeyID    string   `json:"access_key_id,omitempty"`
	Value          string   `json:"value,omitempty"`
	ContentKind    string   `json:"content_kind,omitempty"`
}

// UserInfo describes a user without its password hash.
type UserInfo struct {
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	SecurityGroups []string  `json:"security_groups"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// VaultInfo describes a vault by name and content counts.
type VaultInfo struct {
	Name           string    `json:"name"`
	SecretCount    int       `json:"secret_count"`
	AccessKeyCount int       `json:"access_key_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccessKeyInfo describes an access key without its secret key material.
type AccessKeyInfo struct {
	ID             string    `json:"access_key_id"`
	Vault          string    `json:"vault"`
	Permissions    []string  `json:"permissions"`
	SecurityGroups []string  `json:"security_groups"`
	CreatedAt      time.Time `json:"created_at"`
}

// SecretInfo describes a secret. Value is set only by secret.find and holds
// the base64-encoded decrypted payload.
type SecretInfo struct {
	Name        string    `json:"name"`
	ContentKind string    `json:"content_kind"`
	Value       string    `json:"value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Response carries the result of one command. Only the fields relevant to
// the executed op are populated.
type Response struct {
	Op             string           `json:"op"`
	User           *UserInfo        `json:"user,omitempty"`
	Users          []*UserInfo      `json:"users,omitempty"`
	Vault          *VaultInfo       `json:"vault,omitempty"`
	Vaults         []*VaultInfo     `json:"vaults,omitempty"`
	AccessKey      *AccessKeyInfo   `json:"access_key,omitempty"`
	AccessKeys     []*AccessKeyInfo `json:"access_keys,omitempty"`
	PlainSecretKey string           `json:"plain_secret_key,omitempty"`
	Secret         *SecretInfo      `json:"secret,omitempty"`
	Secrets        []*SecretInfo    `json:"secrets,omitempty"`
}

func newUserInfo(user *vaultDomain.User) *UserInfo {
	return &UserInfo{
		Username:       user.Username,
		Role:           string(user.Role),
		SecurityGroups: user.SecurityGroups.Strings(),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func newVaultInfo(vault *vaultDomain.Vault) *VaultInfo {
	return &VaultInfo{
		Name:           vault.Name,
		SecretCount:    len(vault.Secrets),
		AccessKeyCount: len(vault.AccessKeys),
		CreatedAt:      vault.CreatedAt,
	}
}

func newAccessKeyInfo(key *vaultDomain.AccessKey) *AccessKeyInfo {
	permissions := make([]string, 0, len(key.Permissions))
	for _, capability := range key.Permissions {
		permissions = append(permissions, string(capability))
	}

	return &AccessKeyInfo{
		ID:             key.ID,
		Vault:          key.VaultName,
		Permissions:    permissions,
		SecurityGroups: key.SecurityGroups.Strings(),
		CreatedAt:      key.CreatedAt,
	}
}
