// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/base64"
	"time"

	vaultUsecase "github.com/allisson/vaulty/internal/vault/usecase"
)

// LoginResponse carries the session token issued after a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	Node      string    `json:"node"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SecretResponse represents a secret in API responses. Value holds the
// base64-encoded decrypted payload and is only included in GET responses.
type SecretResponse struct {
	Name        string    `json:"name"`
	ContentKind string    `json:"content_kind"`
	Value       string    `json:"value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapSecretToGetResponse converts a decrypted secret to an API response.
func MapSecretToGetResponse(secret *vaultUsecase.SecretOutput) SecretResponse {
	return SecretResponse{
		Name:        secret.Name,
		ContentKind: string(secret.ContentKind),
		Value:       base64.StdEncoding.EncodeToString(secret.Value),
		CreatedAt:   secret.CreatedAt,
		UpdatedAt:   secret.UpdatedAt,
	}
}

// ListSecretsResponse represents a list of secrets in API responses.
// Entries carry metadata only, never decrypted content.
type ListSecretsResponse struct {
	Data []SecretResponse `json:"data"`
}

// MapSecretsToListResponse converts secret metadata to a list response.
func MapSecretsToListResponse(secrets []*vaultUsecase.SecretMetadata) ListSecretsResponse {
	data := make([]SecretResponse, 0, len(secrets))
	for _, secret := range secrets {
		data = append(data, SecretResponse{
			Name:        secret.Name,
			ContentKind: string(secret.ContentKind),
			CreatedAt:   secret.CreatedAt,
			UpdatedAt:   secret.UpdatedAt,
		})
	}

	return ListSecretsResponse{
		Data: data,
	}
}
