package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authUsecase "github.com/allisson/vaulty/internal/auth/usecase"
	apperrors "github.com/allisson/vaulty/internal/errors"
	"github.com/allisson/vaulty/internal/httputil"
	appValidation "github.com/allisson/vaulty/internal/validation"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
	"github.com/allisson/vaulty/internal/vault/http/dto"
	vaultUsecase "github.com/allisson/vaulty/internal/vault/usecase"
)

// SecretHandler handles the secret engine endpoints. Every endpoint is
// access key authenticated; each operation additionally requires the
// matching capability on the key and the key's vault must match the URL.
type SecretHandler struct {
	secrets vaultUsecase.SecretUseCase
	auth    authUsecase.AuthUseCase
	logger  *slog.Logger
}

// NewSecretHandler creates a new secret handler.
func NewSecretHandler(
	secrets vaultUsecase.SecretUseCase,
	auth authUsecase.AuthUseCase,
	logger *slog.Logger,
) *SecretHandler {
	return &SecretHandler{
		secrets: secrets,
		auth:    auth,
		logger:  logger,
	}
}

// authorize resolves the access key from the context and checks vault scope
// and capability. A key scoped to another vault is rejected with the same
// forbidden response as a missing capability.
func (h *SecretHandler) authorize(
	c *gin.Context,
	capability vaultDomain.Capability,
) (*vaultDomain.AccessKey, error) {
	key, ok := GetAccessKey(c.Request.Context())
	if !ok || key == nil {
		return nil, apperrors.ErrUnauthorized
	}

	if key.VaultName != c.Param("vault") {
		return nil, apperrors.ErrForbidden
	}

	if err := h.auth.Authorize(key, capability); err != nil {
		return nil, err
	}

	return key, nil
}

// ListHandler returns the names and metadata of a vault's secrets.
// GET /v1/vaults/:vault - Requires the list-secrets capability.
// Decrypted content is never included.
func (h *SecretHandler) ListHandler(c *gin.Context) {
	if _, err := h.authorize(c, vaultDomain.CapabilityListSecrets); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	secrets, err := h.secrets.List(c.Request.Context(), c.Param("vault"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretsToListResponse(secrets))
}

// GetHandler decrypts and returns a secret.
// GET /v1/vaults/:vault/:secret - Requires the decrypt-secrets capability.
func (h *SecretHandler) GetHandler(c *gin.Context) {
	if _, err := h.authorize(c, vaultDomain.CapabilityDecryptSecrets); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	secret, err := h.secrets.Get(c.Request.Context(), c.Param("vault"), c.Param("secret"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretToGetResponse(secret))
}

// PutHandler inserts or overwrites a secret.
// PUT /v1/vaults/:vault/:secret - Requires the create-secrets capability.
// Returns 201 Created with metadata only.
func (h *SecretHandler) PutHandler(c *gin.Context) {
	if _, err := h.authorize(c, vaultDomain.CapabilityCreateSecrets); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.PutSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid base64 value: %w", err),
			h.logger,
		)
		return
	}

	input := &vaultUsecase.PutSecretInput{
		Vault:       c.Param("vault"),
		Name:        c.Param("secret"),
		Value:       value,
		ContentKind: req.ContentKind,
	}
	if err := h.secrets.Put(c.Request.Context(), input); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"vault":  c.Param("vault"),
		"secret": c.Param("secret"),
	})
}

// DeleteHandler removes a secret.
// DELETE /v1/vaults/:vault/:secret - Requires the delete-secrets capability.
// Returns 204 No Content.
func (h *SecretHandler) DeleteHandler(c *gin.Context) {
	if _, err := h.authorize(c, vaultDomain.CapabilityDeleteSecrets); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.secrets.Delete(c.Request.Context(), c.Param("vault"), c.Param("secret")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
