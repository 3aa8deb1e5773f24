package usecase

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	authService "github.com/allisson/vaulty/internal/auth/service"
	apperrors "github.com/allisson/vaulty/internal/errors"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	users        UserStore
	keys         AccessKeyStore
	passwords    authService.PasswordService
	accessKeys   authService.AccessKeyService
	userDelay    time.Duration
	keyDelay     time.Duration
	userAttempts *attemptTracker
	keyAttempts  *attemptTracker
	logger       *slog.Logger
}

// NewAuthUseCase creates the authentication pipeline. userDelay and keyDelay
// are the configured pauses imposed before responding to a failed credential
// check.
func NewAuthUseCase(
	users UserStore,
	keys AccessKeyStore,
	passwords authService.PasswordService,
	accessKeys authService.AccessKeyService,
	userDelay time.Duration,
	keyDelay time.Duration,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		users:        users,
		keys:         keys,
		passwords:    passwords,
		accessKeys:   accessKeys,
		userDelay:    userDelay,
		keyDelay:     keyDelay,
		userAttempts: newAttemptTracker(),
		keyAttempts:  newAttemptTracker(),
		logger:       logger,
	}
}

// AuthenticateUser runs the user login pipeline.
func (a *authUseCase) AuthenticateUser(
	ctx context.Context,
	username, password string,
	source netip.Addr,
) (*vaultDomain.User, error) {
	user, err := a.users.GetUser(ctx, username)
	if err != nil {
		// Unknown principals take the credential-failure path, so response
		// timing never reveals whether the username exists.
		return nil, a.failUser(ctx, username, source, "unknown user")
	}

	// Pre-authentication filter: out-of-range sources are rejected without
	// delay and without touching the counter.
	if !user.SecurityGroups.Contains(source) {
		a.logger.Warn(
			"login rejected by security group",
			"username", username,
			"source", source.String(),
		)
		return nil, apperrors.ErrUnauthorized
	}

	if !a.passwords.ComparePassword(password, user.PasswordHash) {
		return nil, a.failUser(ctx, username, source, "wrong password")
	}

	a.userAttempts.reset(username)
	return user, nil
}

// AuthenticateAccessKey runs the access key pipeline.
func (a *authUseCase) AuthenticateAccessKey(
	ctx context.Context,
	keyID, secretKey string,
	source netip.Addr,
) (*vaultDomain.AccessKey, error) {
	key, err := a.keys.GetAccessKey(ctx, keyID)
	if err != nil {
		return nil, a.failKey(ctx, keyID, source, "unknown access key")
	}

	if !key.SecurityGroups.Contains(source) {
		a.logger.Warn(
			"access key rejected by security group",
			"access_key_id", keyID,
			"source", source.String(),
		)
		return nil, apperrors.ErrUnauthorized
	}

	if !a.accessKeys.VerifySecretKey(secretKey, key.SecretKeySignature) {
		return nil, a.failKey(ctx, keyID, source, "wrong secret access key")
	}

	a.keyAttempts.reset(keyID)
	return key, nil
}

// Authorize checks the access key's capability set.
func (a *authUseCase) Authorize(
	key *vaultDomain.AccessKey,
	required vaultDomain.Capability,
) error {
	if !key.Permissions.Has(required) {
		return apperrors.ErrForbidden
	}
	return nil
}

// RequireAdmin checks the user's role.
func (a *authUseCase) RequireAdmin(user *vaultDomain.User) error {
	if !user.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}

func (a *authUseCase) failUser(
	ctx context.Context,
	username string,
	source netip.Addr,
	reason string,
) error {
	attempts := a.userAttempts.fail(username)
	a.logger.Warn(
		"login failed",
		"username", username,
		"source", source.String(),
		"reason", reason,
		"failed_attempts", attempts,
	)
	return a.delay(ctx, a.userDelay)
}

func (a *authUseCase) failKey(
	ctx context.Context,
	keyID string,
	source netip.Addr,
	reason string,
) error {
	attempts := a.keyAttempts.fail(keyID)
	a.logger.Warn(
		"access key authentication failed",
		"access_key_id", keyID,
		"source", source.String(),
		"reason", reason,
		"failed_attempts", attempts,
	)
	return a.delay(ctx, a.keyDelay)
}

// delay blocks the requesting path for the configured duration, then returns
// the uniform rejection. Only the caller's connection waits; no database lock
// is held here. An early context cancellation still rejects.
func (a *authUseCase) delay(ctx context.Context, duration time.Duration) error {
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return apperrors.ErrUnauthorized
}
