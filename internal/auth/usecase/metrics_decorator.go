package usecase

import (
	"context"
	"net/netip"
	"time"

	"github.com/allisson/vaulty/internal/metrics"
	vaultDomain "github.com/allisson/vaulty/internal/vault/domain"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
// Attempt counters carry only the principal kind and the outcome, never the
// rejection cause.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// AuthenticateUser records metrics for user login attempts.
func (a *authUseCaseWithMetrics) AuthenticateUser(
	ctx context.Context,
	username, password string,
	source netip.Addr,
) (*vaultDomain.User, error) {
	start := time.Now()
	user, err := a.next.AuthenticateUser(ctx, username, password, source)

	status := "success"
	outcome := "accepted"
	if err != nil {
		status = "error"
		outcome = "rejected"
	}

	a.metrics.RecordAuthAttempt(ctx, "user", outcome)
	a.metrics.RecordDuration(ctx, "auth", "login", time.Since(start), status)

	return user, err
}

// AuthenticateAccessKey records metrics for access key authentication attempts.
func (a *authUseCaseWithMetrics) AuthenticateAccessKey(
	ctx context.Context,
	keyID, secretKey string,
	source netip.Addr,
) (*vaultDomain.AccessKey, error) {
	start := time.Now()
	key, err := a.next.AuthenticateAccessKey(ctx, keyID, secretKey, source)

	status := "success"
	outcome := "accepted"
	if err != nil {
		status = "error"
		outcome = "rejected"
	}

	a.metrics.RecordAuthAttempt(ctx, "access_key", outcome)
	a.metrics.RecordDuration(ctx, "auth", "access_key", time.Since(start), status)

	return key, err
}

// Authorize delegates the capability check.
func (a *authUseCaseWithMetrics) Authorize(
	key *vaultDomain.AccessKey,
	required vaultDomain.Capability,
) error {
	return a.next.Authorize(key, required)
}

// RequireAdmin delegates the role check.
func (a *authUseCaseWithMetrics) RequireAdmin(user *vaultDomain.User) error {
	return a.next.RequireAdmin(user)
}
