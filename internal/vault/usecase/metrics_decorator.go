package usecase

import (
	"context"
	"time"

	"github.com/allisson/vaulty/internal/metrics"
)

// secretUseCaseWithMetrics decorates SecretUseCase with metrics instrumentation.
type secretUseCaseWithMetrics struct {
	next    SecretUseCase
	metrics metrics.BusinessMetrics
}

// NewSecretUseCaseWithMetrics wraps a SecretUseCase with metrics recording.
func NewSecretUseCaseWithMetrics(useCase SecretUseCase, m metrics.BusinessMetrics) SecretUseCase {
	return &secretUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *secretUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", operation, status)
	s.metrics.RecordDuration(ctx, "secrets", operation, time.Since(start), status)
}

// Put records metrics for secret insert and overwrite operations.
func (s *secretUseCaseWithMetrics) Put(ctx context.Context, input *PutSecretInput) error {
	start := time.Now()
	err := s.next.Put(ctx, input)
	s.record(ctx, "put", start, err)
	return err
}

// Get records metrics for secret decryption operations.
func (s *secretUseCaseWithMetrics) Get(
	ctx context.Context,
	vaultName, name string,
) (*SecretOutput, error) {
	start := time.Now()
	secret, err := s.next.Get(ctx, vaultName, name)
	s.record(ctx, "get", start, err)
	return secret, err
}

// List records metrics for secret listing operations.
func (s *secretUseCaseWithMetrics) List(
	ctx context.Context,
	vaultName string,
) ([]*SecretMetadata, error) {
	start := time.Now()
	secrets, err := s.next.List(ctx, vaultName)
	s.record(ctx, "list", start, err)
	return secrets, err
}

// Delete records metrics for secret deletion operations.
func (s *secretUseCaseWithMetrics) Delete(ctx context.Context, vaultName, name string) error {
	start := time.Now()
	err := s.next.Delete(ctx, vaultName, name)
	s.record(ctx, "delete", start, err)
	return err
}
