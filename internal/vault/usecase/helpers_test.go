package usecase

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	authService "github.com/allisson/vaulty/internal/auth/service"
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	"github.com/allisson/vaulty/internal/vault/repository"
)

// fixture wires real services against a temp-file database so the usecases
// are exercised end to end, crypto included.
type fixture struct {
	db         *repository.Database
	rsaKey     *rsa.PrivateKey
	envelope   cryptoService.Envelope
	passwords  authService.PasswordService
	accessKeys authService.AccessKeyService

	users   UserUseCase
	vaults  VaultUseCase
	secrets SecretUseCase
	keys    AccessKeyUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, _, err := repository.Open(filepath.Join(t.TempDir(), "vaulty.db"))
	require.NoError(t, err)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecdsaKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	envelope := cryptoService.NewEnvelope(
		cryptoService.NewRSAKeyWrapper(&rsaKey.PublicKey, rsaKey),
		cryptoService.NewAEADManager(),
		cryptoDomain.AESGCM,
	)
	signer := cryptoService.NewECDSASigner(ecdsaKey, &ecdsaKey.PublicKey)
	passwords := authService.NewPasswordService()
	accessKeys := authService.NewAccessKeyService(signer, db, 20, 40)

	return &fixture{
		db:         db,
		rsaKey:     rsaKey,
		envelope:   envelope,
		passwords:  passwords,
		accessKeys: accessKeys,
		users:      NewUserUseCase(db, passwords, 20),
		vaults:     NewVaultUseCase(db),
		secrets:    NewSecretUseCase(db, envelope),
		keys:       NewAccessKeyUseCase(db, accessKeys),
	}
}
