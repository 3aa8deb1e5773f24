package commands

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"log/slog"

	"github.com/allisson/vaulty/internal/config"
	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	vaultUsecase "github.com/allisson/vaulty/internal/vault/usecase"
)

// RunRotateKeypair generates a new RSA pair, re-wraps every stored data key
// under the new public key in one atomic mutation, and replaces the key files
// on disk. A new sealing key and nonce are generated alongside the pair.
// Secret ciphertexts are not touched.
//
// The new key material is staged to ".new" files before the database is
// rewritten, so the new private key is durable on disk before anything
// references it. If the process dies between the database write and the
// renames, the staged files next to the configured paths hold the matching
// key material; moving them into place by hand completes the rotation.
func RunRotateKeypair(
	ctx context.Context,
	rewrapper vaultUsecase.SecretRewrapper,
	envelope cryptoService.Envelope,
	cfg *config.Config,
	logger *slog.Logger,
	bits int,
) error {
	if bits < minRSABits {
		return fmt.Errorf("RSA key size must be at least %d bits, got %d", minRSABits, bits)
	}

	logger.Info("rotating RSA key pair", slog.Int("rsa_bits", bits))

	newKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	staged := stagedKeyPaths(cfg)
	if err := writeRSAKeyFiles(staged, newKey); err != nil {
		removeRSAKeyFiles(staged)
		return err
	}

	next := cryptoService.NewRSAKeyWrapper(&newKey.PublicKey, newKey)
	rotate := vaultUsecase.NewRotateUseCase(rewrapper, envelope, next)

	count, err := rotate.Rotate(ctx)
	if err != nil {
		removeRSAKeyFiles(staged)
		return fmt.Errorf("failed to re-wrap secrets: %w", err)
	}

	if err := commitRSAKeyFiles(staged, cfg); err != nil {
		return err
	}

	logger.Info("key pair rotated",
		slog.Int("secrets_rewrapped", count),
		slog.String("rsa_private_key", cfg.RSAPrivateKeyPath),
		slog.String("rsa_public_key", cfg.RSAPublicKeyPath),
	)

	return nil
}
