package commands

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"

	"github.com/allisson/vaulty/internal/config"
)

const minRSABits = 2048

// RunKeygen generates the node's full key material and writes it to the
// configured paths: the RSA wrapping pair with its sealing key and nonce, and
// the ECDSA P-256 pair used to sign secret access keys.
//
// Existing key files are never overwritten unless force is set. Replacing the
// RSA pair of a node with stored secrets makes them unrecoverable; use the
// rotate-keypair command for that instead.
func RunKeygen(cfg *config.Config, logger *slog.Logger, bits int, force bool) error {
	if bits < minRSABits {
		return fmt.Errorf("RSA key size must be at least %d bits, got %d", minRSABits, bits)
	}

	paths := []string{
		cfg.RSAPrivateKeyPath,
		cfg.RSAPublicKeyPath,
		cfg.AESKeyPath,
		cfg.AESIVPath,
		cfg.SigningKeyPath,
		cfg.VerifyingKeyPath,
	}
	if !force {
		for _, path := range paths {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("key file %s already exists (use --force to overwrite)", path)
			}
		}
	}

	logger.Info("generating key material", slog.Int("rsa_bits", bits))

	rsaKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	if err := writeRSAKeyFiles(cfg, rsaKey); err != nil {
		return err
	}

	ecdsaKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key pair: %w", err)
	}

	signingDER, err := x509.MarshalPKCS8PrivateKey(ecdsaKey)
	if err != nil {
		return fmt.Errorf("failed to encode signing key: %w", err)
	}

	verifyingDER, err := x509.MarshalPKIXPublicKey(&ecdsaKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to encode verifying key: %w", err)
	}

	if err := writeKeyFile(cfg.SigningKeyPath, encodePEM("PRIVATE KEY", signingDER)); err != nil {
		return err
	}
	if err := writeKeyFile(cfg.VerifyingKeyPath, encodePEM("PUBLIC KEY", verifyingDER)); err != nil {
		return err
	}

	logger.Info("key material generated",
		slog.String("rsa_private_key", cfg.RSAPrivateKeyPath),
		slog.String("rsa_public_key", cfg.RSAPublicKeyPath),
		slog.String("signing_key", cfg.SigningKeyPath),
		slog.String("verifying_key", cfg.VerifyingKeyPath),
	)

	return nil
}
