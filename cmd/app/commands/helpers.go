// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"

	"github.com/allisson/vaulty/internal/app"
	"github.com/allisson/vaulty/internal/config"
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
)

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// writeRSAKeyFiles generates a fresh sealing key and nonce, seals the private
// key under them, and writes the four files for the wrapping layer. The
// sealing key and nonce are regenerated together with the RSA pair so the
// fixed nonce is only ever used once per sealing key.
func writeRSAKeyFiles(cfg *config.Config, key *rsa.PrivateKey) error {
	kek := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(kek); err != nil {
		return fmt.Errorf("failed to generate sealing key: %w", err)
	}
	defer cryptoDomain.Zero(kek)

	iv := make([]byte, cryptoDomain.NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("failed to generate sealing nonce: %w", err)
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to encode RSA private key: %w", err)
	}
	defer cryptoDomain.Zero(privateDER)

	sealed, err := cryptoService.SealRSAPrivateKey(privateDER, kek, iv)
	if err != nil {
		return fmt.Errorf("failed to seal RSA private key: %w", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to encode RSA public key: %w", err)
	}

	if err := writeKeyFile(cfg.RSAPrivateKeyPath, []byte(sealed)); err != nil {
		return err
	}
	if err := writeKeyFile(cfg.RSAPublicKeyPath, encodePEM("PUBLIC KEY", publicDER)); err != nil {
		return err
	}
	if err := writeKeyFile(cfg.AESKeyPath, []byte(base64.StdEncoding.EncodeToString(kek))); err != nil {
		return err
	}
	return writeKeyFile(cfg.AESIVPath, []byte(base64.StdEncoding.EncodeToString(iv)))
}

// stagedSuffix marks key files written ahead of a rotation commit.
const stagedSuffix = ".new"

// stagedKeyPaths returns a copy of cfg pointing the wrapping-layer key paths
// at staged files next to the configured ones.
func stagedKeyPaths(cfg *config.Config) *config.Config {
	staged := *cfg
	staged.RSAPrivateKeyPath += stagedSuffix
	staged.RSAPublicKeyPath += stagedSuffix
	staged.AESKeyPath += stagedSuffix
	staged.AESIVPath += stagedSuffix
	return &staged
}

// commitRSAKeyFiles renames staged key files onto the configured paths. The
// sealed private key and its sealing material move first so an interruption
// can never leave a committed database without its private key on disk.
func commitRSAKeyFiles(staged, cfg *config.Config) error {
	renames := [][2]string{
		{staged.RSAPrivateKeyPath, cfg.RSAPrivateKeyPath},
		{staged.AESKeyPath, cfg.AESKeyPath},
		{staged.AESIVPath, cfg.AESIVPath},
		{staged.RSAPublicKeyPath, cfg.RSAPublicKeyPath},
	}
	for _, r := range renames {
		if err := os.Rename(r[0], r[1]); err != nil {
			return fmt.Errorf("failed to move %s into place: %w", r[0], err)
		}
	}
	return nil
}

// removeRSAKeyFiles deletes the wrapping-layer key files, ignoring files that
// were never written.
func removeRSAKeyFiles(cfg *config.Config) {
	for _, path := range []string{
		cfg.RSAPrivateKeyPath,
		cfg.RSAPublicKeyPath,
		cfg.AESKeyPath,
		cfg.AESIVPath,
	} {
		_ = os.Remove(path)
	}
}

func writeKeyFile(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func encodePEM(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}
