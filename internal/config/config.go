// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// NodeName is the display name of this vaulty node, reported to clients
	// after a successful login. Not security relevant.
	NodeName string

	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// DBLocation is the path to the database file.
	DBLocation string

	// RSAPrivateKeyPath is the path to the encrypted RSA private key used to
	// unwrap secret data keys. The file is sealed with the AES key below.
	RSAPrivateKeyPath string
	// RSAPublicKeyPath is the path to the RSA public key (PEM) used to wrap
	// secret data keys.
	RSAPublicKeyPath string
	// AESKeyPath is the path to the base64-encoded 32-byte key that protects
	// the RSA private key at rest. Never used to encrypt secret payloads.
	AESKeyPath string
	// AESIVPath is the path to the base64-encoded 12-byte nonce used together
	// with the AES key when sealing the RSA private key.
	AESIVPath string
	// SigningKeyPath is the path to the ECDSA P-256 private key (PEM) used to
	// sign secret access keys.
	SigningKeyPath string
	// VerifyingKeyPath is the path to the ECDSA P-256 public key (PEM) used to
	// verify secret access keys.
	VerifyingKeyPath string

	// SecretAlgorithm selects the AEAD used for secret payloads
	// ("aes-gcm" or "chacha20-poly1305").
	SecretAlgorithm string

	// AccessKeyLength is the length of generated access key IDs.
	AccessKeyLength int
	// SecretAccessKeyLength is the length of generated secret access keys.
	SecretAccessKeyLength int
	// AccessKeyDelay is how long a failed access-key authentication attempt is
	// held before responding.
	AccessKeyDelay time.Duration
	// UserDelay is how long a failed user login attempt is held before responding.
	UserDelay time.Duration

	// RootPasswordLength is the length of the generated root password on a
	// fresh database.
	RootPasswordLength int

	// SessionExpiration is the duration after which a command session token expires.
	SessionExpiration time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RateLimitLoginEnabled indicates whether per-IP rate limiting for the
	// login endpoint is enabled.
	RateLimitLoginEnabled bool
	// RateLimitLoginRequestsPerSec is the number of login requests allowed per
	// second per IP.
	RateLimitLoginRequestsPerSec float64
	// RateLimitLoginBurst is the burst size for login rate limiting.
	RateLimitLoginBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		NodeName: env.GetString("NODE_NAME", "vaulty"),

		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Database configuration
		DBLocation: env.GetString("DB_LOCATION", "vaulty.db"),

		// Key material
		RSAPrivateKeyPath: env.GetString("RSA_PRIVATE_KEY_PATH", "keys/rsa_private.sealed"),
		RSAPublicKeyPath:  env.GetString("RSA_PUBLIC_KEY_PATH", "keys/rsa_public.pem"),
		AESKeyPath:        env.GetString("AES_KEY_PATH", "keys/aes_key.b64"),
		AESIVPath:         env.GetString("AES_IV_PATH", "keys/aes_iv.b64"),
		SigningKeyPath:    env.GetString("SIGNING_KEY_PATH", "keys/ecdsa_private.pem"),
		VerifyingKeyPath:  env.GetString("VERIFYING_KEY_PATH", "keys/ecdsa_public.pem"),

		// Envelope cipher
		SecretAlgorithm: env.GetString("SECRET_ALGORITHM", "aes-gcm"),

		// Access keys
		AccessKeyLength:       env.GetInt("ACCESS_KEY_LENGTH", 20),
		SecretAccessKeyLength: env.GetInt("SECRET_ACCESS_KEY_LENGTH", 40),
		AccessKeyDelay:        env.GetDuration("ACCESS_KEY_DELAY_MILLIS", 3000, time.Millisecond),

		// Users
		UserDelay: env.GetDuration("USER_DELAY_MILLIS", 3000, time.Millisecond),

		// Bootstrap
		RootPasswordLength: env.GetInt("ROOT_PASSWORD_LENGTH", 20),

		// Command sessions
		SessionExpiration: env.GetDuration("SESSION_EXPIRATION_SECONDS", 14400, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Rate limiting for the login endpoint (IP-based, unauthenticated)
		RateLimitLoginEnabled:        env.GetBool("RATE_LIMIT_LOGIN_ENABLED", true),
		RateLimitLoginRequestsPerSec: env.GetFloat64("RATE_LIMIT_LOGIN_REQUESTS_PER_SEC", 5.0),
		RateLimitLoginBurst:          env.GetInt("RATE_LIMIT_LOGIN_BURST", 10),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "vaulty"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
