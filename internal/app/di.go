// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authService "github.com/allisson/vaulty/internal/auth/service"
	authUsecase "github.com/allisson/vaulty/internal/auth/usecase"
	"github.com/allisson/vaulty/internal/command"
	"github.com/allisson/vaulty/internal/config"
	cryptoDomain "github.com/allisson/vaulty/internal/crypto/domain"
	cryptoService "github.com/allisson/vaulty/internal/crypto/service"
	"github.com/allisson/vaulty/internal/http"
	"github.com/allisson/vaulty/internal/metrics"
	vaultHTTP "github.com/allisson/vaulty/internal/vault/http"
	"github.com/allisson/vaulty/internal/vault/repository"
	vaultUsecase "github.com/allisson/vaulty/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger  *slog.Logger
	db      *repository.Database
	dbFresh bool
	keySet  *cryptoDomain.KeySet

	// Services
	envelope   cryptoService.Envelope
	signer     cryptoService.Signer
	passwords  authService.PasswordService
	accessKeys authService.AccessKeyService

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Use Cases
	authUseCase      authUsecase.AuthUseCase
	userUseCase      vaultUsecase.UserUseCase
	vaultUseCase     vaultUsecase.VaultUseCase
	secretUseCase    vaultUsecase.SecretUseCase
	accessKeyUseCase vaultUsecase.AccessKeyUseCase

	// HTTP
	dispatcher    *command.Dispatcher
	sessions      *vaultHTTP.SessionManager
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	keySetInit           sync.Once
	envelopeInit         sync.Once
	signerInit           sync.Once
	passwordsInit        sync.Once
	accessKeysInit       sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	authUseCaseInit      sync.Once
	userUseCaseInit      sync.Once
	vaultUseCaseInit     sync.Once
	secretUseCaseInit    sync.Once
	accessKeyUseCaseInit sync.Once
	dispatcherInit       sync.Once
	sessionsInit         sync.Once
	httpServerInit       sync.Once
	metricsServerInit    sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Database returns the database handle, opening or creating the file on
// first access.
func (c *Container) Database() (*repository.Database, error) {
	c.dbInit.Do(func() {
		db, fresh, err := repository.Open(c.config.DBLocation)
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to open database: %w", err)
			return
		}
		c.db = db
		c.dbFresh = fresh
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// KeySet returns the node's long-term key material, loading it from disk on
// first access.
func (c *Container) KeySet() (*cryptoDomain.KeySet, error) {
	c.keySetInit.Do(func() {
		keySet, err := cryptoService.LoadKeySet(cryptoService.KeystoreConfig{
			RSAPrivateKeyPath: c.config.RSAPrivateKeyPath,
			RSAPublicKeyPath:  c.config.RSAPublicKeyPath,
			AESKeyPath:        c.config.AESKeyPath,
			AESIVPath:         c.config.AESIVPath,
			SigningKeyPath:    c.config.SigningKeyPath,
			VerifyingKeyPath:  c.config.VerifyingKeyPath,
		})
		if err != nil {
			c.initErrors["keySet"] = fmt.Errorf("failed to load key material: %w", err)
			return
		}
		c.keySet = keySet
	})
	if storedErr, exists := c.initErrors["keySet"]; exists {
		return nil, storedErr
	}
	return c.keySet, nil
}

// Envelope returns the envelope cipher sealing secret payloads.
func (c *Container) Envelope() (cryptoService.Envelope, error) {
	c.envelopeInit.Do(func() {
		keySet, err := c.KeySet()
		if err != nil {
			c.initErrors["envelope"] = err
			return
		}

		algorithm, err := cryptoDomain.ParseAlgorithm(c.config.SecretAlgorithm)
		if err != nil {
			c.initErrors["envelope"] = fmt.Errorf("invalid secret algorithm %q: %w", c.config.SecretAlgorithm, err)
			return
		}

		c.envelope = cryptoService.NewEnvelope(
			cryptoService.NewRSAKeyWrapper(keySet.RSAPublic, keySet.RSAPrivate),
			cryptoService.NewAEADManager(),
			algorithm,
		)
	})
	if storedErr, exists := c.initErrors["envelope"]; exists {
		return nil, storedErr
	}
	return c.envelope, nil
}

// Signer returns the ECDSA signer for secret access keys.
func (c *Container) Signer() (cryptoService.Signer, error) {
	c.signerInit.Do(func() {
		keySet, err := c.KeySet()
		if err != nil {
			c.initErrors["signer"] = err
			return
		}
		c.signer = cryptoService.NewECDSASigner(keySet.Signer, keySet.Verifier)
	})
	if storedErr, exists := c.initErrors["signer"]; exists {
		return nil, storedErr
	}
	return c.signer, nil
}

// PasswordService returns the Argon2id password service.
func (c *Container) PasswordService() authService.PasswordService {
	c.passwordsInit.Do(func() {
		c.passwords = authService.NewPasswordService()
	})
	return c.passwords
}

// AccessKeyService returns the access key credential service.
func (c *Container) AccessKeyService() (authService.AccessKeyService, error) {
	c.accessKeysInit.Do(func() {
		signer, err := c.Signer()
		if err != nil {
			c.initErrors["accessKeys"] = err
			return
		}
		db, err := c.Database()
		if err != nil {
			c.initErrors["accessKeys"] = err
			return
		}
		c.accessKeys = authService.NewAccessKeyService(
			signer,
			db,
			c.config.AccessKeyLength,
			c.config.SecretAccessKeyLength,
		)
	})
	if storedErr, exists := c.initErrors["accessKeys"]; exists {
		return nil, storedErr
	}
	return c.accessKeys, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op
// implementation is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// AuthUseCase returns the authentication pipeline.
func (c *Container) AuthUseCase() (authUsecase.AuthUseCase, error) {
	c.authUseCaseInit.Do(func() {
		auth, err := c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
			return
		}
		c.authUseCase = auth
	})
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// UserUseCase returns the user management use case.
func (c *Container) UserUseCase() (vaultUsecase.UserUseCase, error) {
	c.userUseCaseInit.Do(func() {
		db, err := c.Database()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		c.userUseCase = vaultUsecase.NewUserUseCase(db, c.PasswordService(), c.config.RootPasswordLength)
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// VaultUseCase returns the vault management use case.
func (c *Container) VaultUseCase() (vaultUsecase.VaultUseCase, error) {
	c.vaultUseCaseInit.Do(func() {
		db, err := c.Database()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
			return
		}
		c.vaultUseCase = vaultUsecase.NewVaultUseCase(db)
	})
	if storedErr, exists := c.initErrors["vaultUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultUseCase, nil
}

// SecretUseCase returns the secret engine use case, instrumented with
// business metrics.
func (c *Container) SecretUseCase() (vaultUsecase.SecretUseCase, error) {
	c.secretUseCaseInit.Do(func() {
		secrets, err := c.initSecretUseCase()
		if err != nil {
			c.initErrors["secretUseCase"] = err
			return
		}
		c.secretUseCase = secrets
	})
	if storedErr, exists := c.initErrors["secretUseCase"]; exists {
		return nil, storedErr
	}
	return c.secretUseCase, nil
}

// AccessKeyUseCase returns the access key management use case.
func (c *Container) AccessKeyUseCase() (vaultUsecase.AccessKeyUseCase, error) {
	c.accessKeyUseCaseInit.Do(func() {
		db, err := c.Database()
		if err != nil {
			c.initErrors["accessKeyUseCase"] = err
			return
		}
		accessKeys, err := c.AccessKeyService()
		if err != nil {
			c.initErrors["accessKeyUseCase"] = err
			return
		}
		c.accessKeyUseCase = vaultUsecase.NewAccessKeyUseCase(db, accessKeys)
	})
	if storedErr, exists := c.initErrors["accessKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.accessKeyUseCase, nil
}

// Dispatcher returns the command dispatcher.
func (c *Container) Dispatcher() (*command.Dispatcher, error) {
	c.dispatcherInit.Do(func() {
		dispatcher, err := c.initDispatcher()
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}
		c.dispatcher = dispatcher
	})
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// SessionManager returns the session manager for the command endpoint.
func (c *Container) SessionManager() *vaultHTTP.SessionManager {
	c.sessionsInit.Do(func() {
		c.sessions = vaultHTTP.NewSessionManager(c.config.SessionExpiration)
	})
	return c.sessions
}

// HTTPServer returns the API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Bootstrap creates the root admin on a fresh database. The generated
// password is logged exactly once; there is no other way to recover it.
func (c *Container) Bootstrap(ctx context.Context) error {
	if _, err := c.Database(); err != nil {
		return err
	}

	if !c.dbFresh {
		return nil
	}

	users, err := c.UserUseCase()
	if err != nil {
		return err
	}

	out, err := users.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to bootstrap root user: %w", err)
	}

	c.Logger().Warn("fresh database: root user created, store this password now",
		slog.String("username", out.Username),
		slog.String("password", out.PlainPassword),
	)
	c.dbFresh = false

	return nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.keySet != nil {
		c.keySet.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initAuthUseCase creates the authentication pipeline with its dependencies.
func (c *Container) initAuthUseCase() (authUsecase.AuthUseCase, error) {
	db, err := c.Database()
	if err != nil {
		return nil, err
	}

	accessKeys, err := c.AccessKeyService()
	if err != nil {
		return nil, err
	}

	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	auth := authUsecase.NewAuthUseCase(
		db,
		db,
		c.PasswordService(),
		accessKeys,
		c.config.UserDelay,
		c.config.AccessKeyDelay,
		c.Logger(),
	)

	return authUsecase.NewAuthUseCaseWithMetrics(auth, bm), nil
}

// initSecretUseCase creates the secret engine with its dependencies.
func (c *Container) initSecretUseCase() (vaultUsecase.SecretUseCase, error) {
	db, err := c.Database()
	if err != nil {
		return nil, err
	}

	envelope, err := c.Envelope()
	if err != nil {
		return nil, err
	}

	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	secrets := vaultUsecase.NewSecretUseCase(db, envelope)
	return vaultUsecase.NewSecretUseCaseWithMetrics(secrets, bm), nil
}

// initDispatcher creates the command dispatcher with its dependencies.
func (c *Container) initDispatcher() (*command.Dispatcher, error) {
	users, err := c.UserUseCase()
	if err != nil {
		return nil, err
	}
	vaults, err := c.VaultUseCase()
	if err != nil {
		return nil, err
	}
	secrets, err := c.SecretUseCase()
	if err != nil {
		return nil, err
	}
	keys, err := c.AccessKeyUseCase()
	if err != nil {
		return nil, err
	}

	return command.NewDispatcher(users, vaults, secrets, keys), nil
}

// initHTTPServer creates the API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	auth, err := c.AuthUseCase()
	if err != nil {
		return nil, err
	}
	db, err := c.Database()
	if err != nil {
		return nil, err
	}
	secrets, err := c.SecretUseCase()
	if err != nil {
		return nil, err
	}
	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, err
	}

	sessions := c.SessionManager()

	handlers := http.Handlers{
		Login:    vaultHTTP.NewLoginHandler(auth, sessions, c.config.NodeName, logger),
		Command:  vaultHTTP.NewCommandHandler(dispatcher, sessions, logger),
		Secrets:  vaultHTTP.NewSecretHandler(secrets, auth, logger),
		Sessions: sessions,
		Auth:     auth,
		Users:    db,
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	if provider != nil {
		return http.NewServer(c.config, logger, handlers, provider.MeterProvider()), nil
	}
	return http.NewServer(c.config, logger, handlers, nil), nil
}
