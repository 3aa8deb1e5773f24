// Package http provides the API server assembly: routing, logging,
// request ids, CORS, rate limiting and graceful shutdown.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	otelmetric "go.opentelemetry.io/otel/metric"

	authUsecase "github.com/allisson/vaulty/internal/auth/usecase"
	"github.com/allisson/vaulty/internal/config"
	"github.com/allisson/vaulty/internal/metrics"
	vaultHTTP "github.com/allisson/vaulty/internal/vault/http"
)

// Handlers groups the request handlers and the authentication collaborators
// the router needs.
type Handlers struct {
	Login    *vaultHTTP.LoginHandler
	Command  *vaultHTTP.CommandHandler
	Secrets  *vaultHTTP.SecretHandler
	Sessions *vaultHTTP.SessionManager
	Auth     authUsecase.AuthUseCase
	Users    authUsecase.UserStore
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	handlers Handlers,
	meterProvider otelmetric.MeterProvider,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", healthHandler)

	v1 := router.Group("/v1")

	if cfg.RateLimitLoginEnabled {
		v1.POST("/login",
			LoginRateLimitMiddleware(cfg.RateLimitLoginRequestsPerSec, cfg.RateLimitLoginBurst, logger),
			handlers.Login.LoginHandler,
		)
	} else {
		v1.POST("/login", handlers.Login.LoginHandler)
	}

	v1.POST("/command",
		vaultHTTP.SessionAuthMiddleware(handlers.Sessions, handlers.Users, logger),
		handlers.Command.CommandHandler,
	)

	vaults := v1.Group("/vaults", vaultHTTP.AccessKeyAuthMiddleware(handlers.Auth, logger))
	vaults.GET("/:vault", handlers.Secrets.ListHandler)
	vaults.GET("/:vault/:secret", handlers.Secrets.GetHandler)
	vaults.POST("/:vault/:secret", handlers.Secrets.PutHandler)
	vaults.PUT("/:vault/:secret", handlers.Secrets.PutHandler)
	vaults.DELETE("/:vault/:secret", handlers.Secrets.DeleteHandler)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
