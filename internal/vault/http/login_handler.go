package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authUsecase "github.com/allisson/vaulty/internal/auth/usecase"
	apperrors "github.com/allisson/vaulty/internal/errors"
	"github.com/allisson/vaulty/internal/httputil"
	appValidation "github.com/allisson/vaulty/internal/validation"
	"github.com/allisson/vaulty/internal/vault/http/dto"
)

// LoginHandler handles user logins and issues session tokens for the
// command endpoint.
type LoginHandler struct {
	auth     authUsecase.AuthUseCase
	sessions *SessionManager
	nodeName string
	logger   *slog.Logger
}

// NewLoginHandler creates a new login handler.
func NewLoginHandler(
	auth authUsecase.AuthUseCase,
	sessions *SessionManager,
	nodeName string,
	logger *slog.Logger,
) *LoginHandler {
	return &LoginHandler{
		auth:     auth,
		sessions: sessions,
		nodeName: nodeName,
		logger:   logger,
	}
}

// LoginHandler authenticates a user and returns a session token.
// POST /v1/login
func (h *LoginHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	source, err := clientAddr(c)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.auth.AuthenticateUser(c.Request.Context(), req.Username, req.Password, source)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	token, expiresAt := h.sessions.Create(user.Username)

	h.logger.Info("user logged in",
		slog.String("username", user.Username),
		slog.String("source", source.String()),
	)

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		Node:      h.nodeName,
		ExpiresAt: expiresAt,
	})
}
