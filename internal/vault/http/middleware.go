package http

import (
	"log/slog"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	authUsecase "github.com/allisson/vaulty/internal/auth/usecase"
	apperrors "github.com/allisson/vaulty/internal/errors"
	"github.com/allisson/vaulty/internal/httputil"
)

// clientAddr resolves the request's source address for security group
// checks. Gin's ClientIP honors trusted proxy configuration.
func clientAddr(c *gin.Context) (netip.Addr, error) {
	addr, err := netip.ParseAddr(c.ClientIP())
	if err != nil {
		return netip.Addr{}, apperrors.Wrap(err, "failed to parse client address")
	}
	return addr.Unmap(), nil
}

// AccessKeyAuthMiddleware authenticates requests carrying an access key
// credential pair in the Authorization header:
//
//	Authorization: VAULTY <access-key-id>:<secret-access-key>
//
// A missing or malformed header, an unknown key ID, a failing signature
// check and a security group miss all produce the same 401 response. The
// authenticated key is stored in the request context for GetAccessKey.
func AccessKeyAuthMiddleware(
	auth authUsecase.AuthUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const schemePrefix = "vaulty "
		if len(authHeader) < len(schemePrefix) ||
			!strings.EqualFold(authHeader[:len(schemePrefix)], schemePrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		keyID, secretKey, ok := strings.Cut(authHeader[len(schemePrefix):], ":")
		if !ok || keyID == "" || secretKey == "" {
			logger.Debug("authentication failed: malformed credential pair")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		source, err := clientAddr(c)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		key, err := auth.AuthenticateAccessKey(c.Request.Context(), keyID, secretKey, source)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithAccessKey(c.Request.Context(), key)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SessionAuthMiddleware authenticates requests carrying a session token from
// a previous login:
//
//	Authorization: Bearer <session-token>
//
// The user behind the session is re-read on every request so role changes,
// security group changes and deletions take effect immediately. The source
// address is re-checked against the user's security groups.
func SessionAuthMiddleware(
	sessions *SessionManager,
	users authUsecase.UserStore,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		token := authHeader[len(bearerPrefix):]
		username, ok := sessions.Resolve(token)
		if !ok {
			logger.Debug("authentication failed: unknown or expired session")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		user, err := users.GetUser(c.Request.Context(), username)
		if err != nil {
			// The user was deleted after login. Drop the session.
			sessions.RevokeUser(username)
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		source, err := clientAddr(c)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		if !user.SecurityGroups.Contains(source) {
			logger.Debug("authentication failed: source not in security groups",
				slog.String("username", username),
				slog.String("source", source.String()))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		ctx := WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
