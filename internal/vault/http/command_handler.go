package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/vaulty/internal/command"
	apperrors "github.com/allisson/vaulty/internal/errors"
	"github.com/allisson/vaulty/internal/httputil"
)

// CommandHandler executes structured commands on behalf of a session-
// authenticated user.
type CommandHandler struct {
	dispatcher *command.Dispatcher
	sessions   *SessionManager
	logger     *slog.Logger
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(
	dispatcher *command.Dispatcher,
	sessions *SessionManager,
	logger *slog.Logger,
) *CommandHandler {
	return &CommandHandler{
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger,
	}
}

// CommandHandler runs one command as the authenticated user.
// POST /v1/command - Requires session authentication.
func (h *CommandHandler) CommandHandler(c *gin.Context) {
	user, ok := GetUser(c.Request.Context())
	if !ok || user == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req command.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	resp, err := h.dispatcher.Execute(c.Request.Context(), user, &req)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Deleting a user invalidates their open sessions right away.
	if resp.Op == string(command.OpUserDelete) {
		h.sessions.RevokeUser(req.Username)
	}

	h.logger.Info("command executed",
		slog.String("op", resp.Op),
		slog.String("username", user.Username),
	)

	c.JSON(http.StatusOK, resp)
}
