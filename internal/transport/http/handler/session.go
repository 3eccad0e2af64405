package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/gin-gonic/gin"
)

type sessionUsecaser interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	Logout(ctx context.Context) error
	State(ctx context.Context) (domain.SessionState, error)
}

type SessionHandler struct {
	sessions sessionUsecaser
	logger   *slog.Logger
}

func NewSessionHandler(sessions sessionUsecaser, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger.With("component", "session_handler")}
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	UserID   domain.UserID `json:"user_id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name,omitempty"`
}

type sessionStateResponse struct {
	UserID           domain.UserID    `json:"user_id"`
	PendingCircleID  *domain.CircleID `json:"pending_circle_id"`
	PendingPushToken string           `json:"pending_push_token,omitempty"`
}

// POST /session/login
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": errBackendUnavailable})
		return
	}

	c.JSON(http.StatusOK, loginResponse{UserID: result.UserID, Email: result.Email, FullName: result.FullName})
}

// POST /session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "logout", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /session
func (h *SessionHandler) State(c *gin.Context) {
	state, err := h.sessions.State(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "session state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, sessionStateResponse{
		UserID:           state.UserID,
		PendingCircleID:  state.PendingCircleID,
		PendingPushToken: string(state.PendingPushToken),
	})
}
