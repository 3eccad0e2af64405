package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/gin-gonic/gin"
)

type pushUsecaser interface {
	RegisterDeviceToken(ctx context.Context, token domain.DeviceToken) (bool, error)
}

type PushHandler struct {
	push   pushUsecaser
	logger *slog.Logger
}

func NewPushHandler(push pushUsecaser, logger *slog.Logger) *PushHandler {
	return &PushHandler{push: push, logger: logger.With("component", "push_handler")}
}

type registerTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type registerTokenResponse struct {
	Registered bool `json:"registered"`
}

// POST /push/token
// The token is kept locally even when registration fails or is skipped,
// so a backend failure still answers 200 with registered=false.
func (h *PushHandler) RegisterToken(c *gin.Context) {
	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	registered, err := h.push.RegisterDeviceToken(c.Request.Context(), domain.DeviceToken(req.Token))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDeviceToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WarnContext(c.Request.Context(), "register device token", "error", err)
	}
	c.JSON(http.StatusOK, registerTokenResponse{Registered: registered})
}
