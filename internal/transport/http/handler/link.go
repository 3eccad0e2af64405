package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/gin-gonic/gin"
)

// linkReceiver is the subset of deeplink.Receiver the handler needs.
type linkReceiver interface {
	Open(ctx context.Context, rawURL string) (domain.Link, error)
	Continue(ctx context.Context, rawURL string, coldStart bool) (domain.Link, error)
	Params(ctx context.Context, params map[string]any) (domain.Link, error)
}

type LinkHandler struct {
	receiver linkReceiver
	logger   *slog.Logger
}

func NewLinkHandler(receiver linkReceiver, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{receiver: receiver, logger: logger.With("component", "link_handler")}
}

type openLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

type continueLinkRequest struct {
	WebpageURL string `json:"webpage_url" binding:"required"`
	ColdStart  bool   `json:"cold_start"`
}

type linkParamsRequest struct {
	Params map[string]any `json:"params" binding:"required"`
}

type linkAcceptedResponse struct {
	Kind     domain.LinkKind   `json:"kind"`
	Source   domain.LinkSource `json:"source"`
	Token    string            `json:"token,omitempty"`
	CircleID domain.CircleID   `json:"circle_id,omitempty"`
}

// POST /links/open
// 202 once the link is dispatched; the resolve and join happen afterwards.
func (h *LinkHandler) Open(c *gin.Context) {
	var req openLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := h.receiver.Open(c.Request.Context(), req.URL)
	h.respond(c, link, err)
}

// POST /links/continue
func (h *LinkHandler) Continue(c *gin.Context) {
	var req continueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := h.receiver.Continue(c.Request.Context(), req.WebpageURL, req.ColdStart)
	h.respond(c, link, err)
}

// POST /links/params
func (h *LinkHandler) Params(c *gin.Context) {
	var req linkParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := h.receiver.Params(c.Request.Context(), req.Params)
	h.respond(c, link, err)
}

func (h *LinkHandler) respond(c *gin.Context, link domain.Link, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrLinkIgnored) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errLinkIgnored})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "receive link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusAccepted, linkAcceptedResponse{
		Kind:     link.Kind,
		Source:   link.Source,
		Token:    link.Token,
		CircleID: link.CircleID,
	})
}
