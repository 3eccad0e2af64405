package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/gin-gonic/gin"
)

type checkInUsecaser interface {
	CheckIn(ctx context.Context, code string, loc *domain.Location) (domain.CheckInResult, error)
}

type CheckInHandler struct {
	checkIns checkInUsecaser
	logger   *slog.Logger
}

func NewCheckInHandler(checkIns checkInUsecaser, logger *slog.Logger) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns, logger: logger.With("component", "checkin_handler")}
}

// A location is only sent when both coordinates are present.
type checkInRequest struct {
	QRCode    string   `json:"qr_code"   binding:"required"`
	Latitude  *float64 `json:"latitude"  binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

type checkInResponse struct {
	Message          string `json:"message,omitempty"`
	PointsEarned     int    `json:"points_earned"`
	EventTitle       string `json:"event_title,omitempty"`
	RequiresLocation bool   `json:"requires_location"`
	Error            string `json:"error,omitempty"`
}

// POST /checkins
func (h *CheckInHandler) Create(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var loc *domain.Location
	if req.Latitude != nil && req.Longitude != nil {
		loc = &domain.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	result, err := h.checkIns.CheckIn(c.Request.Context(), req.QRCode, loc)
	resp := checkInResponse{
		Message:          result.Message,
		PointsEarned:     result.PointsEarned,
		EventTitle:       result.EventTitle,
		RequiresLocation: result.RequiresLocation,
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, domain.ErrCheckInRejected):
		resp.Error = err.Error()
		c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.Is(err, domain.ErrNoUser):
		c.JSON(http.StatusConflict, gin.H{"error": errNotLoggedIn})
	case errors.Is(err, domain.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCode})
	default:
		h.logger.ErrorContext(c.Request.Context(), "check in", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": errBackendUnavailable})
	}
}
