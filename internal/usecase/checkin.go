package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/repository"
)

type checkInBackend interface {
	QRCheckIn(ctx context.Context, req domain.CheckInRequest) (domain.CheckInResult, error)
}

type CheckInUsecase struct {
	backend checkInBackend
	prefs   repository.PreferenceRepository
	logger  *slog.Logger
}

func NewCheckInUsecase(backend checkInBackend, prefs repository.PreferenceRepository, logger *slog.Logger) *CheckInUsecase {
	return &CheckInUsecase{
		backend: backend,
		prefs:   prefs,
		logger:  logger.With("component", "checkin_usecase"),
	}
}

const checkInLinkPrefix = "circl://event/checkin/"

// CheckIn accepts either a bare QR code or the circl:// check-in link that
// encodes it.
func (u *CheckInUsecase) CheckIn(ctx context.Context, code string, loc *domain.Location) (domain.CheckInResult, error) {
	code = strings.TrimPrefix(code, checkInLinkPrefix)
	if code == "" {
		return domain.CheckInResult{}, domain.ErrInvalidToken
	}

	userID, err := readUserID(ctx, u.prefs)
	if err != nil {
		return domain.CheckInResult{}, err
	}
	if userID.IsZero() {
		return domain.CheckInResult{}, domain.ErrNoUser
	}

	result, err := u.backend.QRCheckIn(ctx, domain.CheckInRequest{QRCode: code, UserID: userID, Location: loc})
	if err != nil {
		return result, err
	}
	u.logger.InfoContext(ctx, "checked in", "event", result.EventTitle, "points", result.PointsEarned)
	return result, nil
}
