package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/usecase"
)

func TestCheckIn_StripsLinkPrefix(t *testing.T) {
	var got domain.CheckInRequest
	backend := &fakeBackend{qrCheckIn: func(_ context.Context, req domain.CheckInRequest) (domain.CheckInResult, error) {
		got = req
		return domain.CheckInResult{Message: "ok", PointsEarned: 10, EventTitle: "Demo Day"}, nil
	}}
	uc := usecase.NewCheckInUsecase(backend, newPrefs(t, 7), discardLogger())

	loc := &domain.Location{Latitude: 1.5, Longitude: 2.5}
	result, err := uc.CheckIn(context.Background(), "circl://event/checkin/QR-99", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.QRCode != "QR-99" || got.UserID != 7 || got.Location != loc {
		t.Errorf("request = %+v, want QR-99 for user 7 with location", got)
	}
	if result.PointsEarned != 10 {
		t.Errorf("points = %d, want 10", result.PointsEarned)
	}
}

func TestCheckIn_NoUser(t *testing.T) {
	uc := usecase.NewCheckInUsecase(&fakeBackend{}, newPrefs(t, 0), discardLogger())

	if _, err := uc.CheckIn(context.Background(), "QR-99", nil); !errors.Is(err, domain.ErrNoUser) {
		t.Fatalf("want ErrNoUser, got %v", err)
	}
}

func TestCheckIn_EmptyCode(t *testing.T) {
	uc := usecase.NewCheckInUsecase(&fakeBackend{}, newPrefs(t, 7), discardLogger())

	if _, err := uc.CheckIn(context.Background(), "circl://event/checkin/", nil); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
