package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/circlapp/circl-link-agent/internal/repository"
)

type pushBackend interface {
	RegisterToken(ctx context.Context, reg domain.PushRegistration) error
}

type PushUsecase struct {
	backend      pushBackend
	prefs        repository.PreferenceRepository
	isProduction bool
	logger       *slog.Logger
}

func NewPushUsecase(backend pushBackend, prefs repository.PreferenceRepository, isProduction bool, logger *slog.Logger) *PushUsecase {
	return &PushUsecase{
		backend:      backend,
		prefs:        prefs,
		isProduction: isProduction,
		logger:       logger.With("component", "push_usecase"),
	}
}

// RegisterDeviceToken stores token under pending_push_token and, when a
// user is logged in, sends it to the backend. With no user it returns
// (false, nil): the token waits for FlushPending or Sweep.
func (u *PushUsecase) RegisterDeviceToken(ctx context.Context, token domain.DeviceToken) (bool, error) {
	if token == "" {
		return false, domain.ErrInvalidDeviceToken
	}

	if err := u.prefs.Set(ctx, repository.KeyPendingPushToken, string(token)); err != nil {
		return false, fmt.Errorf("store push token: %w", err)
	}

	userID, err := readUserID(ctx, u.prefs)
	if err != nil {
		return false, fmt.Errorf("register push token: %w", err)
	}
	if userID.IsZero() {
		metrics.PushRegistrationsTotal.WithLabelValues("skipped").Inc()
		u.logger.InfoContext(ctx, "no user logged in, push token kept locally")
		return false, nil
	}

	if err := u.register(ctx, token, userID); err != nil {
		return false, err
	}
	return true, nil
}

// FlushPending sends the stored token after a login and drops the key.
func (u *PushUsecase) FlushPending(ctx context.Context) (bool, error) {
	token, userID, err := u.pending(ctx)
	if err != nil || token == "" || userID.IsZero() {
		return false, err
	}

	if err := u.register(ctx, token, userID); err != nil {
		return false, err
	}
	if err := u.prefs.Delete(ctx, repository.KeyPendingPushToken); err != nil {
		return true, fmt.Errorf("clear pending push token: %w", err)
	}
	return true, nil
}

// Sweep registers the stored token if it was never successfully sent.
func (u *PushUsecase) Sweep(ctx context.Context) (bool, error) {
	token, userID, err := u.pending(ctx)
	if err != nil || token == "" || userID.IsZero() {
		return false, err
	}

	sent, err := readOptional(ctx, u.prefs, repository.KeyPushTokenRegistered)
	if err != nil {
		return false, err
	}
	if sent == string(token) {
		return false, nil
	}

	if err := u.register(ctx, token, userID); err != nil {
		return false, err
	}
	return true, nil
}

func (u *PushUsecase) pending(ctx context.Context) (domain.DeviceToken, domain.UserID, error) {
	token, err := readOptional(ctx, u.prefs, repository.KeyPendingPushToken)
	if err != nil {
		return "", 0, err
	}
	userID, err := readUserID(ctx, u.prefs)
	if err != nil {
		return "", 0, err
	}
	return domain.DeviceToken(token), userID, nil
}

func (u *PushUsecase) register(ctx context.Context, token domain.DeviceToken, userID domain.UserID) error {
	err := u.backend.RegisterToken(ctx, domain.PushRegistration{
		Token:        token,
		UserID:       userID,
		IsProduction: u.isProduction,
	})
	if err != nil {
		metrics.PushRegistrationsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.PushRegistrationsTotal.WithLabelValues("registered").Inc()

	if err := u.prefs.Set(ctx, repository.KeyPushTokenRegistered, string(token)); err != nil {
		u.logger.WarnContext(ctx, "record registered push token", "error", err)
	}
	u.logger.InfoContext(ctx, "push token registered", "user_id", userID)
	return nil
}
