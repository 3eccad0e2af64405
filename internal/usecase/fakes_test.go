package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/memory"
	"github.com/circlapp/circl-link-agent/internal/repository"
)

// ---- fakes ----

type joinCall struct {
	CircleID domain.CircleID
	UserID   domain.UserID
}

type fakeBackend struct {
	mu sync.Mutex

	resolveInvite func(ctx context.Context, token domain.InviteToken) (domain.CircleID, error)
	joinCircle    func(ctx context.Context, circleID domain.CircleID, userID domain.UserID) (domain.JoinResult, error)
	registerToken func(ctx context.Context, reg domain.PushRegistration) error
	login         func(ctx context.Context, email, password string) (domain.LoginResult, error)
	qrCheckIn     func(ctx context.Context, req domain.CheckInRequest) (domain.CheckInResult, error)

	resolved      []domain.InviteToken
	joins         []joinCall
	registrations []domain.PushRegistration
}

func (b *fakeBackend) ResolveInvite(ctx context.Context, token domain.InviteToken) (domain.CircleID, error) {
	b.mu.Lock()
	b.resolved = append(b.resolved, token)
	b.mu.Unlock()
	return b.resolveInvite(ctx, token)
}

func (b *fakeBackend) JoinCircle(ctx context.Context, circleID domain.CircleID, userID domain.UserID) (domain.JoinResult, error) {
	b.mu.Lock()
	b.joins = append(b.joins, joinCall{CircleID: circleID, UserID: userID})
	b.mu.Unlock()
	if b.joinCircle == nil {
		return domain.JoinResult{Outcome: domain.JoinRequested, CircleID: circleID, UserID: userID, StatusCode: 200}, nil
	}
	return b.joinCircle(ctx, circleID, userID)
}

func (b *fakeBackend) RegisterToken(ctx context.Context, reg domain.PushRegistration) error {
	b.mu.Lock()
	b.registrations = append(b.registrations, reg)
	b.mu.Unlock()
	if b.registerToken == nil {
		return nil
	}
	return b.registerToken(ctx, reg)
}

func (b *fakeBackend) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	return b.login(ctx, email, password)
}

func (b *fakeBackend) QRCheckIn(ctx context.Context, req domain.CheckInRequest) (domain.CheckInResult, error) {
	return b.qrCheckIn(ctx, req)
}

func (b *fakeBackend) joinCalls() []joinCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]joinCall(nil), b.joins...)
}

// ---- helpers ----

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPrefs(t *testing.T, userID domain.UserID) repository.PreferenceRepository {
	t.Helper()
	prefs := memory.NewPreferenceRepository()
	if !userID.IsZero() {
		if err := prefs.Set(context.Background(), repository.KeyUserID, strconv.FormatInt(int64(userID), 10)); err != nil {
			t.Fatalf("seed user id: %v", err)
		}
	}
	return prefs
}

func mustGet(t *testing.T, prefs repository.PreferenceRepository, key string) string {
	t.Helper()
	v, err := prefs.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	return v
}
