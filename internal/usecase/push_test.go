package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/repository"
	"github.com/circlapp/circl-link-agent/internal/usecase"
)

// ---- RegisterDeviceToken ----

func TestRegisterDeviceToken_NoUser_PersistsWithoutCall(t *testing.T) {
	backend := &fakeBackend{}
	prefs := newPrefs(t, 0)
	uc := usecase.NewPushUsecase(backend, prefs, true, discardLogger())

	registered, err := uc.RegisterDeviceToken(context.Background(), "a1b2c3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if registered {
		t.Error("registered = true, want false")
	}
	if got := mustGet(t, prefs, repository.KeyPendingPushToken); got != "a1b2c3" {
		t.Errorf("pending_push_token = %q, want a1b2c3", got)
	}
	if len(backend.registrations) != 0 {
		t.Errorf("registration calls = %d, want 0", len(backend.registrations))
	}
}

func TestRegisterDeviceToken_UserPresent_Registers(t *testing.T) {
	backend := &fakeBackend{}
	prefs := newPrefs(t, 7)
	uc := usecase.NewPushUsecase(backend, prefs, true, discardLogger())

	registered, err := uc.RegisterDeviceToken(context.Background(), "a1b2c3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !registered {
		t.Error("registered = false, want true")
	}
	want := domain.PushRegistration{Token: "a1b2c3", UserID: 7, IsProduction: true}
	if len(backend.registrations) != 1 || backend.registrations[0] != want {
		t.Fatalf("registrations = %+v, want [%+v]", backend.registrations, want)
	}
	// The token is always kept locally, even after a successful send.
	if got := mustGet(t, prefs, repository.KeyPendingPushToken); got != "a1b2c3" {
		t.Errorf("pending_push_token = %q, want a1b2c3", got)
	}
	if got := mustGet(t, prefs, repository.KeyPushTokenRegistered); got != "a1b2c3" {
		t.Errorf("push_token_registered = %q, want a1b2c3", got)
	}
}

func TestRegisterDeviceToken_BackendError_Propagates(t *testing.T) {
	sendErr := errors.New("timeout")
	backend := &fakeBackend{registerToken: func(context.Context, domain.PushRegistration) error { return sendErr }}
	prefs := newPrefs(t, 7)
	uc := usecase.NewPushUsecase(backend, prefs, false, discardLogger())

	if _, err := uc.RegisterDeviceToken(context.Background(), "a1b2c3"); !errors.Is(err, sendErr) {
		t.Fatalf("want sendErr, got %v", err)
	}
	if _, err := prefs.Get(context.Background(), repository.KeyPushTokenRegistered); !errors.Is(err, domain.ErrPreferenceNotFound) {
		t.Errorf("push_token_registered written after failure")
	}
}

func TestRegisterDeviceToken_EmptyToken(t *testing.T) {
	uc := usecase.NewPushUsecase(&fakeBackend{}, newPrefs(t, 7), true, discardLogger())

	if _, err := uc.RegisterDeviceToken(context.Background(), ""); !errors.Is(err, domain.ErrInvalidDeviceToken) {
		t.Fatalf("want ErrInvalidDeviceToken, got %v", err)
	}
}

// ---- FlushPending ----

func TestFlushPending_SendsAndClears(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	prefs := newPrefs(t, 0)
	uc := usecase.NewPushUsecase(backend, prefs, true, discardLogger())

	if _, err := uc.RegisterDeviceToken(ctx, "a1b2c3"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := prefs.Set(ctx, repository.KeyUserID, "7"); err != nil {
		t.Fatalf("set user: %v", err)
	}

	sent, err := uc.FlushPending(ctx)
	if err != nil || !sent {
		t.Fatalf("FlushPending = (%v, %v), want (true, nil)", sent, err)
	}
	if len(backend.registrations) != 1 || backend.registrations[0].UserID != 7 {
		t.Errorf("registrations = %+v, want one for user 7", backend.registrations)
	}
	if _, err := prefs.Get(ctx, repository.KeyPendingPushToken); !errors.Is(err, domain.ErrPreferenceNotFound) {
		t.Error("pending_push_token not cleared")
	}
}

func TestFlushPending_NothingStored(t *testing.T) {
	backend := &fakeBackend{}
	uc := usecase.NewPushUsecase(backend, newPrefs(t, 7), true, discardLogger())

	sent, err := uc.FlushPending(context.Background())
	if err != nil || sent {
		t.Fatalf("FlushPending = (%v, %v), want (false, nil)", sent, err)
	}
	if len(backend.registrations) != 0 {
		t.Errorf("registration calls = %d, want 0", len(backend.registrations))
	}
}

// ---- Sweep ----

func TestSweep_SkipsAlreadyRegisteredToken(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	uc := usecase.NewPushUsecase(backend, newPrefs(t, 7), true, discardLogger())

	if _, err := uc.RegisterDeviceToken(ctx, "a1b2c3"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sent, err := uc.Sweep(ctx)
	if err != nil || sent {
		t.Fatalf("Sweep = (%v, %v), want (false, nil)", sent, err)
	}
	if len(backend.registrations) != 1 {
		t.Errorf("registration calls = %d, want 1", len(backend.registrations))
	}
}

func TestSweep_RetriesAfterEarlierFailure(t *testing.T) {
	ctx := context.Background()
	fail := true
	backend := &fakeBackend{registerToken: func(context.Context, domain.PushRegistration) error {
		if fail {
			return errors.New("502")
		}
		return nil
	}}
	uc := usecase.NewPushUsecase(backend, newPrefs(t, 7), true, discardLogger())

	if _, err := uc.RegisterDeviceToken(ctx, "a1b2c3"); err == nil {
		t.Fatal("expected first registration to fail")
	}
	fail = false

	sent, err := uc.Sweep(ctx)
	if err != nil || !sent {
		t.Fatalf("Sweep = (%v, %v), want (true, nil)", sent, err)
	}
	if len(backend.registrations) != 2 {
		t.Errorf("registration calls = %d, want 2", len(backend.registrations))
	}
}
