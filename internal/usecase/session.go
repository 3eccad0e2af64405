package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/repository"
	"github.com/circlapp/circl-link-agent/internal/session"
)

type loginBackend interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
}

type pendingJoiner interface {
	Join(ctx context.Context, circleID domain.CircleID) (domain.JoinResult, error)
}

type pendingFlusher interface {
	FlushPending(ctx context.Context) (bool, error)
}

type SessionUsecase struct {
	backend loginBackend
	prefs   repository.PreferenceRepository
	session *session.Session
	joiner  pendingJoiner
	push    pendingFlusher
	logger  *slog.Logger
}

func NewSessionUsecase(
	backend loginBackend,
	prefs repository.PreferenceRepository,
	sess *session.Session,
	joiner pendingJoiner,
	push pendingFlusher,
	logger *slog.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		backend: backend,
		prefs:   prefs,
		session: sess,
		joiner:  joiner,
		push:    push,
		logger:  logger.With("component", "session_usecase"),
	}
}

// Login authenticates, stores the session keys and then runs the
// after-login steps. The user id is written and the pending circle taken
// under the session lock, so a deferred join cannot slip in between.
// Failures after the keys are stored are logged; they do not fail the login.
func (u *SessionUsecase) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	result, err := u.backend.Login(ctx, email, password)
	if err != nil {
		return domain.LoginResult{}, err
	}

	pending, hasPending, err := u.session.CompleteLogin(func() error {
		return u.store(ctx, result, email)
	})
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("store session: %w", err)
	}

	u.logger.InfoContext(ctx, "user logged in", "user_id", result.UserID)
	u.afterLogin(ctx, pending, hasPending)
	return result, nil
}

// store writes the session keys, user_id last. With a token present the
// email typed at login replaces the one in the response.
func (u *SessionUsecase) store(ctx context.Context, result domain.LoginResult, typedEmail string) error {
	type kv struct{ key, value string }
	var values []kv
	if result.AuthToken != "" {
		values = append(values, kv{repository.KeyAuthToken, result.AuthToken})
	}
	switch {
	case result.AuthToken != "" && typedEmail != "":
		values = append(values, kv{repository.KeyUserEmail, typedEmail})
	case result.Email != "":
		values = append(values, kv{repository.KeyUserEmail, result.Email})
	}
	if result.FullName != "" {
		values = append(values, kv{repository.KeyUserFullName, result.FullName})
	}
	values = append(values, kv{repository.KeyUserID, strconv.FormatInt(int64(result.UserID), 10)})

	for _, v := range values {
		if err := u.prefs.Set(ctx, v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

// afterLogin sends a push token captured before login, then joins the
// circle taken from the pending slot, if any.
func (u *SessionUsecase) afterLogin(ctx context.Context, circleID domain.CircleID, hasPending bool) {
	if sent, err := u.push.FlushPending(ctx); err != nil {
		u.logger.ErrorContext(ctx, "flush pending push token", "error", err)
	} else if sent {
		u.logger.InfoContext(ctx, "pending push token sent after login")
	}

	if !hasPending {
		return
	}
	u.logger.InfoContext(ctx, "processing pending join after login", "circle_id", circleID)
	if _, err := u.joiner.Join(ctx, circleID); err != nil {
		u.logger.ErrorContext(ctx, "pending join", "circle_id", circleID, "error", err)
	}
}

// Logout forgets the user. The pending circle and push token survive so a
// later login can still pick them up.
func (u *SessionUsecase) Logout(ctx context.Context) error {
	for _, k := range []string{repository.KeyUserID, repository.KeyAuthToken} {
		if err := u.prefs.Delete(ctx, k); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	return nil
}

func (u *SessionUsecase) State(ctx context.Context) (domain.SessionState, error) {
	userID, err := readUserID(ctx, u.prefs)
	if err != nil {
		return domain.SessionState{}, err
	}
	token, err := readOptional(ctx, u.prefs, repository.KeyPendingPushToken)
	if err != nil {
		return domain.SessionState{}, err
	}
	return domain.SessionState{
		UserID:           userID,
		PendingCircleID:  u.session.Pending(),
		PendingPushToken: domain.DeviceToken(token),
	}, nil
}
