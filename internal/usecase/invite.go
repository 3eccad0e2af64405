package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/circlapp/circl-link-agent/internal/repository"
	"github.com/circlapp/circl-link-agent/internal/session"
)

// inviteBackend is the subset of the Circl API the invite flow calls.
type inviteBackend interface {
	ResolveInvite(ctx context.Context, token domain.InviteToken) (domain.CircleID, error)
	JoinCircle(ctx context.Context, circleID domain.CircleID, userID domain.UserID) (domain.JoinResult, error)
}

type InviteUsecase struct {
	backend  inviteBackend
	prefs    repository.PreferenceRepository
	session  *session.Session
	logger   *slog.Logger
	onJoined func(ctx context.Context, result domain.JoinResult)
}

func NewInviteUsecase(backend inviteBackend, prefs repository.PreferenceRepository, sess *session.Session, logger *slog.Logger) *InviteUsecase {
	return &InviteUsecase{
		backend: backend,
		prefs:   prefs,
		session: sess,
		logger:  logger.With("component", "invite_usecase"),
	}
}

// OnJoined registers a callback run after every requested join.
// It is the hook a UI would use to navigate to the circle.
func (u *InviteUsecase) OnJoined(fn func(ctx context.Context, result domain.JoinResult)) {
	u.onJoined = fn
}

// Resolve exchanges token for a circle id. Every call goes to the backend;
// nothing is cached.
func (u *InviteUsecase) Resolve(ctx context.Context, token domain.InviteToken) (domain.CircleID, error) {
	if !token.Valid() {
		metrics.InviteResolutionsTotal.WithLabelValues("invalid").Inc()
		return 0, domain.ErrInvalidToken
	}

	id, err := u.backend.ResolveInvite(ctx, token)
	if err != nil {
		metrics.InviteResolutionsTotal.WithLabelValues("failed").Inc()
		return 0, err
	}

	metrics.InviteResolutionsTotal.WithLabelValues("resolved").Inc()
	u.logger.InfoContext(ctx, "invite resolved", "circle_id", id)
	return id, nil
}

// Join posts a join for the stored user, or parks circleID in the session
// when nobody is logged in. Repeated calls are not deduplicated.
func (u *InviteUsecase) Join(ctx context.Context, circleID domain.CircleID) (domain.JoinResult, error) {
	var userID domain.UserID
	deferred, replaced, err := u.session.DeferUnlessLoggedIn(circleID, func() (bool, error) {
		id, err := readUserID(ctx, u.prefs)
		userID = id
		return !id.IsZero(), err
	})
	if err != nil {
		metrics.JoinsTotal.WithLabelValues("failed").Inc()
		return domain.JoinResult{}, fmt.Errorf("join circle: %w", err)
	}

	if deferred {
		if replaced != nil && *replaced != circleID {
			u.logger.InfoContext(ctx, "pending join replaced", "circle_id", circleID, "replaced_circle_id", *replaced)
		}
		metrics.JoinsTotal.WithLabelValues("deferred").Inc()
		u.logger.InfoContext(ctx, "no user logged in, join deferred", "circle_id", circleID)
		return domain.JoinResult{Outcome: domain.JoinDeferred, CircleID: circleID}, nil
	}

	result, err := u.backend.JoinCircle(ctx, circleID, userID)
	if err != nil {
		metrics.JoinsTotal.WithLabelValues("failed").Inc()
		return domain.JoinResult{}, err
	}

	metrics.JoinsTotal.WithLabelValues("requested").Inc()
	if result.StatusCode >= 400 {
		u.logger.WarnContext(ctx, "join request answered with error status",
			"circle_id", circleID, "user_id", userID, "status", result.StatusCode, "response", result.Body)
	} else {
		u.logger.InfoContext(ctx, "join requested",
			"circle_id", circleID, "user_id", userID, "status", result.StatusCode, "response", result.Body)
	}

	if u.onJoined != nil {
		u.onJoined(ctx, result)
	}
	return result, nil
}

// HandleInvite resolves token and joins the circle it names.
func (u *InviteUsecase) HandleInvite(ctx context.Context, token domain.InviteToken) (domain.JoinResult, error) {
	circleID, err := u.Resolve(ctx, token)
	if err != nil {
		return domain.JoinResult{}, fmt.Errorf("handle invite: %w", err)
	}
	return u.Join(ctx, circleID)
}
