package domain

import "errors"

var (
	ErrInvalidToken    = errors.New("invite token is empty")
	ErrLinkIgnored     = errors.New("link is not handled")
	ErrCircleIDMissing = errors.New("response has no integer circle_id")
	ErrBackendStatus   = errors.New("backend returned non-2xx status")
	ErrNoUser          = errors.New("no authenticated user")
)

// InviteToken is the opaque invite string taken from a link path.
type InviteToken string

func (t InviteToken) Valid() bool {
	return t != ""
}

// CircleID is the backend's identifier for a circle.
type CircleID int64

// UserID is the authenticated user's id. Zero means logged out.
type UserID int64

func (u UserID) IsZero() bool {
	return u == 0
}

type JoinOutcome string

const (
	// JoinRequested means the join POST completed at the transport level.
	// The body is not inspected for an application-level status.
	JoinRequested JoinOutcome = "requested"
	// JoinDeferred means no user was logged in and the circle was parked
	// in the pending slot for the post-login hook.
	JoinDeferred JoinOutcome = "deferred"
)

type JoinResult struct {
	Outcome    JoinOutcome
	CircleID   CircleID
	UserID     UserID
	StatusCode int
	Body       string
}
