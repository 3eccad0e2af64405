package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPreferenceNotFound = errors.New("preference not found")
)

type LoginResult struct {
	UserID    UserID
	AuthToken string
	Email     string
	FullName  string
}

// SessionState is a snapshot of the locally held session.
type SessionState struct {
	UserID           UserID
	PendingCircleID  *CircleID
	PendingPushToken DeviceToken
}
