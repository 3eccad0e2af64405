package repository

import "context"

// Keys written by the agent. They mirror what the mobile client keeps in
// its local key-value defaults.
const (
	KeyUserID              = "user_id"
	KeyAuthToken           = "auth_token"
	KeyUserEmail           = "user_email"
	KeyUserFullName        = "user_fullname"
	KeyPendingPushToken    = "pending_push_token"
	KeyPushTokenRegistered = "push_token_registered"
)

// PreferenceRepository is the device-local key-value store.
// Get returns domain.ErrPreferenceNotFound for a missing key.
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
