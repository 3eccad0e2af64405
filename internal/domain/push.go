package domain

import "errors"

// DeviceToken is the hex push token handed over by the OS.
type DeviceToken string

type PushRegistration struct {
	Token        DeviceToken
	UserID       UserID
	IsProduction bool
}

var ErrInvalidDeviceToken = errors.New("device token is empty")
