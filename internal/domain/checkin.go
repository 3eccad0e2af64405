package domain

import "errors"

var ErrCheckInRejected = errors.New("check-in rejected")

type Location struct {
	Latitude  float64
	Longitude float64
}

type CheckInRequest struct {
	QRCode   string
	UserID   UserID
	Location *Location
}

type CheckInResult struct {
	Message          string
	PointsEarned     int
	EventTitle       string
	RequiresLocation bool
}
