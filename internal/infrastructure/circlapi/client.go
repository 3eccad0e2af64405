// Package circlapi is the HTTP client for the Circl REST backend.
package circlapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/go-resty/resty/v2"
)

const (
	pathResolveInvite = "/circles/resolve_invite/{token}/"
	pathJoinCircle    = "/circles/join_circle/"
	pathRegisterToken = "/notifications/register-token/"
	pathLogin         = "/login/"
	pathQRCheckIn     = "/circles/qr_checkin/"
)

type Client struct {
	http *resty.Client
}

// New builds a client rooted at baseURL, e.g. https://circlapp.online/api.
// No retries are configured: every call is sent at most once.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Client{http: c}
}

// Ping reports whether the backend answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.http.R().SetContext(ctx).Head("/")
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	return nil
}

// ResolveInvite exchanges an invite token for the circle it points at.
func (c *Client) ResolveInvite(ctx context.Context, token domain.InviteToken) (domain.CircleID, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("token", string(token)).
		Get(pathResolveInvite)
	observe("resolve_invite", resp, err)
	if err != nil {
		return 0, fmt.Errorf("resolve invite: %w", err)
	}
	if !resp.IsSuccess() {
		return 0, fmt.Errorf("resolve invite: %w: %d", domain.ErrBackendStatus, resp.StatusCode())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return 0, fmt.Errorf("resolve invite: %w: %v", domain.ErrCircleIDMissing, err)
	}
	raw, ok := body["circle_id"]
	if !ok {
		return 0, fmt.Errorf("resolve invite: %w", domain.ErrCircleIDMissing)
	}
	id, ok := integral(raw)
	if !ok {
		return 0, fmt.Errorf("resolve invite: %w: %s", domain.ErrCircleIDMissing, raw)
	}
	return domain.CircleID(id), nil
}

// integral accepts a JSON number with no fractional part, so 42 and 42.0
// both read as 42. Strings, null and fractions are rejected.
func integral(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return 0, false
	}
	if id, err := n.Int64(); err == nil {
		return id, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

type joinCircleRequest struct {
	CircleID  domain.CircleID `json:"circle_id"`
	UserID    domain.UserID   `json:"user_id"`
	ViaInvite bool            `json:"via_invite"`
}

// JoinCircle posts a join for userID. A nil error means the exchange
// completed; it says nothing about whether the backend accepted the join.
// The status and raw body are returned for the caller to log.
func (c *Client) JoinCircle(ctx context.Context, circleID domain.CircleID, userID domain.UserID) (domain.JoinResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(joinCircleRequest{CircleID: circleID, UserID: userID, ViaInvite: true}).
		Post(pathJoinCircle)
	observe("join_circle", resp, err)
	if err != nil {
		return domain.JoinResult{}, fmt.Errorf("join circle: %w", err)
	}
	return domain.JoinResult{
		Outcome:    domain.JoinRequested,
		CircleID:   circleID,
		UserID:     userID,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}, nil
}

type registerTokenRequest struct {
	Token        domain.DeviceToken `json:"token"`
	UserID       domain.UserID      `json:"user_id"`
	IsProduction bool               `json:"is_production"`
}

func (c *Client) RegisterToken(ctx context.Context, reg domain.PushRegistration) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(registerTokenRequest{Token: reg.Token, UserID: reg.UserID, IsProduction: reg.IsProduction}).
		Post(pathRegisterToken)
	observe("register_token", resp, err)
	if err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("register token: %w: %d", domain.ErrBackendStatus, resp.StatusCode())
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID    *int64 `json:"user_id"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Login authenticates with email and password. Anything but a 200 carrying
// an integer user_id is treated as bad credentials.
func (c *Client) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		Post(pathLogin)
	observe("login", resp, err)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if resp.StatusCode() != 200 {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	var body loginResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.UserID == nil {
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	result := domain.LoginResult{
		UserID:    domain.UserID(*body.UserID),
		AuthToken: body.Token,
		Email:     body.Email,
	}
	if body.FirstName != "" && body.LastName != "" {
		result.FullName = body.FirstName + " " + body.LastName
	}
	return result, nil
}

type checkInRequest struct {
	QRCode    string        `json:"qr_code"`
	UserID    domain.UserID `json:"user_id"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
}

type checkInResponse struct {
	Message          string `json:"message"`
	PointsEarned     int    `json:"points_earned"`
	EventTitle       string `json:"event_title"`
	Error            string `json:"error"`
	RequiresLocation bool   `json:"requires_location"`
}

// QRCheckIn checks the user in to the event behind a scanned QR code.
// A response carrying an "error" field is returned as ErrCheckInRejected.
func (c *Client) QRCheckIn(ctx context.Context, req domain.CheckInRequest) (domain.CheckInResult, error) {
	body := checkInRequest{QRCode: req.QRCode, UserID: req.UserID}
	if req.Location != nil {
		body.Latitude = &req.Location.Latitude
		body.Longitude = &req.Location.Longitude
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(pathQRCheckIn)
	observe("qr_checkin", resp, err)
	if err != nil {
		return domain.CheckInResult{}, fmt.Errorf("qr check-in: %w", err)
	}

	var parsed checkInResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return domain.CheckInResult{}, fmt.Errorf("qr check-in: decode response (status %d): %w", resp.StatusCode(), err)
	}
	result := domain.CheckInResult{
		Message:          parsed.Message,
		PointsEarned:     parsed.PointsEarned,
		EventTitle:       parsed.EventTitle,
		RequiresLocation: parsed.RequiresLocation,
	}
	if parsed.Error != "" {
		return result, fmt.Errorf("%w: %s", domain.ErrCheckInRejected, parsed.Error)
	}
	if !resp.IsSuccess() {
		return result, fmt.Errorf("qr check-in: %w: %d", domain.ErrBackendStatus, resp.StatusCode())
	}
	return result, nil
}

func observe(endpoint string, resp *resty.Response, err error) {
	status := "error"
	var seconds float64
	if resp != nil {
		seconds = resp.Time().Seconds()
		if err == nil {
			status = strconv.Itoa(resp.StatusCode())
		}
	}
	metrics.BackendRequestDuration.WithLabelValues(endpoint, status).Observe(seconds)
}
