package leadwatcher

import (
	"context"
	"time"
)

// AccountStatus is the connection state of a LinkedIn account.
type AccountStatus string

const (
	AccountPending      AccountStatus = "pending"
	AccountConnecting   AccountStatus = "connecting"
	AccountConnected    AccountStatus = "connected"
	AccountDisconnected AccountStatus = "disconnected"
	AccountError        AccountStatus = "error"
)

// Warmup tracks the gradual rate-limit ramp of a new account.
type Warmup struct {
	Active      bool       `json:"active"`
	Day         int        `json:"day"`
	TotalDays   int        `json:"total_days"`
	DailyLimit  int        `json:"daily_limit"`
	TargetLimit int        `json:"target_limit"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// LinkedInAccount is an outreach account used by the automation engine.
type LinkedInAccount struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name,omitempty"`
	Status       AccountStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	HasTOTP      bool          `json:"has_totp"`
	DailyLimit   int           `json:"daily_limit,omitempty"`
	Warmup       *Warmup       `json:"warmup,omitempty"`
	ConnectedAt  *time.Time    `json:"connected_at,omitempty"`
	CreatedAt    *time.Time    `json:"created_at,omitempty"`
}

// CreateAccountRequest registers an account. Password and TOTP secret are
// optional.
type CreateAccountRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Password   string `json:"password,omitempty"`
	TOTPSecret string `json:"totp_secret,omitempty"`
}

// UpdateAccountRequest edits account settings.
type UpdateAccountRequest struct {
	Name       string `json:"name,omitempty"`
	Password   string `json:"password,omitempty"`
	DailyLimit int    `json:"daily_limit,omitempty"`
}

// ConnectResult is returned when a connection attempt is started.
type ConnectResult struct {
	Status  AccountStatus `json:"status"`
	Message string        `json:"message,omitempty"`
}

// TOTPCode is the current one-time code and how long it stays valid.
type TOTPCode struct {
	Code            string `json:"code"`
	ValidForSeconds int    `json:"valid_for_seconds"`
}

// ManualSession is a live remote-browser session for manual login.
type ManualSession struct {
	SessionID string     `json:"session_id"`
	LiveURL   string     `json:"live_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ManualConfirmation is the server's verdict on a manual login.
type ManualConfirmation struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RateLimits are an account's daily action counters.
type RateLimits struct {
	ConnectionsSent  int        `json:"connections_sent"`
	ConnectionsLimit int        `json:"connections_limit"`
	MessagesSent     int        `json:"messages_sent"`
	MessagesLimit    int        `json:"messages_limit"`
	ProfileViews     int        `json:"profile_views"`
	ProfileViewLimit int        `json:"profile_view_limit"`
	ResetsAt         *time.Time `json:"resets_at,omitempty"`
}

func accountPath(id string) string { return "/linkedin-accounts/" + escape(id) }

// ListAccounts returns every LinkedIn account.
func (c *Client) ListAccounts(ctx context.Context) ([]LinkedInAccount, error) {
	out, err := getData[[]LinkedInAccount](ctx, c, "list accounts", "/linkedin-accounts", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// GetAccount returns one account.
func (c *Client) GetAccount(ctx context.Context, id string) (*LinkedInAccount, error) {
	return getData[LinkedInAccount](ctx, c, "get account "+id, accountPath(id), nil)
}

// CreateAccount registers an account; the server leaves it pending.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (*LinkedInAccount, error) {
	return postData[LinkedInAccount](ctx, c, "create account", "/linkedin-accounts", req)
}

// UpdateAccount edits an account.
func (c *Client) UpdateAccount(ctx context.Context, id string, req UpdateAccountRequest) (*LinkedInAccount, error) {
	return putData[LinkedInAccount](ctx, c, "update account "+id, accountPath(id), req)
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.delete(ctx, "delete account "+id, accountPath(id))
}

// ConnectAccount starts an automated login.
func (c *Client) ConnectAccount(ctx context.Context, id string) (*ConnectResult, error) {
	return postData[ConnectResult](ctx, c, "connect account "+id, accountPath(id)+"/connect", nil)
}

// DisconnectAccount signs an account out.
func (c *Client) DisconnectAccount(ctx context.Context, id string) (*LinkedInAccount, error) {
	return postData[LinkedInAccount](ctx, c, "disconnect account "+id, accountPath(id)+"/disconnect", nil)
}

// StoreTOTPSecret saves the authenticator secret for an account.
func (c *Client) StoreTOTPSecret(ctx context.Context, id, secret string) (*LinkedInAccount, error) {
	body := map[string]string{"totp_secret": secret}
	return putData[LinkedInAccount](ctx, c, "store totp secret "+id, accountPath(id)+"/totp", body)
}

// GetTOTPCode returns the account's current one-time code.
func (c *Client) GetTOTPCode(ctx context.Context, id string) (*TOTPCode, error) {
	return getData[TOTPCode](ctx, c, "get totp code "+id, accountPath(id)+"/totp/code", nil)
}

// StartManualConnect opens a live browser session for manual login.
func (c *Client) StartManualConnect(ctx context.Context, id string) (*ManualSession, error) {
	return postData[ManualSession](ctx, c, "start manual connect "+id, accountPath(id)+"/manual-connect", nil)
}

// ConfirmManualConnect tells the server the user finished logging in.
func (c *Client) ConfirmManualConnect(ctx context.Context, id, sessionID string) (*ManualConfirmation, error) {
	body := map[string]string{"session_id": sessionID}
	return postData[ManualConfirmation](ctx, c, "confirm manual connect "+id, accountPath(id)+"/manual-connect/confirm", body)
}

// GetRateLimits returns today's counters for an account.
func (c *Client) GetRateLimits(ctx context.Context, id string) (*RateLimits, error) {
	return getData[RateLimits](ctx, c, "get rate limits "+id, accountPath(id)+"/rate-limits", nil)
}

// ResetRateLimits zeroes today's counters.
func (c *Client) ResetRateLimits(ctx context.Context, id string) (*RateLimits, error) {
	return postData[RateLimits](ctx, c, "reset rate limits "+id, accountPath(id)+"/rate-limits/reset", nil)
}

// StartWarmup begins the warmup ramp.
func (c *Client) StartWarmup(ctx context.Context, id string) (*Warmup, error) {
	return postData[Warmup](ctx, c, "start warmup "+id, accountPath(id)+"/warmup", nil)
}

// WarmupProgress returns the current warmup state.
func (c *Client) WarmupProgress(ctx context.Context, id string) (*Warmup, error) {
	return getData[Warmup](ctx, c, "warmup progress "+id, accountPath(id)+"/warmup", nil)
}
