// Package connect drives the add-a-LinkedIn-account flow: credentials,
// optional TOTP setup with a live code countdown and connection test, and a
// manual remote-browser login fallback.
package connect

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// Step is the screen the flow is on.
type Step string

const (
	StepCredentials Step = "credentials"
	StepTOTPSetup   Step = "totp_setup"
	StepConnecting  Step = "connecting"
	StepDone        Step = "done"
)

// ConnectionStatus is the state of the connection test.
type ConnectionStatus string

const (
	StatusIdle      ConnectionStatus = "idle"
	StatusTesting   ConnectionStatus = "testing"
	StatusConnected ConnectionStatus = "connected"
	StatusFailed    ConnectionStatus = "failed"
)

// DefaultCodeValidity is used when the server omits valid_for_seconds.
const DefaultCodeValidity = 30

// TimeoutMessage is reported when the status poll runs out of attempts.
const TimeoutMessage = "Connection timed out. LinkedIn may require additional verification; try manual login instead."

var (
	ErrEmailRequired      = eris.New("connect: email is required")
	ErrNoAccount          = eris.New("connect: no account has been created")
	ErrManualUnavailable  = eris.New("connect: manual login is only available after a failed connection test")
	ErrNoManualSession    = eris.New("connect: no manual login session")
	ErrFlowClosed         = eris.New("connect: flow is closed")
	ErrConnectionRejected = eris.New("connect: connection failed")
)

// API is the subset of the Lead Watcher client the flow uses.
type API interface {
	CreateAccount(ctx context.Context, req leadwatcher.CreateAccountRequest) (*leadwatcher.LinkedInAccount, error)
	GetAccount(ctx context.Context, id string) (*leadwatcher.LinkedInAccount, error)
	ConnectAccount(ctx context.Context, id string) (*leadwatcher.ConnectResult, error)
	GetTOTPCode(ctx context.Context, id string) (*leadwatcher.TOTPCode, error)
	StartManualConnect(ctx context.Context, id string) (*leadwatcher.ManualSession, error)
	ConfirmManualConnect(ctx context.Context, id, sessionID string) (*leadwatcher.ManualConfirmation, error)
}

// Options tunes the flow's timers.
type Options struct {
	TickInterval    time.Duration // countdown tick, default 1s
	PollInterval    time.Duration // status poll interval, default 5s
	MaxPollAttempts int           // default 60
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.MaxPollAttempts <= 0 {
		o.MaxPollAttempts = 60
	}
	return o
}

// Credentials are what the user enters on the first step.
type Credentials struct {
	Email      string
	Name       string
	Password   string
	TOTPSecret string
}

// State is a snapshot of the flow for rendering.
type State struct {
	Step          Step
	Status        ConnectionStatus
	Account       *leadwatcher.LinkedInAccount
	Code          string
	Remaining     int
	Error         string
	LiveURL       string
	PollAttempts  int
	ManualAllowed bool
}

// Flow is one run of the add-account dialog. It owns its timers; Close
// stops all of them.
type Flow struct {
	api  API
	opts Options

	// OnAdded receives the account once it is handed back to the caller.
	OnAdded func(leadwatcher.LinkedInAccount)

	life   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	step       Step
	status     ConnectionStatus
	account    *leadwatcher.LinkedInAccount
	code       string
	remaining  int
	refreshing bool
	errMsg     string
	session    *leadwatcher.ManualSession
	attempts   int
	stops      []context.CancelFunc
	wg         sync.WaitGroup
}

// New returns a flow on the credentials step.
func New(api API, opts Options) *Flow {
	life, cancel := context.WithCancel(context.Background())
	return &Flow{
		api:    api,
		opts:   opts.withDefaults(),
		life:   life,
		cancel: cancel,
		step:   StepCredentials,
		status: StatusIdle,
	}
}

// State returns a snapshot of the flow.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := State{
		Step:          f.step,
		Status:        f.status,
		Code:          f.code,
		Remaining:     f.remaining,
		Error:         f.errMsg,
		PollAttempts:  f.attempts,
		ManualAllowed: f.canManualLocked(),
	}
	if f.account != nil {
		acc := *f.account
		s.Account = &acc
	}
	if f.session != nil {
		s.LiveURL = f.session.LiveURL
	}
	return s
}

// bound returns a context cancelled by either ctx or Close.
func (f *Flow) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.life, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (f *Flow) fail(err error, fallback string) error {
	msg := rest.ErrorMessage(err, fallback)
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
	return err
}

func (f *Flow) accountID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.account == nil {
		return "", ErrNoAccount
	}
	return f.account.ID, nil
}

func (f *Flow) added(acc leadwatcher.LinkedInAccount) {
	if f.OnAdded != nil {
		f.OnAdded(acc)
	}
}

// SubmitCredentials creates the account. With a TOTP secret the flow moves
// to TOTP setup and fetches the first code; without one the account is
// handed back immediately.
func (f *Flow) SubmitCredentials(ctx context.Context, c Credentials) error {
	if f.life.Err() != nil {
		return ErrFlowClosed
	}
	c.Email = strings.TrimSpace(c.Email)
	c.TOTPSecret = strings.ReplaceAll(strings.TrimSpace(c.TOTPSecret), " ", "")
	if c.Email == "" {
		return f.fail(ErrEmailRequired, "Email is required")
	}

	ctx, done := f.bound(ctx)
	defer done()

	acc, err := f.api.CreateAccount(ctx, leadwatcher.CreateAccountRequest{
		Email:      c.Email,
		Name:       strings.TrimSpace(c.Name),
		Password:   c.Password,
		TOTPSecret: c.TOTPSecret,
	})
	if err != nil {
		return f.fail(eris.Wrap(err, "connect: create account"), "Failed to add account")
	}

	f.mu.Lock()
	f.account = acc
	f.errMsg = ""
	if c.TOTPSecret == "" {
		f.step = StepDone
	} else {
		f.step = StepTOTPSetup
	}
	step := f.step
	f.mu.Unlock()

	if step == StepDone {
		f.added(*acc)
		return nil
	}
	if err := f.RefreshCode(ctx); err != nil {
		zap.L().Warn("connect: initial totp code", zap.String("account_id", acc.ID), zap.Error(err))
	}
	return nil
}

// RefreshCode fetches the current TOTP code and resets the countdown to the
// server's validity window.
func (f *Flow) RefreshCode(ctx context.Context) error {
	id, err := f.accountID()
	if err != nil {
		return err
	}
	code, err := f.api.GetTOTPCode(ctx, id)
	if err != nil {
		return eris.Wrap(err, "connect: totp code")
	}
	valid := code.ValidForSeconds
	if valid <= 0 {
		valid = DefaultCodeValidity
	}
	f.mu.Lock()
	f.code = code.Code
	f.remaining = valid
	f.mu.Unlock()
	return nil
}

// Tick advances the countdown by one second. When it reaches zero a new
// code is fetched exactly once. Fetch failures are logged.
func (f *Flow) Tick(ctx context.Context) {
	f.mu.Lock()
	if f.step != StepTOTPSetup || f.refreshing {
		f.mu.Unlock()
		return
	}
	if f.remaining > 0 {
		f.remaining--
	}
	if f.remaining > 0 {
		f.mu.Unlock()
		return
	}
	f.refreshing = true
	f.mu.Unlock()

	if err := f.RefreshCode(ctx); err != nil {
		zap.L().Warn("connect: refresh totp code", zap.Error(err))
	}

	f.mu.Lock()
	f.refreshing = false
	f.mu.Unlock()
}

// StartCountdown ticks the code countdown in the background until stop is
// called, ctx is done, or the flow is closed.
func (f *Flow) StartCountdown(ctx context.Context) (stop func()) {
	ctx, cancel := f.bound(ctx)
	f.mu.Lock()
	f.stops = append(f.stops, cancel)
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ticker := time.NewTicker(f.opts.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Tick(ctx)
			}
		}
	}()
	return cancel
}

// TestConnection starts a connection attempt and polls the account status
// until it is connected, fails, or the attempt ceiling is reached. A
// failure is recorded in State().Error and returned.
func (f *Flow) TestConnection(ctx context.Context) error {
	id, err := f.accountID()
	if err != nil {
		return err
	}
	ctx, done := f.bound(ctx)
	defer done()

	f.mu.Lock()
	f.status = StatusTesting
	f.errMsg = ""
	f.attempts = 0
	f.mu.Unlock()

	if _, err := f.api.ConnectAccount(ctx, id); err != nil {
		f.setStatus(StatusFailed)
		return f.fail(eris.Wrap(err, "connect: start connection"), "Failed to start connection")
	}

	for attempt := 1; attempt <= f.opts.MaxPollAttempts; attempt++ {
		timer := time.NewTimer(f.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			f.setStatus(StatusIdle)
			return eris.Wrap(ctx.Err(), "connect: connection test cancelled")
		case <-timer.C:
		}

		f.mu.Lock()
		f.attempts = attempt
		f.mu.Unlock()

		acc, err := f.api.GetAccount(ctx, id)
		if err != nil {
			zap.L().Warn("connect: poll account status",
				zap.String("account_id", id), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		switch acc.Status {
		case leadwatcher.AccountConnected:
			f.mu.Lock()
			f.account = acc
			f.status = StatusConnected
			f.step = StepDone
			f.mu.Unlock()
			f.stopTimers()
			f.added(*acc)
			return nil
		case leadwatcher.AccountError, leadwatcher.AccountDisconnected:
			f.mu.Lock()
			f.account = acc
			f.status = StatusFailed
			f.errMsg = acc.ErrorMessage
			if f.errMsg == "" {
				f.errMsg = "Connection failed"
			}
			msg := f.errMsg
			f.mu.Unlock()
			return eris.Wrap(ErrConnectionRejected, msg)
		}
	}

	f.mu.Lock()
	f.status = StatusFailed
	f.errMsg = TimeoutMessage
	f.mu.Unlock()
	return eris.Wrap(ErrConnectionRejected, TimeoutMessage)
}

func (f *Flow) setStatus(s ConnectionStatus) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

func (f *Flow) canManualLocked() bool {
	return f.account != nil && f.status == StatusFailed && f.step == StepTOTPSetup
}

// CanUseManualLogin reports whether the manual fallback is on offer.
func (f *Flow) CanUseManualLogin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canManualLocked()
}

// UseManualLogin opens a remote-browser session and moves to the
// connecting step.
func (f *Flow) UseManualLogin(ctx context.Context) error {
	f.mu.Lock()
	if !f.canManualLocked() {
		f.mu.Unlock()
		return ErrManualUnavailable
	}
	id := f.account.ID
	f.mu.Unlock()

	ctx, done := f.bound(ctx)
	defer done()

	sess, err := f.api.StartManualConnect(ctx, id)
	if err != nil {
		return f.fail(eris.Wrap(err, "connect: start manual login"), "Failed to start manual login")
	}

	f.mu.Lock()
	f.session = sess
	f.step = StepConnecting
	f.errMsg = ""
	f.mu.Unlock()
	f.stopTimers()
	return nil
}

// ConfirmManual tells the server the user finished logging in. On success
// the refreshed account is handed back; otherwise the server's message is
// recorded and returned.
func (f *Flow) ConfirmManual(ctx context.Context) error {
	f.mu.Lock()
	if f.session == nil || f.account == nil {
		f.mu.Unlock()
		return ErrNoManualSession
	}
	id, sessionID := f.account.ID, f.session.SessionID
	f.mu.Unlock()

	ctx, done := f.bound(ctx)
	defer done()

	res, err := f.api.ConfirmManualConnect(ctx, id, sessionID)
	if err != nil {
		return f.fail(eris.Wrap(err, "connect: confirm manual login"), "Failed to verify login")
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Login was not completed"
		}
		f.mu.Lock()
		f.errMsg = msg
		f.mu.Unlock()
		return eris.Wrap(ErrConnectionRejected, msg)
	}

	acc, err := f.api.GetAccount(ctx, id)
	if err != nil {
		return f.fail(eris.Wrap(err, "connect: fetch account"), "Failed to load account")
	}

	f.mu.Lock()
	f.account = acc
	f.step = StepDone
	f.status = StatusConnected
	f.errMsg = ""
	f.mu.Unlock()
	f.added(*acc)
	return nil
}

func (f *Flow) stopTimers() {
	f.mu.Lock()
	stops := f.stops
	f.stops = nil
	f.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// Close cancels every timer and in-flight request owned by the flow and
// waits for background goroutines to exit.
func (f *Flow) Close() {
	f.cancel()
	f.stopTimers()
	f.wg.Wait()
}
