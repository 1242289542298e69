package screen

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/connect"
	"github.com/sells-group/leadwatcher/internal/listing"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// AccountsAPI is what the accounts screen needs from the client.
type AccountsAPI interface {
	connect.API
	ListAccounts(ctx context.Context) ([]leadwatcher.LinkedInAccount, error)
	DisconnectAccount(ctx context.Context, id string) (*leadwatcher.LinkedInAccount, error)
	DeleteAccount(ctx context.Context, id string) error
	GetRateLimits(ctx context.Context, id string) (*leadwatcher.RateLimits, error)
	ResetRateLimits(ctx context.Context, id string) (*leadwatcher.RateLimits, error)
	StartWarmup(ctx context.Context, id string) (*leadwatcher.Warmup, error)
	WarmupProgress(ctx context.Context, id string) (*leadwatcher.Warmup, error)
}

// Accounts is the LinkedIn account settings screen. The account list is not
// paginated; the status filter applies locally.
type Accounts struct {
	api  AccountsAPI
	gen  listing.Generation
	opts connect.Options

	mu       sync.Mutex
	accounts []leadwatcher.LinkedInAccount
	status   leadwatcher.AccountStatus
	errMsg   string
}

// NewAccounts returns the accounts screen. opts configures the timers of
// flows started with AddAccount.
func NewAccounts(api AccountsAPI, opts connect.Options) *Accounts {
	return &Accounts{api: api, opts: opts, accounts: []leadwatcher.LinkedInAccount{}}
}

// Load fetches every account.
func (s *Accounts) Load(ctx context.Context) error {
	accounts, err := listing.Fetch(ctx, &s.gen, s.api.ListAccounts)
	if listing.IsStale(err) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = rest.ErrorMessage(err, "Failed to load accounts")
		return eris.Wrap(err, "screen: load accounts")
	}
	s.accounts = accounts
	s.errMsg = ""
	return nil
}

// SetStatusFilter limits Accounts to one status; empty shows all.
func (s *Accounts) SetStatusFilter(status leadwatcher.AccountStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Accounts returns the loaded accounts matching the status filter.
func (s *Accounts) Accounts() []leadwatcher.LinkedInAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]leadwatcher.LinkedInAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		if s.status == "" || a.Status == s.status {
			out = append(out, a)
		}
	}
	return out
}

// Error returns the last displayable error.
func (s *Accounts) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Accounts) setError(err error, fallback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = rest.ErrorMessage(err, fallback)
	return err
}

func (s *Accounts) upsert(acc leadwatcher.LinkedInAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == acc.ID {
			s.accounts[i] = acc
			return
		}
	}
	s.accounts = append(s.accounts, acc)
}

func (s *Accounts) patch(id string, fn func(*leadwatcher.LinkedInAccount)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			fn(&s.accounts[i])
			return
		}
	}
}

// AddAccount starts an add-account flow whose result is merged into the
// list. The caller owns the flow and must Close it.
func (s *Accounts) AddAccount() *connect.Flow {
	f := connect.New(s.api, s.opts)
	f.OnAdded = s.upsert
	return f
}

// Disconnect signs an account out.
func (s *Accounts) Disconnect(ctx context.Context, id string) error {
	acc, err := s.api.DisconnectAccount(ctx, id)
	if err != nil {
		return s.setError(eris.Wrap(err, "screen: disconnect account"), "Failed to disconnect account")
	}
	s.upsert(*acc)
	return nil
}

// Delete removes an account.
func (s *Accounts) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteAccount(ctx, id); err != nil {
		return s.setError(eris.Wrap(err, "screen: delete account"), "Failed to delete account")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			break
		}
	}
	return nil
}

// RateLimits returns today's counters for an account.
func (s *Accounts) RateLimits(ctx context.Context, id string) (*leadwatcher.RateLimits, error) {
	rl, err := s.api.GetRateLimits(ctx, id)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: rate limits"), "Failed to load rate limits")
	}
	return rl, nil
}

// ResetRateLimits zeroes today's counters.
func (s *Accounts) ResetRateLimits(ctx context.Context, id string) (*leadwatcher.RateLimits, error) {
	rl, err := s.api.ResetRateLimits(ctx, id)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: reset rate limits"), "Failed to reset rate limits")
	}
	return rl, nil
}

// StartWarmup begins the warmup ramp and records it on the account.
func (s *Accounts) StartWarmup(ctx context.Context, id string) (*leadwatcher.Warmup, error) {
	w, err := s.api.StartWarmup(ctx, id)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: start warmup"), "Failed to start warmup")
	}
	s.patch(id, func(a *leadwatcher.LinkedInAccount) { a.Warmup = w })
	return w, nil
}

// WarmupProgress refreshes the warmup state of an account.
func (s *Accounts) WarmupProgress(ctx context.Context, id string) (*leadwatcher.Warmup, error) {
	w, err := s.api.WarmupProgress(ctx, id)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: warmup progress"), "Failed to load warmup")
	}
	s.patch(id, func(a *leadwatcher.LinkedInAccount) { a.Warmup = w })
	return w, nil
}
