package stubapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// Default daily counters and warmup ramp for new accounts.
const (
	defaultConnectionsLimit = 20
	defaultMessagesLimit    = 50
	defaultProfileViewLimit = 80
	warmupDays              = 14
	warmupStartLimit        = 5
)

// account is a LinkedIn account row including server-only fields.
type account struct {
	leadwatcher.LinkedInAccount
	Password    string
	TOTPSecret  string
	StatusPolls int
	RateLimits  leadwatcher.RateLimits
}

const accountColumns = `id, email, name, password, totp_secret, status, error_message, daily_limit,
	status_polls, rate_limits, warmup, connected_at, created_at`

func scanAccount(row scannable) (*account, error) {
	var a account
	var limits, warmup string
	var created time.Time
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Password, &a.TOTPSecret, &a.Status, &a.ErrorMessage,
		&a.DailyLimit, &a.StatusPolls, &limits, &warmup, &a.ConnectedAt, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: scan account")
	}
	if err := json.Unmarshal([]byte(limits), &a.RateLimits); err != nil {
		return nil, eris.Wrap(err, "stubapi: decode rate limits")
	}
	if warmup != "" {
		var w leadwatcher.Warmup
		if err := json.Unmarshal([]byte(warmup), &w); err != nil {
			return nil, eris.Wrap(err, "stubapi: decode warmup")
		}
		a.Warmup = &w
	}
	a.CreatedAt = &created
	a.HasTOTP = a.TOTPSecret != ""
	return &a, nil
}

// NormalizeSecret strips spaces and upper-cases a base32 secret.
func NormalizeSecret(secret string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
}

// ListAccounts returns every account, newest first.
func (s *Store) ListAccounts(ctx context.Context) ([]leadwatcher.LinkedInAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM linkedin_accounts ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: list accounts")
	}
	defer rows.Close()

	out := []leadwatcher.LinkedInAccount{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a.LinkedInAccount)
	}
	return out, eris.Wrap(rows.Err(), "stubapi: iterate accounts")
}

func (s *Store) getAccount(ctx context.Context, id string) (*account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM linkedin_accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, eris.Wrapf(err, "account %s", id)
	}
	return a, nil
}

// CreateAccount registers a pending account.
func (s *Store) CreateAccount(ctx context.Context, req leadwatcher.CreateAccountRequest) (*leadwatcher.LinkedInAccount, error) {
	limits, err := json.Marshal(leadwatcher.RateLimits{
		ConnectionsLimit: defaultConnectionsLimit,
		MessagesLimit:    defaultMessagesLimit,
		ProfileViewLimit: defaultProfileViewLimit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal rate limits")
	}
	id := newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO linkedin_accounts (id, email, name, password, totp_secret, status, daily_limit, rate_limits, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(req.Email), req.Name, req.Password, NormalizeSecret(req.TOTPSecret),
		string(leadwatcher.AccountPending), defaultConnectionsLimit, string(limits), now(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: insert account")
	}
	return s.GetAccount(ctx, id)
}

// GetAccount returns the public view of an account.
func (s *Store) GetAccount(ctx context.Context, id string) (*leadwatcher.LinkedInAccount, error) {
	a, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a.LinkedInAccount, nil
}

// UpdateAccount edits name, password and daily limit. Zero values are left
// unchanged.
func (s *Store) UpdateAccount(ctx context.Context, id string, req leadwatcher.UpdateAccountRequest) (*leadwatcher.LinkedInAccount, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE linkedin_accounts SET
			name = CASE WHEN ? = '' THEN name ELSE ? END,
			password = CASE WHEN ? = '' THEN password ELSE ? END,
			daily_limit = CASE WHEN ? = 0 THEN daily_limit ELSE ? END
		 WHERE id = ?`,
		req.Name, req.Name, req.Password, req.Password, req.DailyLimit, req.DailyLimit, id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: update account %s", id)
	}
	if err := checkRowsAffected(res, "account", id); err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, id)
}

// DeleteAccount removes an account and its manual sessions.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM linkedin_accounts WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "stubapi: delete account %s", id)
	}
	return checkRowsAffected(res, "account", id)
}

// SetAccountStatus sets the status and error message and resets the poll
// counter. connected_at is stamped when the status is connected.
func (s *Store) SetAccountStatus(ctx context.Context, id string, status leadwatcher.AccountStatus, msg string) (*leadwatcher.LinkedInAccount, error) {
	var connectedAt any
	if status == leadwatcher.AccountConnected {
		connectedAt = now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE linkedin_accounts SET status = ?, error_message = ?, status_polls = 0, connected_at = ? WHERE id = ?`,
		string(status), msg, connectedAt, id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: set account status %s", id)
	}
	if err := checkRowsAffected(res, "account", id); err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, id)
}

// CountStatusPoll increments the poll counter of a connecting account and
// returns the new value.
func (s *Store) CountStatusPoll(ctx context.Context, id string) (int, error) {
	var polls int
	err := s.db.QueryRowContext(ctx,
		`UPDATE linkedin_accounts SET status_polls = status_polls + 1 WHERE id = ? RETURNING status_polls`, id,
	).Scan(&polls)
	if err == sql.ErrNoRows {
		return 0, eris.Wrapf(ErrNotFound, "account %s", id)
	}
	return polls, eris.Wrap(err, "stubapi: count status poll")
}

// StoreTOTPSecret saves a normalized authenticator secret.
func (s *Store) StoreTOTPSecret(ctx context.Context, id, secret string) (*leadwatcher.LinkedInAccount, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE linkedin_accounts SET totp_secret = ? WHERE id = ?`, NormalizeSecret(secret), id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: store totp secret %s", id)
	}
	if err := checkRowsAffected(res, "account", id); err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, id)
}

// TOTPSecret returns an account's secret, empty when none is stored.
func (s *Store) TOTPSecret(ctx context.Context, id string) (string, error) {
	a, err := s.getAccount(ctx, id)
	if err != nil {
		return "", err
	}
	return a.TOTPSecret, nil
}

// CreateManualSession opens a manual-login session valid for ttl.
func (s *Store) CreateManualSession(ctx context.Context, accountID string, ttl time.Duration) (string, time.Time, error) {
	if _, err := s.getAccount(ctx, accountID); err != nil {
		return "", time.Time{}, err
	}
	id, expires := newID(), now().Add(ttl)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_sessions (id, account_id, expires_at) VALUES (?, ?, ?)`, id, accountID, expires)
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "stubapi: insert manual session")
	}
	return id, expires, nil
}

// ConsumeManualSession deletes a session and reports whether it belonged to
// the account and had not expired.
func (s *Store) ConsumeManualSession(ctx context.Context, accountID, sessionID string) (bool, error) {
	var owner string
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM manual_sessions WHERE id = ? RETURNING account_id, expires_at`, sessionID,
	).Scan(&owner, &expires)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "stubapi: consume manual session")
	}
	return owner == accountID && time.Now().Before(expires), nil
}

// RateLimits returns an account's counters.
func (s *Store) RateLimits(ctx context.Context, id string) (*leadwatcher.RateLimits, error) {
	a, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	rl := a.RateLimits
	return &rl, nil
}

// ResetRateLimits zeroes the sent counters and schedules the next reset at
// the following UTC midnight.
func (s *Store) ResetRateLimits(ctx context.Context, id string) (*leadwatcher.RateLimits, error) {
	a, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	rl := a.RateLimits
	rl.ConnectionsSent, rl.MessagesSent, rl.ProfileViews = 0, 0, 0
	next := now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	rl.ResetsAt = &next

	raw, err := json.Marshal(rl)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal rate limits")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE linkedin_accounts SET rate_limits = ? WHERE id = ?`, string(raw), id); err != nil {
		return nil, eris.Wrapf(err, "stubapi: reset rate limits %s", id)
	}
	return &rl, nil
}

// StartWarmup begins the warmup ramp from day one.
func (s *Store) StartWarmup(ctx context.Context, id string, at time.Time) (*leadwatcher.Warmup, error) {
	if _, err := s.getAccount(ctx, id); err != nil {
		return nil, err
	}
	w := leadwatcher.Warmup{
		Active:      true,
		Day:         1,
		TotalDays:   warmupDays,
		DailyLimit:  warmupStartLimit,
		TargetLimit: defaultConnectionsLimit,
		StartedAt:   &at,
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal warmup")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE linkedin_accounts SET warmup = ? WHERE id = ?`, string(raw), id); err != nil {
		return nil, eris.Wrapf(err, "stubapi: start warmup %s", id)
	}
	return &w, nil
}

// WarmupProgress returns the warmup state as of at, ramping the daily limit
// linearly to the target. An account that never started warmup reports an
// inactive zero state.
func (s *Store) WarmupProgress(ctx context.Context, id string, at time.Time) (*leadwatcher.Warmup, error) {
	a, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Warmup == nil || a.Warmup.StartedAt == nil {
		return &leadwatcher.Warmup{TotalDays: warmupDays, TargetLimit: defaultConnectionsLimit}, nil
	}
	w := *a.Warmup
	w.Day = int(at.Sub(*w.StartedAt)/(24*time.Hour)) + 1
	if w.Day >= w.TotalDays {
		w.Day = w.TotalDays
		w.Active = false
	}
	span := w.TargetLimit - warmupStartLimit
	w.DailyLimit = warmupStartLimit + span*(w.Day-1)/(w.TotalDays-1)
	return &w, nil
}
