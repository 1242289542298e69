package stubapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = eris.New("stubapi: not found")

// Store persists the stub API's records in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at the given path and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: open")
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "stubapi: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS icp_profiles (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	definition  TEXT NOT NULL,
	is_active   INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	full_name       TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	company_name    TEXT NOT NULL DEFAULT '',
	company_domain  TEXT NOT NULL DEFAULT '',
	linkedin_url    TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	email_status    TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	score           REAL NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'new',
	icp_profile_id  TEXT NOT NULL DEFAULT '',
	discovery_scope TEXT NOT NULL DEFAULT '',
	signals         TEXT NOT NULL DEFAULT '[]',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS linkedin_accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	password      TEXT NOT NULL DEFAULT '',
	totp_secret   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT NOT NULL DEFAULT '',
	daily_limit   INTEGER NOT NULL DEFAULT 0,
	status_polls  INTEGER NOT NULL DEFAULT 0,
	rate_limits   TEXT NOT NULL DEFAULT '{}',
	warmup        TEXT NOT NULL DEFAULT '',
	connected_at  DATETIME,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS manual_sessions (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES linkedin_accounts(id) ON DELETE CASCADE,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS competitors (
	id             TEXT PRIMARY KEY,
	icp_profile_id TEXT NOT NULL,
	name           TEXT NOT NULL,
	domain         TEXT NOT NULL DEFAULT '',
	linkedin_url   TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	source         TEXT NOT NULL DEFAULT '',
	reason         TEXT NOT NULL DEFAULT '',
	linked_target  TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS inference_jobs (
	id             TEXT PRIMARY KEY,
	icp_profile_id TEXT NOT NULL,
	status         TEXT NOT NULL,
	suggested      INTEGER NOT NULL DEFAULT 0,
	message        TEXT NOT NULL DEFAULT '',
	polls          INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_profile ON leads(icp_profile_id);
CREATE INDEX IF NOT EXISTS idx_competitors_profile ON competitors(icp_profile_id);
`

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "stubapi: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListParams are the paging, sorting and filter inputs of a list query.
type ListParams struct {
	Page      int
	PerPage   int
	Sort      string
	Direction string
	Filters   map[string]string
}

func (p ListParams) offset() int { return (p.Page - 1) * p.PerPage }

// orderBy returns a whitelisted ORDER BY clause; unknown columns fall back
// to def.
func (p ListParams) orderBy(allowed map[string]bool, def string) string {
	col := p.Sort
	if !allowed[col] {
		col = def
	}
	dir := "DESC"
	if strings.EqualFold(p.Direction, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "stubapi: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func newID() string { return uuid.New().String() }

func now() time.Time { return time.Now().UTC().Truncate(time.Second) }

// --- ICP profiles ---

var profileSorts = map[string]bool{"name": true, "created_at": true, "updated_at": true}

const profileColumns = `id, name, description, definition, is_active, created_at, updated_at`

func scanProfile(row scannable) (*icp.Profile, error) {
	var p icp.Profile
	var def string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &def, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: scan profile")
	}
	if err := json.Unmarshal([]byte(def), &p.Definition); err != nil {
		return nil, eris.Wrap(err, "stubapi: decode definition")
	}
	return &p, nil
}

// ListProfiles returns a page of profiles and the total count. Filters:
// is_active ("true"/"false") and q (name substring).
func (s *Store) ListProfiles(ctx context.Context, p ListParams) ([]icp.Profile, int, error) {
	var where []string
	var args []any
	if v, ok := p.Filters["is_active"]; ok && v != "" {
		where = append(where, "is_active = ?")
		args = append(args, v == "true" || v == "1")
	}
	if v := p.Filters["q"]; v != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+v+"%")
	}
	clause := whereClause(where)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM icp_profiles"+clause, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "stubapi: count profiles")
	}

	q := "SELECT " + profileColumns + " FROM icp_profiles" + clause +
		p.orderBy(profileSorts, "updated_at") + " LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, q, append(args, p.PerPage, p.offset())...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "stubapi: list profiles")
	}
	defer rows.Close()

	out := []icp.Profile{}
	for rows.Next() {
		prof, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *prof)
	}
	return out, total, eris.Wrap(rows.Err(), "stubapi: iterate profiles")
}

// GetProfile returns one profile with its lead stats.
func (s *Store) GetProfile(ctx context.Context, id string) (*icp.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM icp_profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, eris.Wrapf(err, "profile %s", id)
	}

	var stats icp.Stats
	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(score) FROM leads WHERE icp_profile_id = ?`, id,
	).Scan(&stats.LeadsMatched, &avg)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: profile stats")
	}
	stats.AvgScore = avg.Float64
	p.Stats = &stats
	return p, nil
}

// CreateProfile inserts a profile from form data.
func (s *Store) CreateProfile(ctx context.Context, form icp.FormData) (*icp.Profile, error) {
	def, err := json.Marshal(form.Definition)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal definition")
	}
	id, ts := newID(), now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icp_profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, form.Name, form.Description, string(def), form.IsActive, ts, ts,
	)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: insert profile")
	}
	return s.GetProfile(ctx, id)
}

// UpdateProfile replaces a profile's editable fields.
func (s *Store) UpdateProfile(ctx context.Context, id string, form icp.FormData) (*icp.Profile, error) {
	def, err := json.Marshal(form.Definition)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal definition")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE icp_profiles SET name = ?, description = ?, definition = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		form.Name, form.Description, string(def), form.IsActive, now(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: update profile %s", id)
	}
	if err := checkRowsAffected(res, "profile", id); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// SetProfileActive flips only is_active.
func (s *Store) SetProfileActive(ctx context.Context, id string, active bool) (*icp.Profile, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE icp_profiles SET is_active = ?, updated_at = ? WHERE id = ?`, active, now(), id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: toggle profile %s", id)
	}
	if err := checkRowsAffected(res, "profile", id); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// DuplicateProfile clones a profile as an inactive copy.
func (s *Store) DuplicateProfile(ctx context.Context, id string) (*icp.Profile, error) {
	src, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	form := icp.FormFromProfile(*src)
	form.Name = src.Name + " (copy)"
	form.IsActive = false
	return s.CreateProfile(ctx, form)
}

// DeleteProfile removes a profile and its competitors.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM icp_profiles WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "stubapi: delete profile %s", id)
	}
	if err := checkRowsAffected(res, "profile", id); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM competitors WHERE icp_profile_id = ?`, id)
	return eris.Wrap(err, "stubapi: delete profile competitors")
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// --- Leads ---

var leadSorts = map[string]bool{
	"score": true, "full_name": true, "company_name": true,
	"status": true, "created_at": true, "updated_at": true,
}

const leadColumns = `id, full_name, title, company_name, company_domain, linkedin_url, email,
	email_status, location, score, status, icp_profile_id, discovery_scope, signals, created_at, updated_at`

func scanLead(row scannable) (*leadwatcher.Lead, error) {
	var l leadwatcher.Lead
	var signals string
	var created, updated time.Time
	err := row.Scan(&l.ID, &l.FullName, &l.Title, &l.CompanyName, &l.CompanyDomain, &l.LinkedInURL,
		&l.Email, &l.EmailStatus, &l.Location, &l.Score, &l.Status, &l.ICPProfileID,
		&l.DiscoveryScope, &signals, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: scan lead")
	}
	if err := json.Unmarshal([]byte(signals), &l.Signals); err != nil {
		return nil, eris.Wrap(err, "stubapi: decode signals")
	}
	l.CreatedAt, l.UpdatedAt = &created, &updated
	return &l, nil
}

func leadFilters(f map[string]string) (string, []any) {
	var where []string
	var args []any
	if v := f["status"]; v != "" {
		where = append(where, "status = ?")
		args = append(args, v)
	}
	if v := f["icp_profile_id"]; v != "" {
		where = append(where, "icp_profile_id = ?")
		args = append(args, v)
	}
	if v := f["min_score"]; v != "" {
		where = append(where, "score >= CAST(? AS REAL)")
		args = append(args, v)
	}
	if v := f["discovery_scope"]; v != "" {
		where = append(where, "discovery_scope = ?")
		args = append(args, v)
	}
	if v := f["q"]; v != "" {
		where = append(where, "(full_name LIKE ? OR company_name LIKE ? OR title LIKE ?)")
		like := "%" + v + "%"
		args = append(args, like, like, like)
	}
	return whereClause(where), args
}

// ListLeads returns a page of leads and the total count.
func (s *Store) ListLeads(ctx context.Context, p ListParams) ([]leadwatcher.Lead, int, error) {
	clause, args := leadFilters(p.Filters)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+clause, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "stubapi: count leads")
	}

	q := "SELECT " + leadColumns + " FROM leads" + clause + p.orderBy(leadSorts, "score")
	if p.PerPage > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, p.PerPage, p.offset())
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "stubapi: list leads")
	}
	defer rows.Close()

	out := []leadwatcher.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, eris.Wrap(rows.Err(), "stubapi: iterate leads")
}

// GetLead returns one lead.
func (s *Store) GetLead(ctx context.Context, id string) (*leadwatcher.Lead, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+leadColumns+" FROM leads WHERE id = ?", id)
	l, err := scanLead(row)
	if err != nil {
		return nil, eris.Wrapf(err, "lead %s", id)
	}
	return l, nil
}

// CreateLead inserts a lead. An empty ID is generated.
func (s *Store) CreateLead(ctx context.Context, l leadwatcher.Lead) (*leadwatcher.Lead, error) {
	if l.ID == "" {
		l.ID = newID()
	}
	if l.Status == "" {
		l.Status = leadwatcher.LeadStatusNew
	}
	signals, err := json.Marshal(l.Signals)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal signals")
	}
	if l.Signals == nil {
		signals = []byte("[]")
	}
	ts := now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.FullName, l.Title, l.CompanyName, l.CompanyDomain, l.LinkedInURL, l.Email,
		l.EmailStatus, l.Location, l.Score, string(l.Status), l.ICPProfileID, l.DiscoveryScope,
		string(signals), ts, ts,
	)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: insert lead")
	}
	return s.GetLead(ctx, l.ID)
}

// UpdateLeadStatus sets one lead's status.
func (s *Store) UpdateLeadStatus(ctx context.Context, id string, status leadwatcher.LeadStatus) (*leadwatcher.Lead, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`, string(status), now(), id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: update lead %s", id)
	}
	if err := checkRowsAffected(res, "lead", id); err != nil {
		return nil, err
	}
	return s.GetLead(ctx, id)
}

// BulkUpdateLeadStatus sets many leads' status in one transaction. Every id
// must exist or nothing changes.
func (s *Store) BulkUpdateLeadStatus(ctx context.Context, ids []string, status leadwatcher.LeadStatus) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "stubapi: begin bulk status")
	}
	defer tx.Rollback() //nolint:errcheck

	ts := now()
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`, string(status), ts, id)
		if err != nil {
			return 0, eris.Wrapf(err, "stubapi: bulk status %s", id)
		}
		if err := checkRowsAffected(res, "lead", id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "stubapi: commit bulk status")
	}
	return len(ids), nil
}

// SetLeadEmail stores an enriched email.
func (s *Store) SetLeadEmail(ctx context.Context, id, email, emailStatus string) (*leadwatcher.Lead, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email = ?, email_status = ?, updated_at = ? WHERE id = ?`,
		email, emailStatus, now(), id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: set lead email %s", id)
	}
	if err := checkRowsAffected(res, "lead", id); err != nil {
		return nil, err
	}
	return s.GetLead(ctx, id)
}
