package stubapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

const competitorColumns = `id, icp_profile_id, name, domain, linkedin_url, status, source, reason, linked_target, created_at`

func scanCompetitor(row scannable) (*leadwatcher.Competitor, error) {
	var c leadwatcher.Competitor
	var target string
	var created time.Time
	err := row.Scan(&c.ID, &c.ICPProfileID, &c.Name, &c.Domain, &c.LinkedInURL, &c.Status,
		&c.Source, &c.Reason, &target, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: scan competitor")
	}
	if target != "" {
		var t leadwatcher.LinkTarget
		if err := json.Unmarshal([]byte(target), &t); err != nil {
			return nil, eris.Wrap(err, "stubapi: decode link target")
		}
		c.LinkedTarget = &t
	}
	c.CreatedAt = &created
	return &c, nil
}

// ListCompetitors returns a profile's competitors, flat and grouped by
// status.
func (s *Store) ListCompetitors(ctx context.Context, profileID string) (*leadwatcher.CompetitorList, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+competitorColumns+" FROM competitors WHERE icp_profile_id = ? ORDER BY created_at ASC, name ASC",
		profileID)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: list competitors")
	}
	defer rows.Close()

	out := &leadwatcher.CompetitorList{
		Data: []leadwatcher.Competitor{},
		Grouped: leadwatcher.CompetitorGroups{
			Pending:  []leadwatcher.Competitor{},
			Approved: []leadwatcher.Competitor{},
			Rejected: []leadwatcher.Competitor{},
		},
	}
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, err
		}
		out.Data = append(out.Data, *c)
		switch c.Status {
		case leadwatcher.CompetitorApproved:
			out.Grouped.Approved = append(out.Grouped.Approved, *c)
		case leadwatcher.CompetitorRejected:
			out.Grouped.Rejected = append(out.Grouped.Rejected, *c)
		default:
			out.Grouped.Pending = append(out.Grouped.Pending, *c)
		}
	}
	return out, eris.Wrap(rows.Err(), "stubapi: iterate competitors")
}

// GetCompetitor returns one competitor.
func (s *Store) GetCompetitor(ctx context.Context, id string) (*leadwatcher.Competitor, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+competitorColumns+" FROM competitors WHERE id = ?", id)
	c, err := scanCompetitor(row)
	if err != nil {
		return nil, eris.Wrapf(err, "competitor %s", id)
	}
	return c, nil
}

// CreateCompetitor inserts a competitor with the given status and source.
func (s *Store) CreateCompetitor(ctx context.Context, profileID string, in leadwatcher.CompetitorInput, status leadwatcher.CompetitorStatus, source string) (*leadwatcher.Competitor, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO competitors (id, icp_profile_id, name, domain, linkedin_url, status, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, profileID, in.Name, in.Domain, in.LinkedInURL, string(status), source, now())
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: insert competitor")
	}
	return s.GetCompetitor(ctx, id)
}

// UpdateCompetitor edits name, domain and LinkedIn URL.
func (s *Store) UpdateCompetitor(ctx context.Context, id string, in leadwatcher.CompetitorInput) (*leadwatcher.Competitor, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitors SET name = ?, domain = ?, linkedin_url = ? WHERE id = ?`,
		in.Name, in.Domain, in.LinkedInURL, id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: update competitor %s", id)
	}
	if err := checkRowsAffected(res, "competitor", id); err != nil {
		return nil, err
	}
	return s.GetCompetitor(ctx, id)
}

// SetCompetitorStatus approves or rejects a competitor.
func (s *Store) SetCompetitorStatus(ctx context.Context, id string, status leadwatcher.CompetitorStatus, reason string) (*leadwatcher.Competitor, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitors SET status = ?, reason = ? WHERE id = ?`, string(status), reason, id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: set competitor status %s", id)
	}
	if err := checkRowsAffected(res, "competitor", id); err != nil {
		return nil, err
	}
	return s.GetCompetitor(ctx, id)
}

// ApproveAllCompetitors approves every pending competitor of a profile.
func (s *Store) ApproveAllCompetitors(ctx context.Context, profileID string) (int, error) {
	return s.settlePending(ctx, profileID, leadwatcher.CompetitorApproved, "")
}

// RejectAllCompetitors rejects every pending competitor of a profile.
func (s *Store) RejectAllCompetitors(ctx context.Context, profileID, reason string) (int, error) {
	return s.settlePending(ctx, profileID, leadwatcher.CompetitorRejected, reason)
}

func (s *Store) settlePending(ctx context.Context, profileID string, status leadwatcher.CompetitorStatus, reason string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitors SET status = ?, reason = ? WHERE icp_profile_id = ? AND status = ?`,
		string(status), reason, profileID, string(leadwatcher.CompetitorPending))
	if err != nil {
		return 0, eris.Wrapf(err, "stubapi: %s all competitors", status)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "stubapi: rows affected")
}

// LinkCompetitor stores an external link target.
func (s *Store) LinkCompetitor(ctx context.Context, id string, target leadwatcher.LinkTarget) (*leadwatcher.Competitor, error) {
	raw, err := json.Marshal(target)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: marshal link target")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE competitors SET linked_target = ? WHERE id = ?`, string(raw), id)
	if err != nil {
		return nil, eris.Wrapf(err, "stubapi: link competitor %s", id)
	}
	if err := checkRowsAffected(res, "competitor", id); err != nil {
		return nil, err
	}
	return s.GetCompetitor(ctx, id)
}

// DeleteCompetitor removes a competitor.
func (s *Store) DeleteCompetitor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "stubapi: delete competitor %s", id)
	}
	return checkRowsAffected(res, "competitor", id)
}

// competitorNames returns the lower-cased names already recorded for a
// profile.
func (s *Store) competitorNames(ctx context.Context, profileID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lower(name) FROM competitors WHERE icp_profile_id = ?`, profileID)
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: competitor names")
	}
	defer rows.Close()
	names := make(map[string]bool)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, eris.Wrap(err, "stubapi: scan competitor name")
		}
		names[n] = true
	}
	return names, eris.Wrap(rows.Err(), "stubapi: iterate competitor names")
}

// --- Inference jobs ---

type inferenceJob struct {
	leadwatcher.InferenceJob
	ProfileID string
	Polls     int
}

// CreateInferenceJob queues a suggestion job for a profile.
func (s *Store) CreateInferenceJob(ctx context.Context, profileID string) (*leadwatcher.InferenceJob, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inference_jobs (id, icp_profile_id, status, created_at) VALUES (?, ?, ?, ?)`,
		id, profileID, leadwatcher.JobQueued, now())
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: insert inference job")
	}
	return &leadwatcher.InferenceJob{JobID: id, Status: leadwatcher.JobQueued}, nil
}

// pollInferenceJob increments a job's poll counter and returns it.
func (s *Store) pollInferenceJob(ctx context.Context, id string) (*inferenceJob, error) {
	var j inferenceJob
	err := s.db.QueryRowContext(ctx,
		`UPDATE inference_jobs SET polls = polls + 1 WHERE id = ?
		 RETURNING id, icp_profile_id, status, suggested, message, polls`, id,
	).Scan(&j.JobID, &j.ProfileID, &j.Status, &j.Suggested, &j.Message, &j.Polls)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "inference job %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "stubapi: poll inference job")
	}
	return &j, nil
}

func (s *Store) finishInferenceJob(ctx context.Context, id, status string, suggested int, msg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE inference_jobs SET status = ?, suggested = ?, message = ? WHERE id = ?`,
		status, suggested, msg, id)
	return eris.Wrapf(err, "stubapi: finish inference job %s", id)
}
