// Package competitor manages the pending/approved competitor list of one ICP
// profile. Every mutation is followed by a full reload; grouping comes from
// the server.
package competitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/listing"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// ErrNameRequired is returned when a competitor is saved without a name.
var ErrNameRequired = eris.New("competitor: name is required")

// API is the subset of the Lead Watcher client the manager uses.
type API interface {
	ListCompetitors(ctx context.Context, profileID string) (*leadwatcher.CompetitorList, error)
	CreateCompetitor(ctx context.Context, profileID string, in leadwatcher.CompetitorInput) (*leadwatcher.Competitor, error)
	UpdateCompetitor(ctx context.Context, id string, in leadwatcher.CompetitorInput) (*leadwatcher.Competitor, error)
	DeleteCompetitor(ctx context.Context, id string) error
	ApproveCompetitor(ctx context.Context, id string) (*leadwatcher.Competitor, error)
	RejectCompetitor(ctx context.Context, id, reason string) (*leadwatcher.Competitor, error)
	ApproveAllCompetitors(ctx context.Context, profileID string) (*leadwatcher.BulkResult, error)
	RejectAllCompetitors(ctx context.Context, profileID, reason string) (*leadwatcher.BulkResult, error)
	InferCompetitors(ctx context.Context, profileID string) (*leadwatcher.InferenceJob, error)
	GetInferenceJob(ctx context.Context, jobID string) (*leadwatcher.InferenceJob, error)
	LinkCompetitor(ctx context.Context, id string, target leadwatcher.LinkTarget) (*leadwatcher.Competitor, error)
}

// Options tunes the AI suggestion wait.
type Options struct {
	SuggestInterval    time.Duration // default 5s
	SuggestMaxAttempts int           // default 12
}

func (o Options) withDefaults() Options {
	if o.SuggestInterval <= 0 {
		o.SuggestInterval = 5 * time.Second
	}
	if o.SuggestMaxAttempts <= 0 {
		o.SuggestMaxAttempts = 12
	}
	return o
}

// Manager holds the competitor list of one profile.
type Manager struct {
	api       API
	profileID string
	opts      Options
	gen       listing.Generation

	// OnChange fires after every successful reload.
	OnChange func(leadwatcher.CompetitorList)

	mu         sync.Mutex
	list       leadwatcher.CompetitorList
	loading    bool
	errMsg     string
	suggesting bool
}

// NewManager returns a manager for profileID.
func NewManager(api API, profileID string, opts Options) *Manager {
	return &Manager{api: api, profileID: profileID, opts: opts.withDefaults()}
}

// List returns the last loaded list.
func (m *Manager) List() leadwatcher.CompetitorList {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list
}

// Pending returns the server's pending group.
func (m *Manager) Pending() []leadwatcher.Competitor { return m.List().Grouped.Pending }

// Approved returns the server's approved group.
func (m *Manager) Approved() []leadwatcher.Competitor { return m.List().Grouped.Approved }

// Error returns the last displayable error, if any.
func (m *Manager) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Loading reports whether a reload is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Suggesting reports whether an AI suggestion is being awaited.
func (m *Manager) Suggesting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suggesting
}

func (m *Manager) setError(err error, fallback string) error {
	m.mu.Lock()
	m.errMsg = rest.ErrorMessage(err, fallback)
	m.mu.Unlock()
	return err
}

// Load fetches the list, replacing local state with the server's flat list
// and grouping. Superseded loads are dropped.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	list, err := listing.Fetch(ctx, &m.gen, func(ctx context.Context) (*leadwatcher.CompetitorList, error) {
		return m.api.ListCompetitors(ctx, m.profileID)
	})
	if listing.IsStale(err) {
		return nil
	}

	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	if err != nil {
		return m.setError(eris.Wrap(err, "competitor: load"), "Failed to load competitors")
	}

	m.mu.Lock()
	m.list = *list
	m.errMsg = ""
	m.mu.Unlock()

	if m.OnChange != nil {
		m.OnChange(*list)
	}
	return nil
}

// mutate runs op and reloads whatever the outcome.
func (m *Manager) mutate(ctx context.Context, op, fallback string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		if rerr := m.Load(ctx); rerr != nil {
			zap.L().Warn("competitor: reload after failure", zap.String("op", op), zap.Error(rerr))
		}
		return m.setError(eris.Wrap(err, "competitor: "+op), fallback)
	}
	return m.Load(ctx)
}

// Approve marks a competitor approved.
func (m *Manager) Approve(ctx context.Context, id string) error {
	return m.mutate(ctx, "approve", "Failed to approve competitor", func(ctx context.Context) error {
		_, err := m.api.ApproveCompetitor(ctx, id)
		return err
	})
}

// Reject marks a competitor rejected with an optional reason.
func (m *Manager) Reject(ctx context.Context, id, reason string) error {
	return m.mutate(ctx, "reject", "Failed to reject competitor", func(ctx context.Context) error {
		_, err := m.api.RejectCompetitor(ctx, id, strings.TrimSpace(reason))
		return err
	})
}

// ApproveAllPending approves every pending competitor of the profile.
func (m *Manager) ApproveAllPending(ctx context.Context) (int, error) {
	var updated int
	err := m.mutate(ctx, "approve all", "Failed to approve competitors", func(ctx context.Context) error {
		res, err := m.api.ApproveAllCompetitors(ctx, m.profileID)
		if err != nil {
			return err
		}
		updated = res.Updated
		return nil
	})
	return updated, err
}

// RejectAllPending rejects every pending competitor of the profile.
func (m *Manager) RejectAllPending(ctx context.Context, reason string) (int, error) {
	var updated int
	err := m.mutate(ctx, "reject all", "Failed to reject competitors", func(ctx context.Context) error {
		res, err := m.api.RejectAllCompetitors(ctx, m.profileID, strings.TrimSpace(reason))
		if err != nil {
			return err
		}
		updated = res.Updated
		return nil
	})
	return updated, err
}

func normalizeInput(in leadwatcher.CompetitorInput) (leadwatcher.CompetitorInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Domain = strings.TrimSpace(in.Domain)
	in.LinkedInURL = strings.TrimSpace(in.LinkedInURL)
	if in.Name == "" {
		return in, ErrNameRequired
	}
	return in, nil
}

// Create adds a manual competitor.
func (m *Manager) Create(ctx context.Context, in leadwatcher.CompetitorInput) error {
	in, err := normalizeInput(in)
	if err != nil {
		return m.setError(err, "Name is required")
	}
	return m.mutate(ctx, "create", "Failed to add competitor", func(ctx context.Context) error {
		_, err := m.api.CreateCompetitor(ctx, m.profileID, in)
		return err
	})
}

// Update edits a competitor.
func (m *Manager) Update(ctx context.Context, id string, in leadwatcher.CompetitorInput) error {
	in, err := normalizeInput(in)
	if err != nil {
		return m.setError(err, "Name is required")
	}
	return m.mutate(ctx, "update", "Failed to update competitor", func(ctx context.Context) error {
		_, err := m.api.UpdateCompetitor(ctx, id, in)
		return err
	})
}

// Delete removes a competitor.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.mutate(ctx, "delete", "Failed to delete competitor", func(ctx context.Context) error {
		return m.api.DeleteCompetitor(ctx, id)
	})
}

// Link ties a competitor to an external record.
func (m *Manager) Link(ctx context.Context, id string, target leadwatcher.LinkTarget) error {
	return m.mutate(ctx, "link", "Failed to link competitor", func(ctx context.Context) error {
		_, err := m.api.LinkCompetitor(ctx, id, target)
		return err
	})
}

// SuggestWithAI starts competitor inference. When the server returns a job
// id the job is polled until it finishes or the attempt ceiling is hit;
// otherwise the list is reloaded once after a single interval. Poll errors
// are logged and the list is reloaded regardless.
func (m *Manager) SuggestWithAI(ctx context.Context) (*leadwatcher.InferenceJob, error) {
	job, err := m.api.InferCompetitors(ctx, m.profileID)
	if err != nil {
		return nil, m.setError(eris.Wrap(err, "competitor: suggest"), "Failed to start AI suggestions")
	}

	m.mu.Lock()
	m.suggesting = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.suggesting = false
		m.mu.Unlock()
	}()

	switch {
	case job.Done():
	case job.JobID == "":
		if err := sleep(ctx, m.opts.SuggestInterval); err != nil {
			return job, eris.Wrap(err, "competitor: suggest")
		}
	default:
		job, err = m.waitForJob(ctx, job)
		if err != nil {
			return job, err
		}
	}

	if err := m.Load(ctx); err != nil {
		return job, err
	}
	if job.Status == leadwatcher.JobFailed {
		msg := job.Message
		if msg == "" {
			msg = "AI suggestion failed"
		}
		m.mu.Lock()
		m.errMsg = msg
		m.mu.Unlock()
	}
	return job, nil
}

func (m *Manager) waitForJob(ctx context.Context, job *leadwatcher.InferenceJob) (*leadwatcher.InferenceJob, error) {
	last := job
	for attempt := 1; attempt <= m.opts.SuggestMaxAttempts; attempt++ {
		if err := sleep(ctx, m.opts.SuggestInterval); err != nil {
			return last, eris.Wrap(err, "competitor: suggest")
		}
		next, err := m.api.GetInferenceJob(ctx, job.JobID)
		if err != nil {
			zap.L().Warn("competitor: poll inference job",
				zap.String("job_id", job.JobID), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		last = next
		if next.Done() {
			return next, nil
		}
	}
	zap.L().Warn("competitor: inference job still running",
		zap.String("job_id", job.JobID), zap.Int("attempts", m.opts.SuggestMaxAttempts))
	return last, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
