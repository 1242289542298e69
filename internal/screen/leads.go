package screen

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/export"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// Lead filter keys.
const (
	FilterStatus         = "status"
	FilterProfile        = "icp_profile_id"
	FilterMinScore       = "min_score"
	FilterDiscoveryScope = "discovery_scope"
	FilterSearch         = "q"
)

// LeadsAPI is what the leads screen needs from the client.
type LeadsAPI interface {
	ListLeads(ctx context.Context, q url.Values) (*leadwatcher.Page[leadwatcher.Lead], error)
	UpdateLeadStatus(ctx context.Context, id string, status leadwatcher.LeadStatus) (*leadwatcher.Lead, error)
	BulkUpdateLeadStatus(ctx context.Context, ids []string, status leadwatcher.LeadStatus) (*leadwatcher.BulkStatusResult, error)
	ExportLeads(ctx context.Context, q url.Values) (io.ReadCloser, error)
}

// Leads is the lead list with filters, selection, bulk status and export.
type Leads struct {
	list[leadwatcher.Lead]
	api LeadsAPI
}

// NewLeads returns the leads screen sorted by score, highest first.
func NewLeads(api LeadsAPI) *Leads {
	return &Leads{
		list: newList("leads", "score", func(l leadwatcher.Lead) string { return l.ID }, api.ListLeads),
		api:  api,
	}
}

// SetStatus changes one lead's status optimistically; the previous status
// is restored if the request fails.
func (s *Leads) SetStatus(ctx context.Context, id string, status leadwatcher.LeadStatus) error {
	if !status.Valid() {
		return eris.Errorf("screen: unknown lead status %q", status)
	}
	prev, ok := s.update(id, func(l *leadwatcher.Lead) { l.Status = status })
	lead, err := s.api.UpdateLeadStatus(ctx, id, status)
	if err != nil {
		if ok {
			s.update(id, func(l *leadwatcher.Lead) { l.Status = prev.Status })
		}
		return s.setError(eris.Wrap(err, "screen: update lead status"), "Failed to update lead")
	}
	s.replace(*lead)
	return nil
}

// BulkUpdateStatus sets status on every selected lead in one request. On
// success the status is mirrored onto the loaded rows and the selection is
// cleared; on failure nothing changes locally.
func (s *Leads) BulkUpdateStatus(ctx context.Context, status leadwatcher.LeadStatus) (int, error) {
	if !status.Valid() {
		return 0, eris.Errorf("screen: unknown lead status %q", status)
	}
	ids := s.Selected()
	if len(ids) == 0 {
		return 0, ErrNothingSelected
	}

	res, err := s.api.BulkUpdateLeadStatus(ctx, ids, status)
	if err != nil {
		return 0, s.setError(eris.Wrap(err, "screen: bulk update leads"), "Failed to update leads")
	}

	s.mu.Lock()
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	for i := range s.rows {
		if selected[s.rows[i].ID] {
			s.rows[i].Status = status
		}
	}
	s.sel.Clear()
	s.errMsg = ""
	s.mu.Unlock()

	zap.L().Debug("screen: bulk lead status", zap.Int("requested", len(ids)), zap.Int("updated", res.Updated))
	return res.Updated, nil
}

// Export downloads the leads matching the current filters (ignoring
// pagination) and writes them to dest.
func (s *Leads) Export(ctx context.Context, dest string, format export.Format) (int64, error) {
	q := s.Query().FilterValues()
	body, err := s.api.ExportLeads(ctx, q)
	if err != nil {
		return 0, s.setError(eris.Wrap(err, "screen: export leads"), "Failed to export leads")
	}
	defer body.Close() //nolint:errcheck

	n, err := export.Save(ctx, body, dest, format)
	if err != nil {
		return 0, s.setError(err, "Failed to save export")
	}
	return n, nil
}
