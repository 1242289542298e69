package screen

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// ErrProfileRequired is returned when a run or agent has no ICP profile.
var ErrProfileRequired = eris.New("screen: icp profile is required")

// SearchRunsAPI is what the search runs screen needs from the client.
type SearchRunsAPI interface {
	ListSearchRuns(ctx context.Context, q url.Values) (*leadwatcher.Page[leadwatcher.SearchRun], error)
	CreateSearchRun(ctx context.Context, req leadwatcher.CreateSearchRunRequest) (*leadwatcher.SearchRun, error)
	NarrowingStats(ctx context.Context, q url.Values) (*leadwatcher.NarrowingStats, error)
}

// SearchRuns lists lead-sourcing runs and starts new ones.
type SearchRuns struct {
	list[leadwatcher.SearchRun]
	api SearchRunsAPI
}

// NewSearchRuns returns the runs screen, newest first.
func NewSearchRuns(api SearchRunsAPI) *SearchRuns {
	return &SearchRuns{
		list: newList("search runs", "created_at", func(r leadwatcher.SearchRun) string { return r.ID }, api.ListSearchRuns),
		api:  api,
	}
}

// Create starts a run and puts it at the top of the list.
func (s *SearchRuns) Create(ctx context.Context, req leadwatcher.CreateSearchRunRequest) (*leadwatcher.SearchRun, error) {
	req.ICPProfileID = strings.TrimSpace(req.ICPProfileID)
	if req.ICPProfileID == "" {
		return nil, s.setError(ErrProfileRequired, "Select an ICP profile")
	}
	run, err := s.api.CreateSearchRun(ctx, req)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: create search run"), "Failed to start search run")
	}
	s.prependRow(*run)
	return run, nil
}

// Stats returns funnel totals under the current filters.
func (s *SearchRuns) Stats(ctx context.Context) (*leadwatcher.NarrowingStats, error) {
	stats, err := s.api.NarrowingStats(ctx, s.Query().FilterValues())
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: narrowing stats"), "Failed to load stats")
	}
	return stats, nil
}
