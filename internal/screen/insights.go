package screen

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadwatcher/internal/listing"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// DefaultInsightsDays is the dashboard's default window.
const DefaultInsightsDays = 30

// InsightsAPI is what the dashboard needs from the client.
type InsightsAPI interface {
	Metrics(ctx context.Context, days int) (*leadwatcher.Metrics, error)
	DailyPerformance(ctx context.Context, days int) ([]leadwatcher.DailyPerformance, error)
	SignalsPerformance(ctx context.Context, days int) ([]leadwatcher.SignalPerformance, error)
	Insights(ctx context.Context, days int) (*leadwatcher.Insights, error)
}

// Insights is the lead dashboard.
type Insights struct {
	api InsightsAPI
	gen listing.Generation

	mu     sync.Mutex
	days   int
	data   leadwatcher.Insights
	errMsg string
}

// NewInsights returns the dashboard over the default window.
func NewInsights(api InsightsAPI) *Insights {
	return &Insights{api: api, days: DefaultInsightsDays}
}

// Data returns the loaded dashboard.
func (s *Insights) Data() leadwatcher.Insights {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Days returns the window of the last load.
func (s *Insights) Days() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days
}

// Error returns the last displayable error.
func (s *Insights) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Load fetches metrics, daily performance and signal performance in
// parallel. Any failure cancels the others and leaves the previous data.
func (s *Insights) Load(ctx context.Context, days int) error {
	data, err := listing.Fetch(ctx, &s.gen, func(ctx context.Context) (leadwatcher.Insights, error) {
		var out leadwatcher.Insights
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			m, err := s.api.Metrics(gctx, days)
			if err != nil {
				return eris.Wrap(err, "metrics")
			}
			out.Metrics = *m
			return nil
		})
		g.Go(func() error {
			d, err := s.api.DailyPerformance(gctx, days)
			if err != nil {
				return eris.Wrap(err, "daily performance")
			}
			out.DailyPerformance = d
			return nil
		})
		g.Go(func() error {
			sp, err := s.api.SignalsPerformance(gctx, days)
			if err != nil {
				return eris.Wrap(err, "signals performance")
			}
			out.SignalsPerformance = sp
			return nil
		})
		return out, g.Wait()
	})
	return s.apply(days, data, err)
}

// LoadCombined fetches the dashboard through the single combined endpoint.
func (s *Insights) LoadCombined(ctx context.Context, days int) error {
	data, err := listing.Fetch(ctx, &s.gen, func(ctx context.Context) (leadwatcher.Insights, error) {
		in, err := s.api.Insights(ctx, days)
		if err != nil {
			return leadwatcher.Insights{}, err
		}
		return *in, nil
	})
	return s.apply(days, data, err)
}

func (s *Insights) apply(days int, data leadwatcher.Insights, err error) error {
	if listing.IsStale(err) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = rest.ErrorMessage(err, "Failed to load insights")
		return eris.Wrap(err, "screen: load insights")
	}
	s.days = days
	s.data = data
	s.errMsg = ""
	return nil
}
