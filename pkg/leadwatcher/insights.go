package leadwatcher

import (
	"context"
	"net/url"
	"strconv"
)

// Metrics are headline counters for the insights dashboard.
type Metrics struct {
	TotalLeads     int     `json:"total_leads"`
	NewLeads       int     `json:"new_leads"`
	QualifiedLeads int     `json:"qualified_leads"`
	ContactedLeads int     `json:"contacted_leads"`
	AvgScore       float64 `json:"avg_score"`
	SignalsFound   int     `json:"signals_found"`
	ActiveAgents   int     `json:"active_agents"`
	ConversionRate float64 `json:"conversion_rate"`
}

// DailyPerformance is one day of discovery and outreach counts.
type DailyPerformance struct {
	Date       string  `json:"date"`
	LeadsFound int     `json:"leads_found"`
	Contacted  int     `json:"contacted"`
	Replied    int     `json:"replied"`
	AvgScore   float64 `json:"avg_score"`
}

// SignalPerformance summarises how well one signal type converts.
type SignalPerformance struct {
	SignalType     string  `json:"signal_type"`
	Count          int     `json:"count"`
	LeadsGenerated int     `json:"leads_generated"`
	ConversionRate float64 `json:"conversion_rate"`
	AvgScore       float64 `json:"avg_score"`
}

// Insights is the combined dashboard payload.
type Insights struct {
	Metrics            Metrics             `json:"metrics"`
	DailyPerformance   []DailyPerformance  `json:"daily_performance"`
	SignalsPerformance []SignalPerformance `json:"signals_performance"`
}

func daysQuery(days int) url.Values {
	if days <= 0 {
		return nil
	}
	return url.Values{"days": {strconv.Itoa(days)}}
}

// Metrics returns headline counters over the last days.
func (c *Client) Metrics(ctx context.Context, days int) (*Metrics, error) {
	return getData[Metrics](ctx, c, "metrics", "/insights/metrics", daysQuery(days))
}

// DailyPerformance returns per-day counts over the last days.
func (c *Client) DailyPerformance(ctx context.Context, days int) ([]DailyPerformance, error) {
	out, err := getData[[]DailyPerformance](ctx, c, "daily performance", "/insights/daily-performance", daysQuery(days))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// SignalsPerformance returns per-signal conversion over the last days.
func (c *Client) SignalsPerformance(ctx context.Context, days int) ([]SignalPerformance, error) {
	out, err := getData[[]SignalPerformance](ctx, c, "signals performance", "/insights/signals-performance", daysQuery(days))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// Insights fetches the whole dashboard in one request.
func (c *Client) Insights(ctx context.Context, days int) (*Insights, error) {
	return getData[Insights](ctx, c, "insights", "/insights", daysQuery(days))
}
