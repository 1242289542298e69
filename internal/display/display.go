// Package display holds the presentation helpers shared by CLI commands:
// score tiers and badges, signal and status labels, date ranges and a
// tabular writer.
package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sells-group/leadwatcher/internal/icp"
)

// Tier is a lead score band.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCool Tier = "cool"
	TierCold Tier = "cold"
)

// ScoreTier buckets a 0-100 lead score.
func ScoreTier(score float64) Tier {
	switch {
	case score >= 80:
		return TierHot
	case score >= 60:
		return TierWarm
	case score >= 40:
		return TierCool
	default:
		return TierCold
	}
}

// ScoreBadge renders a score with its tier, e.g. "87 hot".
func ScoreBadge(score float64) string {
	return fmt.Sprintf("%.0f %s", score, ScoreTier(score))
}

var signalLabels = map[string]string{
	"job_change":       "Job Change",
	"new_role":         "New Role",
	"promotion":        "Promotion",
	"funding":          "Funding",
	"hiring":           "Hiring",
	"post_engagement":  "Post Engagement",
	"content_posted":   "Posted Content",
	"company_growth":   "Company Growth",
	"tech_adoption":    "Tech Adoption",
	"competitor_usage": "Competitor Usage",
	"website_visit":    "Website Visit",
}

// SignalBadge returns the label for a signal type. Unknown types are
// humanized.
func SignalBadge(signalType string) string {
	if l, ok := signalLabels[signalType]; ok {
		return l
	}
	if signalType == "" {
		return "Signal"
	}
	return icp.Humanize(signalType)
}

// StatusLabel humanizes an enum status such as "likely_to_engage".
func StatusLabel(status string) string {
	if status == "" {
		return "-"
	}
	return icp.Humanize(status)
}

// DateRange returns the inclusive first and last dates covering the last days
// ending at now, formatted as YYYY-MM-DD.
func DateRange(days int, now time.Time) (from, to string) {
	if days < 1 {
		days = 1
	}
	end := now
	start := end.AddDate(0, 0, -(days - 1))
	return start.Format(time.DateOnly), end.Format(time.DateOnly)
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// ShortID returns the first 8 characters of an id for compact display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Timestamp formats t for tables, or "-" when nil.
func Timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// Table is a column-aligned writer with an underlined header row.
type Table struct {
	w *tabwriter.Writer
}

// NewTable writes the header row to out and returns the table.
func NewTable(out io.Writer, headers ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	under := make([]string, len(headers))
	for i, h := range headers {
		under[i] = strings.Repeat("-", len(h))
	}
	t.Row(headers...)
	t.Row(under...)
	return t
}

// Row writes one row.
func (t *Table) Row(cells ...string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

// Flush aligns and writes buffered rows.
func (t *Table) Flush() error {
	return t.w.Flush()
}
