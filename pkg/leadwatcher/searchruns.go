package leadwatcher

import (
	"context"
	"net/url"
	"time"

	"github.com/sells-group/leadwatcher/internal/icp"
)

// SearchRunStatus is the lifecycle state of a search run.
type SearchRunStatus string

const (
	SearchRunQueued    SearchRunStatus = "queued"
	SearchRunRunning   SearchRunStatus = "running"
	SearchRunCompleted SearchRunStatus = "completed"
	SearchRunFailed    SearchRunStatus = "failed"
)

// SearchRun is one lead-sourcing job against an ICP profile, with its
// funnel counts.
type SearchRun struct {
	ID             string          `json:"id"`
	ICPProfileID   string          `json:"icp_profile_id"`
	ICPProfileName string          `json:"icp_profile_name,omitempty"`
	Status         SearchRunStatus `json:"status"`
	DiscoveryScope string          `json:"discovery_scope,omitempty"`
	Collected      int             `json:"collected"`
	Filtered       int             `json:"filtered"`
	Retained       int             `json:"retained"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}

// CreateSearchRunRequest starts a search run.
type CreateSearchRunRequest struct {
	ICPProfileID   string `json:"icp_profile_id"`
	DiscoveryScope string `json:"discovery_scope,omitempty"`
	TotalResults   int    `json:"total_results,omitempty"`
}

// NarrowingStats aggregates funnel counts across runs.
type NarrowingStats struct {
	Runs          int     `json:"runs"`
	Collected     int     `json:"collected"`
	Filtered      int     `json:"filtered"`
	Retained      int     `json:"retained"`
	RetentionRate float64 `json:"retention_rate"`
}

// ExpansionPreviewRequest asks how a definition would be broadened.
type ExpansionPreviewRequest struct {
	ICPProfileID string          `json:"icp_profile_id,omitempty"`
	Definition   *icp.Definition `json:"definition,omitempty"`
}

// ExpansionPreview is the server's proposed broadened definition.
type ExpansionPreview struct {
	Original         icp.Definition `json:"original"`
	Expanded         icp.Definition `json:"expanded"`
	EstimatedResults int            `json:"estimated_results"`
	Notes            []string       `json:"notes,omitempty"`
}

// ListSearchRuns returns a page of search runs.
func (c *Client) ListSearchRuns(ctx context.Context, q url.Values) (*Page[SearchRun], error) {
	return getPage[SearchRun](ctx, c, "list search runs", "/search-runs", q)
}

// GetSearchRun returns one search run.
func (c *Client) GetSearchRun(ctx context.Context, id string) (*SearchRun, error) {
	return getData[SearchRun](ctx, c, "get search run "+id, "/search-runs/"+escape(id), nil)
}

// CreateSearchRun queues a new search run.
func (c *Client) CreateSearchRun(ctx context.Context, req CreateSearchRunRequest) (*SearchRun, error) {
	return postData[SearchRun](ctx, c, "create search run", "/search-runs", req)
}

// NarrowingStats returns aggregated funnel counts for runs matching q.
func (c *Client) NarrowingStats(ctx context.Context, q url.Values) (*NarrowingStats, error) {
	return getData[NarrowingStats](ctx, c, "narrowing stats", "/search-runs/narrowing-stats", q)
}

// PreviewExpansion returns how the server would expand a definition.
func (c *Client) PreviewExpansion(ctx context.Context, req ExpansionPreviewRequest) (*ExpansionPreview, error) {
	return postData[ExpansionPreview](ctx, c, "preview expansion", "/search-runs/expansion-preview", req)
}
