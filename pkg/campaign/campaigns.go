package campaign

import (
	"context"
	"net/url"
	"time"
)

// Status is the lifecycle state of a campaign.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Campaign is an outreach sequence run against a set of contacts.
type Campaign struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Status        Status     `json:"status"`
	ICPProfileID  string     `json:"icp_profile_id,omitempty"`
	AccountID     string     `json:"linkedin_account_id,omitempty"`
	ContactsCount int        `json:"contacts_count"`
	StepsCount    int        `json:"steps_count"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Input is the writable subset of a campaign.
type Input struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ICPProfileID string `json:"icp_profile_id,omitempty"`
	AccountID    string `json:"linkedin_account_id,omitempty"`
}

// Insights are delivery and reply counts for one campaign.
type Insights struct {
	ContactsTotal int     `json:"contacts_total"`
	Sent          int     `json:"sent"`
	Accepted      int     `json:"accepted"`
	Replied       int     `json:"replied"`
	AcceptRate    float64 `json:"accept_rate"`
	ReplyRate     float64 `json:"reply_rate"`
}

// List returns a page of campaigns.
func (c *Client) List(ctx context.Context, q url.Values) (*Page[Campaign], error) {
	return page[Campaign](ctx, c, "list campaigns", "", q)
}

// Get fetches one campaign.
func (c *Client) Get(ctx context.Context, id string) (*Campaign, error) {
	return get[Campaign](ctx, c, "get campaign", "/"+esc(id), nil)
}

// Create creates a draft campaign.
func (c *Client) Create(ctx context.Context, in Input) (*Campaign, error) {
	return post[Campaign](ctx, c, "create campaign", "", in)
}

// Update replaces the writable fields of a campaign.
func (c *Client) Update(ctx context.Context, id string, in Input) (*Campaign, error) {
	return put[Campaign](ctx, c, "update campaign", "/"+esc(id), in)
}

// Delete removes a campaign.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.del(ctx, "delete campaign", "/"+esc(id))
}

func (c *Client) transition(ctx context.Context, id, action string) (*Campaign, error) {
	return post[Campaign](ctx, c, action+" campaign", "/"+esc(id)+"/"+action, nil)
}

// Start moves a draft campaign to active.
func (c *Client) Start(ctx context.Context, id string) (*Campaign, error) {
	return c.transition(ctx, id, "start")
}

// Pause suspends an active campaign.
func (c *Client) Pause(ctx context.Context, id string) (*Campaign, error) {
	return c.transition(ctx, id, "pause")
}

// Resume reactivates a paused campaign.
func (c *Client) Resume(ctx context.Context, id string) (*Campaign, error) {
	return c.transition(ctx, id, "resume")
}

// Complete ends a campaign.
func (c *Client) Complete(ctx context.Context, id string) (*Campaign, error) {
	return c.transition(ctx, id, "complete")
}

// Insights returns delivery and reply counts.
func (c *Client) Insights(ctx context.Context, id string) (*Insights, error) {
	return get[Insights](ctx, c, "campaign insights", "/"+esc(id)+"/insights", nil)
}
