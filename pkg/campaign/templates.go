package campaign

import (
	"context"
	"net/url"
	"time"
)

// Template is a reusable message body with {{placeholders}}.
type Template struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StepType  StepType   `json:"step_type,omitempty"`
	Body      string     `json:"body"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TemplateInput is the writable subset of a template.
type TemplateInput struct {
	Name     string   `json:"name"`
	StepType StepType `json:"step_type,omitempty"`
	Body     string   `json:"body"`
}

// ScheduledAction is a pending send for one contact.
type ScheduledAction struct {
	ID          string     `json:"id"`
	CampaignID  string     `json:"campaign_id"`
	ContactID   string     `json:"contact_id"`
	StepID      string     `json:"step_id"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Templates lists message templates.
func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	return list[Template](ctx, c, "list templates", "/templates", nil)
}

// CreateTemplate stores a new template.
func (c *Client) CreateTemplate(ctx context.Context, in TemplateInput) (*Template, error) {
	return post[Template](ctx, c, "create template", "/templates", in)
}

// UpdateTemplate replaces a template.
func (c *Client) UpdateTemplate(ctx context.Context, id string, in TemplateInput) (*Template, error) {
	return put[Template](ctx, c, "update template", "/templates/"+esc(id), in)
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.del(ctx, "delete template", "/templates/"+esc(id))
}

// ScheduledActions lists pending sends, optionally filtered by campaign_id
// or status.
func (c *Client) ScheduledActions(ctx context.Context, q url.Values) (*Page[ScheduledAction], error) {
	return page[ScheduledAction](ctx, c, "list scheduled actions", "/scheduled-actions", q)
}

// CancelScheduledAction cancels one pending send.
func (c *Client) CancelScheduledAction(ctx context.Context, id string) (*ScheduledAction, error) {
	return post[ScheduledAction](ctx, c, "cancel scheduled action", "/scheduled-actions/"+esc(id)+"/cancel", nil)
}
