package campaign

import (
	"context"
	"net/url"
	"time"
)

// StepType is the kind of action a sequence step performs.
type StepType string

const (
	StepConnect     StepType = "connection_request"
	StepMessage     StepType = "message"
	StepFollowUp    StepType = "follow_up"
	StepProfileView StepType = "profile_view"
)

// Step is one action in a campaign sequence.
type Step struct {
	ID         string   `json:"id"`
	CampaignID string   `json:"campaign_id"`
	Position   int      `json:"position"`
	Type       StepType `json:"type"`
	DelayDays  int      `json:"delay_days"`
	Message    string   `json:"message,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
}

// StepInput is the writable subset of a step.
type StepInput struct {
	Type       StepType `json:"type"`
	DelayDays  int      `json:"delay_days"`
	Message    string   `json:"message,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
}

// Contact is a lead enrolled in a campaign.
type Contact struct {
	ID          string     `json:"id"`
	CampaignID  string     `json:"campaign_id"`
	LeadID      string     `json:"lead_id"`
	FullName    string     `json:"full_name,omitempty"`
	Status      string     `json:"status"`
	CurrentStep int        `json:"current_step"`
	AddedAt     *time.Time `json:"added_at,omitempty"`
}

// AddContactsResult reports how many leads were enrolled.
type AddContactsResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

func stepsPath(campaignID string) string { return "/" + esc(campaignID) + "/steps" }

// Steps lists the steps of a campaign in sequence order.
func (c *Client) Steps(ctx context.Context, campaignID string) ([]Step, error) {
	return list[Step](ctx, c, "list steps", stepsPath(campaignID), nil)
}

// CreateStep appends a step to the sequence.
func (c *Client) CreateStep(ctx context.Context, campaignID string, in StepInput) (*Step, error) {
	return post[Step](ctx, c, "create step", stepsPath(campaignID), in)
}

// UpdateStep replaces the writable fields of a step.
func (c *Client) UpdateStep(ctx context.Context, campaignID, stepID string, in StepInput) (*Step, error) {
	return put[Step](ctx, c, "update step", stepsPath(campaignID)+"/"+esc(stepID), in)
}

// DeleteStep removes a step.
func (c *Client) DeleteStep(ctx context.Context, campaignID, stepID string) error {
	return c.del(ctx, "delete step", stepsPath(campaignID)+"/"+esc(stepID))
}

// ReorderSteps sets the sequence order to stepIDs and returns the
// renumbered steps.
func (c *Client) ReorderSteps(ctx context.Context, campaignID string, stepIDs []string) ([]Step, error) {
	out, err := put[[]Step](ctx, c, "reorder steps", stepsPath(campaignID)+"/reorder",
		map[string][]string{"step_ids": stepIDs})
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func contactsPath(campaignID string) string { return "/" + esc(campaignID) + "/contacts" }

// Contacts returns a page of enrolled contacts.
func (c *Client) Contacts(ctx context.Context, campaignID string, q url.Values) (*Page[Contact], error) {
	return page[Contact](ctx, c, "list contacts", contactsPath(campaignID), q)
}

// AddContacts enrolls leads into a campaign.
func (c *Client) AddContacts(ctx context.Context, campaignID string, leadIDs []string) (*AddContactsResult, error) {
	return post[AddContactsResult](ctx, c, "add contacts", contactsPath(campaignID),
		map[string][]string{"lead_ids": leadIDs})
}

// RemoveContact unenrolls one contact.
func (c *Client) RemoveContact(ctx context.Context, campaignID, contactID string) error {
	return c.del(ctx, "remove contact", contactsPath(campaignID)+"/"+esc(contactID))
}
