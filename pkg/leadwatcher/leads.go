package leadwatcher

import (
	"context"
	"io"
	"net/url"
	"time"
)

// LeadStatus is the review state of a lead.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusReviewing    LeadStatus = "reviewing"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusDisqualified LeadStatus = "disqualified"
	LeadStatusArchived     LeadStatus = "archived"
)

// LeadStatuses lists every lead status.
var LeadStatuses = []LeadStatus{
	LeadStatusNew, LeadStatusReviewing, LeadStatusContacted,
	LeadStatusQualified, LeadStatusDisqualified, LeadStatusArchived,
}

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Signal is a detected buying-intent event attached to a lead.
type Signal struct {
	ID         string     `json:"id,omitempty"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Detail     string     `json:"detail,omitempty"`
	Strength   float64    `json:"strength,omitempty"`
	SourceURL  string     `json:"source_url,omitempty"`
	DetectedAt *time.Time `json:"detected_at,omitempty"`
}

// Lead is a discovered person scored against an ICP profile.
type Lead struct {
	ID             string     `json:"id"`
	FullName       string     `json:"full_name"`
	Title          string     `json:"title,omitempty"`
	CompanyName    string     `json:"company_name,omitempty"`
	CompanyDomain  string     `json:"company_domain,omitempty"`
	LinkedInURL    string     `json:"linkedin_url,omitempty"`
	Email          string     `json:"email,omitempty"`
	EmailStatus    string     `json:"email_status,omitempty"`
	Location       string     `json:"location,omitempty"`
	Score          float64    `json:"score"`
	Status         LeadStatus `json:"status"`
	ICPProfileID   string     `json:"icp_profile_id,omitempty"`
	DiscoveryScope string     `json:"discovery_scope,omitempty"`
	Signals        []Signal   `json:"signals,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// BulkStatusRequest updates many leads to one status.
type BulkStatusRequest struct {
	LeadIDs []string   `json:"lead_ids"`
	Status  LeadStatus `json:"status"`
}

// BulkStatusResult reports how many leads were updated.
type BulkStatusResult struct {
	Updated int `json:"updated"`
}

// ListLeads returns a page of leads. q carries filters (status,
// icp_profile_id, min_score, discovery_scope, q), paging and sorting.
func (c *Client) ListLeads(ctx context.Context, q url.Values) (*Page[Lead], error) {
	return getPage[Lead](ctx, c, "list leads", "/leads", q)
}

// GetLead returns one lead with its signals.
func (c *Client) GetLead(ctx context.Context, id string) (*Lead, error) {
	return getData[Lead](ctx, c, "get lead "+id, "/leads/"+escape(id), nil)
}

// UpdateLeadStatus sets a single lead's status.
func (c *Client) UpdateLeadStatus(ctx context.Context, id string, status LeadStatus) (*Lead, error) {
	body := map[string]LeadStatus{"status": status}
	return patchData[Lead](ctx, c, "update lead status "+id, "/leads/"+escape(id)+"/status", body)
}

// BulkUpdateLeadStatus applies one status to every id in a single request.
func (c *Client) BulkUpdateLeadStatus(ctx context.Context, ids []string, status LeadStatus) (*BulkStatusResult, error) {
	req := BulkStatusRequest{LeadIDs: ids, Status: status}
	return postData[BulkStatusResult](ctx, c, "bulk update lead status", "/leads/bulk-status", req)
}

// EnrichLeadEmail asks the server to look up the lead's email.
func (c *Client) EnrichLeadEmail(ctx context.Context, id string) (*Lead, error) {
	return postData[Lead](ctx, c, "enrich lead email "+id, "/leads/"+escape(id)+"/enrich-email", nil)
}

// ExportLeads streams a CSV of the leads matching q. The caller closes the
// reader.
func (c *Client) ExportLeads(ctx context.Context, q url.Values) (io.ReadCloser, error) {
	return c.download(ctx, "export leads", "/leads/export", q)
}
