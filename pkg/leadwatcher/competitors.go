package leadwatcher

import (
	"context"
	"time"
)

// CompetitorStatus is the approval state of a competitor.
type CompetitorStatus string

const (
	CompetitorPending  CompetitorStatus = "pending"
	CompetitorApproved CompetitorStatus = "approved"
	CompetitorRejected CompetitorStatus = "rejected"
)

// Competitor is a company competing with the ICP's target, either
// suggested by inference or added by a user.
type Competitor struct {
	ID           string           `json:"id"`
	ICPProfileID string           `json:"icp_profile_id"`
	Name         string           `json:"name"`
	Domain       string           `json:"domain,omitempty"`
	LinkedInURL  string           `json:"linkedin_url,omitempty"`
	Status       CompetitorStatus `json:"status"`
	Source       string           `json:"source,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	LinkedTarget *LinkTarget      `json:"linked_target,omitempty"`
	CreatedAt    *time.Time       `json:"created_at,omitempty"`
}

// CompetitorGroups is the server-side partition by status.
type CompetitorGroups struct {
	Pending  []Competitor `json:"pending"`
	Approved []Competitor `json:"approved"`
	Rejected []Competitor `json:"rejected"`
}

// CompetitorList is the competitors response: a flat list plus groups.
type CompetitorList struct {
	Data    []Competitor     `json:"data"`
	Grouped CompetitorGroups `json:"grouped"`
}

// CompetitorInput creates or edits a competitor.
type CompetitorInput struct {
	Name        string `json:"name"`
	Domain      string `json:"domain,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// LinkTarget ties a competitor to an external record.
type LinkTarget struct {
	Type string `json:"target_type"`
	ID   string `json:"target_id"`
}

// InferenceJob tracks an AI competitor-suggestion job.
type InferenceJob struct {
	JobID     string `json:"job_id,omitempty"`
	Status    string `json:"status"`
	Suggested int    `json:"suggested,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Inference job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Done reports whether the job reached a terminal state.
func (j InferenceJob) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// BulkResult reports how many records a bulk action touched.
type BulkResult struct {
	Updated int `json:"updated"`
}

func profileCompetitorsPath(profileID string) string {
	return "/icp-profiles/" + escape(profileID) + "/competitors"
}

func competitorPath(id string) string { return "/competitors/" + escape(id) }

// ListCompetitors returns a profile's competitors, flat and grouped.
func (c *Client) ListCompetitors(ctx context.Context, profileID string) (*CompetitorList, error) {
	var out CompetitorList
	if err := c.t.Get(ctx, profileCompetitorsPath(profileID), nil, &out); err != nil {
		return nil, wrapOp(err, "list competitors "+profileID)
	}
	return &out, nil
}

// CreateCompetitor adds a competitor by hand; it starts approved.
func (c *Client) CreateCompetitor(ctx context.Context, profileID string, in CompetitorInput) (*Competitor, error) {
	return postData[Competitor](ctx, c, "create competitor", profileCompetitorsPath(profileID), in)
}

// UpdateCompetitor edits a competitor.
func (c *Client) UpdateCompetitor(ctx context.Context, id string, in CompetitorInput) (*Competitor, error) {
	return putData[Competitor](ctx, c, "update competitor "+id, competitorPath(id), in)
}

// DeleteCompetitor removes a competitor.
func (c *Client) DeleteCompetitor(ctx context.Context, id string) error {
	return c.delete(ctx, "delete competitor "+id, competitorPath(id))
}

// ApproveCompetitor confirms a suggested competitor.
func (c *Client) ApproveCompetitor(ctx context.Context, id string) (*Competitor, error) {
	return postData[Competitor](ctx, c, "approve competitor "+id, competitorPath(id)+"/approve", nil)
}

// RejectCompetitor dismisses a suggested competitor.
func (c *Client) RejectCompetitor(ctx context.Context, id, reason string) (*Competitor, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return postData[Competitor](ctx, c, "reject competitor "+id, competitorPath(id)+"/reject", body)
}

// ApproveAllCompetitors approves every pending competitor of a profile.
func (c *Client) ApproveAllCompetitors(ctx context.Context, profileID string) (*BulkResult, error) {
	return postData[BulkResult](ctx, c, "approve all competitors", profileCompetitorsPath(profileID)+"/approve-all", nil)
}

// RejectAllCompetitors rejects every pending competitor of a profile.
func (c *Client) RejectAllCompetitors(ctx context.Context, profileID, reason string) (*BulkResult, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return postData[BulkResult](ctx, c, "reject all competitors", profileCompetitorsPath(profileID)+"/reject-all", body)
}

// InferCompetitors starts an AI suggestion job for a profile.
func (c *Client) InferCompetitors(ctx context.Context, profileID string) (*InferenceJob, error) {
	return postData[InferenceJob](ctx, c, "infer competitors", profileCompetitorsPath(profileID)+"/infer", nil)
}

// GetInferenceJob returns the state of a suggestion job.
func (c *Client) GetInferenceJob(ctx context.Context, jobID string) (*InferenceJob, error) {
	return getData[InferenceJob](ctx, c, "get inference job "+jobID, "/competitor-inference-jobs/"+escape(jobID), nil)
}

// LinkCompetitor ties a competitor to an external target.
func (c *Client) LinkCompetitor(ctx context.Context, id string, target LinkTarget) (*Competitor, error) {
	return postData[Competitor](ctx, c, "link competitor "+id, competitorPath(id)+"/link", target)
}
