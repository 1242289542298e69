package leadwatcher

import (
	"context"
	"net/url"
	"time"
)

// AgentStatus is the run state of a signals agent.
type AgentStatus string

const (
	AgentStatusDraft  AgentStatus = "draft"
	AgentStatusActive AgentStatus = "active"
	AgentStatusPaused AgentStatus = "paused"
	AgentStatusError  AgentStatus = "error"
)

// SignalsConfig selects which signals an agent watches for.
type SignalsConfig struct {
	JobChanges      bool     `json:"job_changes"`
	Funding         bool     `json:"funding"`
	Hiring          bool     `json:"hiring"`
	PostEngagement  bool     `json:"post_engagement"`
	CompetitorMoves bool     `json:"competitor_moves"`
	Keywords        []string `json:"keywords"`
	MinStrength     float64  `json:"min_strength"`
}

// SignalsAgent periodically scans for signals matching an ICP profile.
type SignalsAgent struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ICPProfileID  string         `json:"icp_profile_id"`
	Status        AgentStatus    `json:"status"`
	Schedule      string         `json:"schedule,omitempty"`
	LeadsFound    int            `json:"leads_found"`
	SignalsConfig *SignalsConfig `json:"signals_config,omitempty"`
	LastRunAt     *time.Time     `json:"last_run_at,omitempty"`
	CreatedAt     *time.Time     `json:"created_at,omitempty"`
}

// AgentInput creates or updates an agent.
type AgentInput struct {
	Name         string `json:"name"`
	ICPProfileID string `json:"icp_profile_id"`
	Schedule     string `json:"schedule,omitempty"`
}

// ListAgents returns a page of signals agents.
func (c *Client) ListAgents(ctx context.Context, q url.Values) (*Page[SignalsAgent], error) {
	return getPage[SignalsAgent](ctx, c, "list agents", "/signals-agents", q)
}

// GetAgent returns one agent.
func (c *Client) GetAgent(ctx context.Context, id string) (*SignalsAgent, error) {
	return getData[SignalsAgent](ctx, c, "get agent "+id, "/signals-agents/"+escape(id), nil)
}

// CreateAgent creates an agent.
func (c *Client) CreateAgent(ctx context.Context, in AgentInput) (*SignalsAgent, error) {
	return postData[SignalsAgent](ctx, c, "create agent", "/signals-agents", in)
}

// UpdateAgent updates an agent.
func (c *Client) UpdateAgent(ctx context.Context, id string, in AgentInput) (*SignalsAgent, error) {
	return putData[SignalsAgent](ctx, c, "update agent "+id, "/signals-agents/"+escape(id), in)
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	return c.delete(ctx, "delete agent "+id, "/signals-agents/"+escape(id))
}

// StartAgent activates an agent.
func (c *Client) StartAgent(ctx context.Context, id string) (*SignalsAgent, error) {
	return postData[SignalsAgent](ctx, c, "start agent "+id, "/signals-agents/"+escape(id)+"/start", nil)
}

// PauseAgent pauses an agent.
func (c *Client) PauseAgent(ctx context.Context, id string) (*SignalsAgent, error) {
	return postData[SignalsAgent](ctx, c, "pause agent "+id, "/signals-agents/"+escape(id)+"/pause", nil)
}

// GetSignalsConfig returns an agent's signal selection.
func (c *Client) GetSignalsConfig(ctx context.Context, id string) (*SignalsConfig, error) {
	return getData[SignalsConfig](ctx, c, "get signals config "+id, "/signals-agents/"+escape(id)+"/signals-config", nil)
}

// SetSignalsConfig replaces an agent's signal selection.
func (c *Client) SetSignalsConfig(ctx context.Context, id string, cfg SignalsConfig) (*SignalsConfig, error) {
	return putData[SignalsConfig](ctx, c, "set signals config "+id, "/signals-agents/"+escape(id)+"/signals-config", cfg)
}
