package screen

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// ErrNameRequired is returned when an agent is saved without a name.
var ErrNameRequired = eris.New("screen: name is required")

// AgentsAPI is what the agents screen needs from the client.
type AgentsAPI interface {
	ListAgents(ctx context.Context, q url.Values) (*leadwatcher.Page[leadwatcher.SignalsAgent], error)
	CreateAgent(ctx context.Context, in leadwatcher.AgentInput) (*leadwatcher.SignalsAgent, error)
	DeleteAgent(ctx context.Context, id string) error
	StartAgent(ctx context.Context, id string) (*leadwatcher.SignalsAgent, error)
	PauseAgent(ctx context.Context, id string) (*leadwatcher.SignalsAgent, error)
}

// Agents lists signals agents and starts or pauses them.
type Agents struct {
	list[leadwatcher.SignalsAgent]
	api AgentsAPI

	// OnCreated fires after an agent is created.
	OnCreated func(leadwatcher.SignalsAgent)
}

// NewAgents returns the agents screen, newest first.
func NewAgents(api AgentsAPI) *Agents {
	return &Agents{
		list: newList("agents", "created_at", func(a leadwatcher.SignalsAgent) string { return a.ID }, api.ListAgents),
		api:  api,
	}
}

// Create validates and creates an agent.
func (s *Agents) Create(ctx context.Context, in leadwatcher.AgentInput) (*leadwatcher.SignalsAgent, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ICPProfileID = strings.TrimSpace(in.ICPProfileID)
	if in.Name == "" {
		return nil, s.setError(ErrNameRequired, "Agent name is required")
	}
	if in.ICPProfileID == "" {
		return nil, s.setError(ErrProfileRequired, "Select an ICP profile")
	}
	agent, err := s.api.CreateAgent(ctx, in)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: create agent"), "Failed to create agent")
	}
	s.prependRow(*agent)
	if s.OnCreated != nil {
		s.OnCreated(*agent)
	}
	return agent, nil
}

// Start activates an agent optimistically.
func (s *Agents) Start(ctx context.Context, id string) error {
	return s.transition(ctx, id, leadwatcher.AgentStatusActive, s.api.StartAgent, "Failed to start agent")
}

// Pause pauses an agent optimistically.
func (s *Agents) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, leadwatcher.AgentStatusPaused, s.api.PauseAgent, "Failed to pause agent")
}

func (s *Agents) transition(ctx context.Context, id string, to leadwatcher.AgentStatus,
	call func(context.Context, string) (*leadwatcher.SignalsAgent, error), fallback string) error {
	prev, ok := s.update(id, func(a *leadwatcher.SignalsAgent) { a.Status = to })
	agent, err := call(ctx, id)
	if err != nil {
		if ok {
			s.update(id, func(a *leadwatcher.SignalsAgent) { a.Status = prev.Status })
		}
		return s.setError(eris.Wrapf(err, "screen: set agent %s %s", id, to), fallback)
	}
	s.replace(*agent)
	return nil
}

// Delete removes an agent.
func (s *Agents) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteAgent(ctx, id); err != nil {
		return s.setError(eris.Wrap(err, "screen: delete agent"), "Failed to delete agent")
	}
	s.remove(id)
	return nil
}
