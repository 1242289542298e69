package screen

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/listing"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/campaign"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// LeadDetailAPI is what the lead sidebar needs from the Lead Watcher client.
type LeadDetailAPI interface {
	GetLead(ctx context.Context, id string) (*leadwatcher.Lead, error)
	UpdateLeadStatus(ctx context.Context, id string, status leadwatcher.LeadStatus) (*leadwatcher.Lead, error)
	EnrichLeadEmail(ctx context.Context, id string) (*leadwatcher.Lead, error)
}

// MessageWriter drafts outreach copy. *campaign.Client implements it.
type MessageWriter interface {
	GenerateMessage(ctx context.Context, req campaign.MessageRequest) (*campaign.GeneratedMessage, error)
	ImproveMessage(ctx context.Context, req campaign.ImproveRequest) (*campaign.GeneratedMessage, error)
}

// LeadDetail is the lead sidebar: profile, signals, status and an AI
// message draft.
type LeadDetail struct {
	api    LeadDetailAPI
	writer MessageWriter
	gen    listing.Generation

	mu     sync.Mutex
	lead   *leadwatcher.Lead
	draft  string
	errMsg string
}

// NewLeadDetail returns a sidebar. writer may be nil when drafting is not
// available.
func NewLeadDetail(api LeadDetailAPI, writer MessageWriter) *LeadDetail {
	return &LeadDetail{api: api, writer: writer}
}

// Lead returns a copy of the loaded lead, or nil.
func (s *LeadDetail) Lead() *leadwatcher.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lead == nil {
		return nil
	}
	l := *s.lead
	return &l
}

// Draft returns the current message draft.
func (s *LeadDetail) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Error returns the last displayable error.
func (s *LeadDetail) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *LeadDetail) fail(err error, fallback, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = rest.ErrorMessage(err, fallback)
	return eris.Wrap(err, "screen: "+op)
}

// Load fetches a lead. Switching leads quickly drops the older response.
func (s *LeadDetail) Load(ctx context.Context, id string) error {
	lead, err := listing.Fetch(ctx, &s.gen, func(ctx context.Context) (*leadwatcher.Lead, error) {
		return s.api.GetLead(ctx, id)
	})
	if listing.IsStale(err) {
		return nil
	}
	if err != nil {
		return s.fail(err, "Failed to load lead", "load lead")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lead == nil || s.lead.ID != lead.ID {
		s.draft = ""
	}
	s.lead = lead
	s.errMsg = ""
	return nil
}

// SetStatus changes the lead's status optimistically, restoring it if the
// request fails.
func (s *LeadDetail) SetStatus(ctx context.Context, status leadwatcher.LeadStatus) error {
	if !status.Valid() {
		return eris.Errorf("screen: unknown lead status %q", status)
	}
	s.mu.Lock()
	if s.lead == nil {
		s.mu.Unlock()
		return eris.New("screen: no lead loaded")
	}
	id, prev := s.lead.ID, s.lead.Status
	s.lead.Status = status
	s.mu.Unlock()

	lead, err := s.api.UpdateLeadStatus(ctx, id, status)
	if err != nil {
		s.mu.Lock()
		if s.lead != nil && s.lead.ID == id {
			s.lead.Status = prev
		}
		s.mu.Unlock()
		return s.fail(err, "Failed to update lead", "update lead status")
	}
	s.mu.Lock()
	if s.lead != nil && s.lead.ID == id {
		s.lead = lead
	}
	s.mu.Unlock()
	return nil
}

// EnrichEmail asks the server to find the lead's email and merges the
// result.
func (s *LeadDetail) EnrichEmail(ctx context.Context) error {
	lead := s.Lead()
	if lead == nil {
		return eris.New("screen: no lead loaded")
	}
	updated, err := s.api.EnrichLeadEmail(ctx, lead.ID)
	if err != nil {
		return s.fail(err, "Failed to find email", "enrich email")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lead != nil && s.lead.ID == updated.ID {
		s.lead = updated
	}
	return nil
}

// DraftMessage asks the AI for a first-touch message for the loaded lead.
func (s *LeadDetail) DraftMessage(ctx context.Context, tone string) (string, error) {
	lead := s.Lead()
	if lead == nil {
		return "", eris.New("screen: no lead loaded")
	}
	if s.writer == nil {
		return "", eris.New("screen: message drafting is not configured")
	}
	msg, err := s.writer.GenerateMessage(ctx, campaign.MessageRequest{
		LeadID:   lead.ID,
		StepType: campaign.StepConnect,
		Tone:     tone,
		Context:  signalContext(lead.Signals),
	})
	if err != nil {
		return "", s.fail(err, "Failed to draft message", "draft message")
	}
	s.mu.Lock()
	s.draft = msg.Message
	s.mu.Unlock()
	return msg.Message, nil
}

// ImproveDraft rewrites the current draft per instruction.
func (s *LeadDetail) ImproveDraft(ctx context.Context, instruction string) (string, error) {
	lead := s.Lead()
	draft := s.Draft()
	if lead == nil || draft == "" {
		return "", eris.New("screen: nothing to improve")
	}
	if s.writer == nil {
		return "", eris.New("screen: message drafting is not configured")
	}
	msg, err := s.writer.ImproveMessage(ctx, campaign.ImproveRequest{
		Message:     draft,
		Instruction: instruction,
		LeadID:      lead.ID,
	})
	if err != nil {
		return "", s.fail(err, "Failed to improve message", "improve message")
	}
	s.mu.Lock()
	s.draft = msg.Message
	s.mu.Unlock()
	return msg.Message, nil
}

// signalContext lists the lead's most recent signal titles for the prompt.
func signalContext(signals []leadwatcher.Signal) string {
	const maxSignals = 3
	var out string
	for i, sig := range signals {
		if i == maxSignals {
			break
		}
		if out != "" {
			out += "; "
		}
		out += sig.Title
	}
	return out
}
