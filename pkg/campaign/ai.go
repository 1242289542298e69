package campaign

import "context"

// MessageRequest asks the AI for outreach copy aimed at one lead.
type MessageRequest struct {
	LeadID     string   `json:"lead_id,omitempty"`
	CampaignID string   `json:"campaign_id,omitempty"`
	StepType   StepType `json:"step_type,omitempty"`
	Tone       string   `json:"tone,omitempty"`
	Context    string   `json:"context,omitempty"`
	MaxChars   int      `json:"max_chars,omitempty"`
}

// GeneratedMessage is AI-written outreach copy.
type GeneratedMessage struct {
	Message   string `json:"message"`
	Subject   string `json:"subject,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// VariationsRequest asks for alternatives to an existing message.
type VariationsRequest struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	Tone    string `json:"tone,omitempty"`
}

// ImproveRequest asks the AI to rewrite a message per an instruction.
type ImproveRequest struct {
	Message     string `json:"message"`
	Instruction string `json:"instruction,omitempty"`
	LeadID      string `json:"lead_id,omitempty"`
}

// GenerateMessage writes a new message.
func (c *Client) GenerateMessage(ctx context.Context, req MessageRequest) (*GeneratedMessage, error) {
	return post[GeneratedMessage](ctx, c, "generate message", "/ai/generate-message", req)
}

// GenerateVariations returns alternatives to req.Message.
func (c *Client) GenerateVariations(ctx context.Context, req VariationsRequest) ([]GeneratedMessage, error) {
	out, err := post[[]GeneratedMessage](ctx, c, "generate variations", "/ai/generate-variations", req)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// ImproveMessage rewrites req.Message.
func (c *Client) ImproveMessage(ctx context.Context, req ImproveRequest) (*GeneratedMessage, error) {
	return post[GeneratedMessage](ctx, c, "improve message", "/ai/improve-message", req)
}
