package leadwatcher

import (
	"context"
	"net/url"
	"time"
)

// QueueItem is one lead surfaced in a day's review queue.
type QueueItem struct {
	ID         string     `json:"id"`
	LeadID     string     `json:"lead_id"`
	Lead       *Lead      `json:"lead,omitempty"`
	Rank       int        `json:"rank"`
	Reason     string     `json:"reason,omitempty"`
	QueueDate  string     `json:"queue_date"`
	Action     string     `json:"action,omitempty"`
	ActionedAt *time.Time `json:"actioned_at,omitempty"`
}

// Queue is the ranked shortlist for one date.
type Queue struct {
	Date      string      `json:"date"`
	Items     []QueueItem `json:"items"`
	Total     int         `json:"total"`
	Actioned  int         `json:"actioned"`
	Remaining int         `json:"remaining"`
}

// TodayQueue returns today's queue.
func (c *Client) TodayQueue(ctx context.Context) (*Queue, error) {
	return getData[Queue](ctx, c, "today queue", "/queue/today", nil)
}

// QueueHistory returns past queue items.
func (c *Client) QueueHistory(ctx context.Context, q url.Values) (*Page[QueueItem], error) {
	return getPage[QueueItem](ctx, c, "queue history", "/queue/history", q)
}

// MarkQueueItemActioned records the action taken on a queue item.
func (c *Client) MarkQueueItemActioned(ctx context.Context, id, action string) (*QueueItem, error) {
	body := map[string]string{"action": action}
	return postData[QueueItem](ctx, c, "mark queue item "+id, "/queue/"+escape(id)+"/actioned", body)
}

// BuildQueue asks the server to (re)build today's queue.
func (c *Client) BuildQueue(ctx context.Context) (*Queue, error) {
	return postData[Queue](ctx, c, "build queue", "/queue/build", nil)
}
