package screen

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// QueueAPI is what the queue screen needs from the client.
type QueueAPI interface {
	TodayQueue(ctx context.Context) (*leadwatcher.Queue, error)
	QueueHistory(ctx context.Context, q url.Values) (*leadwatcher.Page[leadwatcher.QueueItem], error)
	MarkQueueItemActioned(ctx context.Context, id, action string) (*leadwatcher.QueueItem, error)
	BuildQueue(ctx context.Context) (*leadwatcher.Queue, error)
}

// Queue is today's review shortlist plus its history.
type Queue struct {
	api QueueAPI

	// History pages through past queue items.
	History *QueueHistory

	mu     sync.Mutex
	today  leadwatcher.Queue
	errMsg string
}

// QueueHistory is the paginated list of past queue items.
type QueueHistory struct {
	list[leadwatcher.QueueItem]
}

// NewQueue returns the queue screen.
func NewQueue(api QueueAPI) *Queue {
	return &Queue{
		api: api,
		History: &QueueHistory{
			list: newList("queue history", "queue_date", func(i leadwatcher.QueueItem) string { return i.ID }, api.QueueHistory),
		},
	}
}

// Today returns the loaded queue.
func (s *Queue) Today() leadwatcher.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.today
	q.Items = append([]leadwatcher.QueueItem{}, s.today.Items...)
	return q
}

// Error returns the last displayable error.
func (s *Queue) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Queue) set(q *leadwatcher.Queue, err error, fallback, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = rest.ErrorMessage(err, fallback)
		return eris.Wrap(err, "screen: "+op)
	}
	s.today = *q
	s.errMsg = ""
	return nil
}

// LoadToday fetches today's queue.
func (s *Queue) LoadToday(ctx context.Context) error {
	q, err := s.api.TodayQueue(ctx)
	return s.set(q, err, "Failed to load queue", "load queue")
}

// Build asks the server to rebuild today's queue and shows the result.
func (s *Queue) Build(ctx context.Context) error {
	q, err := s.api.BuildQueue(ctx)
	return s.set(q, err, "Failed to build queue", "build queue")
}

// MarkActioned records action on an item and drops it from today's list.
func (s *Queue) MarkActioned(ctx context.Context, id, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return eris.New("screen: action is required")
	}
	if _, err := s.api.MarkQueueItemActioned(ctx, id, action); err != nil {
		s.mu.Lock()
		s.errMsg = rest.ErrorMessage(err, "Failed to update queue item")
		s.mu.Unlock()
		return eris.Wrap(err, "screen: mark queue item")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.today.Items {
		if item.ID == id {
			s.today.Items = append(s.today.Items[:i], s.today.Items[i+1:]...)
			s.today.Actioned++
			if s.today.Remaining > 0 {
				s.today.Remaining--
			}
			break
		}
	}
	return nil
}

// LoadHistory fetches the current page of past queue items.
func (s *Queue) LoadHistory(ctx context.Context) error {
	return s.History.Load(ctx)
}
