// Package leadwatcher is a typed client for the Lead Watcher REST API:
// ICP profiles, leads, queues, search runs, signals agents, insights,
// LinkedIn accounts and competitors.
package leadwatcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/rest"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8090/api/lead-watcher"

// Meta is the pagination block of a list response.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	From        *int `json:"from"`
	To          *int `json:"to"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// envelope wraps single-resource and unpaginated list responses.
type envelope[T any] struct {
	Data T `json:"data"`
}

// Client talks to the Lead Watcher API.
type Client struct {
	t *rest.Transport
}

// NewClient creates a Lead Watcher client.
func NewClient(baseURL string, opts ...rest.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{t: rest.New("leadwatcher", baseURL, opts...)}
}

func getData[T any](ctx context.Context, c *Client, op, path string, q url.Values) (*T, error) {
	var env envelope[T]
	if err := c.t.Get(ctx, path, q, &env); err != nil {
		return nil, eris.Wrap(err, "leadwatcher: "+op)
	}
	return &env.Data, nil
}

func getPage[T any](ctx context.Context, c *Client, op, path string, q url.Values) (*Page[T], error) {
	var page Page[T]
	if err := c.t.Get(ctx, path, q, &page); err != nil {
		return nil, eris.Wrap(err, "leadwatcher: "+op)
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return &page, nil
}

func postData[T any](ctx context.Context, c *Client, op, path string, body any) (*T, error) {
	var env envelope[T]
	if err := c.t.Post(ctx, path, body, &env); err != nil {
		return nil, eris.Wrap(err, "leadwatcher: "+op)
	}
	return &env.Data, nil
}

func putData[T any](ctx context.Context, c *Client, op, path string, body any) (*T, error) {
	var env envelope[T]
	if err := c.t.Put(ctx, path, body, &env); err != nil {
		return nil, eris.Wrap(err, "leadwatcher: "+op)
	}
	return &env.Data, nil
}

func patchData[T any](ctx context.Context, c *Client, op, path string, body any) (*T, error) {
	var env envelope[T]
	if err := c.t.Patch(ctx, path, body, &env); err != nil {
		return nil, eris.Wrap(err, "leadwatcher: "+op)
	}
	return &env.Data, nil
}

func (c *Client) delete(ctx context.Context, op, path string) error {
	return eris.Wrap(c.t.Delete(ctx, path, nil), "leadwatcher: "+op)
}

func (c *Client) download(ctx context.Context, op, path string, q url.Values) (io.ReadCloser, error) {
	rc, err := c.t.Download(ctx, path, q)
	if err != nil {
		return nil, eris.Wrap(err, "leadwatcher: "+op)
	}
	return rc, nil
}

func wrapOp(err error, op string) error {
	return eris.Wrap(err, "leadwatcher: "+op)
}

func escape(id string) string { return url.PathEscape(id) }
