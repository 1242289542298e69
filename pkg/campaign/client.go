// Package campaign is a client for the outreach campaign API that sits next
// to Lead Watcher: campaigns and their steps, contacts, message templates,
// scheduled actions and AI message generation.
package campaign

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/rest"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8090/api/campaigns"

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

type envelope[T any] struct {
	Data T `json:"data"`
}

// Client talks to the campaign API.
type Client struct {
	t *rest.Transport
}

// NewClient creates a campaign client.
func NewClient(baseURL string, opts ...rest.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{t: rest.New("campaign", baseURL, opts...)}
}

func wrap(err error, op string) error {
	return eris.Wrap(err, "campaign: "+op)
}

func get[T any](ctx context.Context, c *Client, op, path string, q url.Values) (*T, error) {
	var env envelope[T]
	if err := c.t.Get(ctx, path, q, &env); err != nil {
		return nil, wrap(err, op)
	}
	return &env.Data, nil
}

func list[T any](ctx context.Context, c *Client, op, path string, q url.Values) ([]T, error) {
	out, err := get[[]T](ctx, c, op, path, q)
	if err != nil {
		return nil, err
	}
	if *out == nil {
		return []T{}, nil
	}
	return *out, nil
}

func page[T any](ctx context.Context, c *Client, op, path string, q url.Values) (*Page[T], error) {
	var p Page[T]
	if err := c.t.Get(ctx, path, q, &p); err != nil {
		return nil, wrap(err, op)
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return &p, nil
}

func post[T any](ctx context.Context, c *Client, op, path string, body any) (*T, error) {
	var env envelope[T]
	if err := c.t.Post(ctx, path, body, &env); err != nil {
		return nil, wrap(err, op)
	}
	return &env.Data, nil
}

func put[T any](ctx context.Context, c *Client, op, path string, body any) (*T, error) {
	var env envelope[T]
	if err := c.t.Put(ctx, path, body, &env); err != nil {
		return nil, wrap(err, op)
	}
	return &env.Data, nil
}

func (c *Client) del(ctx context.Context, op, path string) error {
	if err := c.t.Delete(ctx, path, nil); err != nil {
		return wrap(err, op)
	}
	return nil
}

func esc(id string) string { return url.PathEscape(id) }
