// Package rest is the JSON-over-HTTP transport shared by the Lead Watcher
// and campaign API clients.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadwatcher/internal/resilience"
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	API        string
	StatusCode int
	Body       string
	// Message is the server's "message", "error" or first "errors" entry,
	// when present.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.API, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.API, e.StatusCode, e.Body)
}

// NotFound reports whether the API answered 404.
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Option configures a Transport.
type Option func(*Transport)

// WithBaseURL overrides the base URL.
func WithBaseURL(u string) Option {
	return func(t *Transport) { t.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Transport) { t.http = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(t *Transport) { t.token = token }
}

// WithRateLimit throttles outgoing requests. A zero limit disables it.
func WithRateLimit(perSec float64, burst int) Option {
	return func(t *Transport) {
		if perSec <= 0 {
			t.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithRetry sets the retry policy for idempotent requests.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(t *Transport) { t.retry = cfg }
}

// Transport issues authenticated JSON requests against one API namespace.
type Transport struct {
	api     string
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates a Transport. api names the namespace in errors and logs.
func New(api, baseURL string, opts ...Option) *Transport {
	t := &Transport{
		api:     api,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BaseURL returns the configured base URL.
func (t *Transport) BaseURL() string { return t.baseURL }

// Get issues a GET with optional query parameters and decodes into out.
func (t *Transport) Get(ctx context.Context, path string, query url.Values, out any) error {
	return t.send(ctx, http.MethodGet, path, query, nil, out, true)
}

// Post issues a POST. POSTs are not retried.
func (t *Transport) Post(ctx context.Context, path string, body, out any) error {
	return t.send(ctx, http.MethodPost, path, nil, body, out, false)
}

// Put issues a PUT.
func (t *Transport) Put(ctx context.Context, path string, body, out any) error {
	return t.send(ctx, http.MethodPut, path, nil, body, out, true)
}

// Patch issues a PATCH. Patches here only set fields, so they are retried.
func (t *Transport) Patch(ctx context.Context, path string, body, out any) error {
	return t.send(ctx, http.MethodPatch, path, nil, body, out, true)
}

// Delete issues a DELETE.
func (t *Transport) Delete(ctx context.Context, path string, out any) error {
	return t.send(ctx, http.MethodDelete, path, nil, nil, out, true)
}

// Download issues a GET and returns the raw body for binary responses.
// The caller must close the returned reader.
func (t *Transport) Download(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	op := func(ctx context.Context) (*http.Response, error) {
		req, err := t.newRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv, application/octet-stream")
		resp, err := t.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "execute request")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close() //nolint:errcheck
			return nil, t.statusError(resp.StatusCode, data)
		}
		return resp, nil
	}

	resp, err := resilience.DoVal(ctx, t.retryFor("download "+path), op)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: download %s", t.api, path)
	}
	return resp.Body, nil
}

func (t *Transport) send(ctx context.Context, method, path string, query url.Values, body, out any, idempotent bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
	}

	cfg := resilience.NoRetry()
	if idempotent {
		cfg = t.retryFor(method + " " + path)
	}

	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := t.newRequest(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
		return t.do(req, out)
	})
	return eris.Wrapf(err, "%s: %s %s", t.api, method, path)
}

func (t *Transport) retryFor(operation string) resilience.RetryConfig {
	cfg := t.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(t.api, operation)
	}
	return cfg
}

func (t *Transport) newRequest(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Request, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return req, nil
}

func (t *Transport) do(req *http.Request, out any) error {
	resp, err := t.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return t.statusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func (t *Transport) statusError(code int, body []byte) error {
	apiErr := &APIError{
		API:        t.api,
		StatusCode: code,
		Body:       string(body),
		Message:    messageFromBody(body),
	}
	if resilience.IsTransientHTTPStatus(code) {
		return resilience.NewTransientError(apiErr, code)
	}
	return apiErr
}

// messageFromBody picks the display message out of an error body:
// "message", then "error", then the first entry of "errors". The errors
// value may be a list of strings, a list of {message} objects, or a map of
// field name to messages.
func messageFromBody(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch {
	case envelope.Message != "":
		return envelope.Message
	case envelope.Error != "":
		return envelope.Error
	}
	return firstError(envelope.Errors)
}

func firstError(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		if len(list) == 0 {
			return ""
		}
		var text string
		if json.Unmarshal(list[0], &text) == nil {
			return text
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(list[0], &obj) == nil {
			return obj.Message
		}
		return ""
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil || len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return firstError(fields[keys[0]])
}
