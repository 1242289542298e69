package campaign

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/resilience"
	"github.com/sells-group/leadwatcher/internal/rest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, rest.WithRetry(resilience.NoRetry()))
}

func TestLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*Client) (*Campaign, error)
		path   string
		status Status
	}{
		{"start", func(c *Client) (*Campaign, error) { return c.Start(context.Background(), "c1") }, "/c1/start", StatusActive},
		{"pause", func(c *Client) (*Campaign, error) { return c.Pause(context.Background(), "c1") }, "/c1/pause", StatusPaused},
		{"resume", func(c *Client) (*Campaign, error) { return c.Resume(context.Background(), "c1") }, "/c1/resume", StatusActive},
		{"complete", func(c *Client) (*Campaign, error) { return c.Complete(context.Background(), "c1") }, "/c1/complete", StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				json.NewEncoder(w).Encode(map[string]any{"data": Campaign{ID: "c1", Status: tt.status}}) //nolint:errcheck
			})
			got, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"c1","name":"Q3 founders","status":"draft"}],"meta":{"current_page":1,"last_page":1,"per_page":25,"total":1,"from":1,"to":1}}`)) //nolint:errcheck
	})
	p, err := c.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, p.Data, 1)
	assert.Equal(t, "Q3 founders", p.Data[0].Name)
}

func TestReorderSteps(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/c1/steps/reorder", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"s2", "s1"}, body["step_ids"])
		w.Write([]byte(`{"data":[{"id":"s2","position":1},{"id":"s1","position":2}]}`)) //nolint:errcheck
	})
	steps, err := c.ReorderSteps(context.Background(), "c1", []string{"s2", "s1"})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "s2", steps[0].ID)
	assert.Equal(t, 1, steps[0].Position)
}

func TestAddContacts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/c1/contacts", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body["lead_ids"], 2)
		w.Write([]byte(`{"data":{"added":1,"skipped":1}}`)) //nolint:errcheck
	})
	res, err := c.AddContacts(context.Background(), "c1", []string{"L1", "L2"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
}

func TestGenerateMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/generate-message", r.URL.Path)
		var req MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "L1", req.LeadID)
		assert.Equal(t, StepConnect, req.StepType)
		w.Write([]byte(`{"data":{"message":"Hi Ada, saw your team is hiring."}}`)) //nolint:errcheck
	})
	msg, err := c.GenerateMessage(context.Background(), MessageRequest{LeadID: "L1", StepType: StepConnect})
	require.NoError(t, err)
	assert.Contains(t, msg.Message, "Ada")
}

func TestTemplates_EmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`)) //nolint:errcheck
	})
	got, err := c.Templates(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCancelScheduledAction_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Action already sent"}`)) //nolint:errcheck
	})
	_, err := c.CancelScheduledAction(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, "Action already sent", rest.ErrorMessage(err, "Failed"))
}
