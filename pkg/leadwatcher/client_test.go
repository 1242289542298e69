package leadwatcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/rest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, rest.WithToken("test-token"))
}

func TestListLeads_Page(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/leads", r.URL.Path)
		assert.Equal(t, "qualified", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"data": [{"id":"L1","full_name":"Ada Lovelace","score":87,"status":"qualified"}],
			"meta": {"current_page":2,"last_page":3,"per_page":25,"total":51,"from":26,"to":26}
		}`)) //nolint:errcheck
	})

	page, err := c.ListLeads(context.Background(), url.Values{"status": {"qualified"}, "page": {"2"}})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Ada Lovelace", page.Data[0].FullName)
	assert.Equal(t, LeadStatusQualified, page.Data[0].Status)
	assert.Equal(t, 51, page.Meta.Total)
	require.NotNil(t, page.Meta.From)
	assert.Equal(t, 26, *page.Meta.From)
}

func TestListLeads_EmptyDataNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"current_page":1,"last_page":1,"per_page":25,"total":0,"from":null,"to":null}}`)) //nolint:errcheck
	})
	page, err := c.ListLeads(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Nil(t, page.Meta.From)
}

func TestBulkUpdateLeadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/leads/bulk-status", r.URL.Path)
		var req BulkStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"L1", "L2", "L3"}, req.LeadIDs)
		assert.Equal(t, LeadStatusArchived, req.Status)
		w.Write([]byte(`{"data":{"updated":3}}`)) //nolint:errcheck
	})

	res, err := c.BulkUpdateLeadStatus(context.Background(), []string{"L1", "L2", "L3"}, LeadStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Updated)
}

func TestGetProfile_UpgradesLegacyDefinition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/icp-profiles/p%201", r.URL.EscapedPath())
		w.Write([]byte(`{"data":{"id":"p 1","name":"Old","is_active":true,
			"definition":{"titles":["CTO"],"company_sizes":["51-200"]}}}`)) //nolint:errcheck
	})

	p, err := c.GetProfile(context.Background(), "p 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CTO"}, p.Definition.PersonTitle)
	assert.Equal(t, []string{"51-200"}, p.Definition.CompanyEmployeeSize)
	assert.NotNil(t, p.Definition.Seniority)
	assert.Equal(t, 100, p.Definition.TotalResults)
}

func TestCreateProfile_Body(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SaaS Founders", body["name"])
		def := body["definition"].(map[string]any)
		assert.Equal(t, []any{"VP", "Director"}, def["seniority"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"p9","name":"SaaS Founders","is_active":true,"definition":{"seniority":["VP","Director"]}}}`)) //nolint:errcheck
	})

	form := icp.NewFormData()
	form.Name = "SaaS Founders"
	form.Definition.Seniority = []string{"VP", "Director"}
	p, err := c.CreateProfile(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "p9", p.ID)
}

func TestSetProfileActive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/icp-profiles/p1/active", r.URL.Path)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body["is_active"])
		w.Write([]byte(`{"data":{"id":"p1","is_active":false}}`)) //nolint:errcheck
	})
	p, err := c.SetProfileActive(context.Background(), "p1", false)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

func TestExportLeads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leads/export", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("id,full_name\nL1,Ada\n")) //nolint:errcheck
	})
	rc, err := c.ExportLeads(context.Background(), nil)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck
	data, _ := io.ReadAll(rc)
	assert.Contains(t, string(data), "L1,Ada")
}

func TestLinkedInEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /linkedin-accounts/a1/totp/code":
			w.Write([]byte(`{"data":{"code":"123456","valid_for_seconds":17}}`)) //nolint:errcheck
		case "POST /linkedin-accounts/a1/manual-connect":
			w.Write([]byte(`{"data":{"session_id":"s1","live_url":"https://live.example/s1","expires_at":"2026-01-01T00:00:00Z"}}`)) //nolint:errcheck
		case "POST /linkedin-accounts/a1/manual-connect/confirm":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "s1", body["session_id"])
			w.Write([]byte(`{"data":{"success":false,"message":"Still on the login page"}}`)) //nolint:errcheck
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	code, err := c.GetTOTPCode(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "123456", code.Code)
	assert.Equal(t, 17, code.ValidForSeconds)

	sess, err := c.StartManualConnect(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://live.example/s1", sess.LiveURL)
	require.NotNil(t, sess.ExpiresAt)

	conf, err := c.ConfirmManualConnect(ctx, "a1", "s1")
	require.NoError(t, err)
	assert.False(t, conf.Success)
	assert.Equal(t, "Still on the login page", conf.Message)
}

func TestListCompetitors_Grouped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/icp-profiles/p1/competitors", r.URL.Path)
		w.Write([]byte(`{
			"data":[{"id":"c1","name":"Acme","status":"pending"},{"id":"c2","name":"Beta","status":"approved"}],
			"grouped":{"pending":[{"id":"c1","name":"Acme","status":"pending"}],
			           "approved":[{"id":"c2","name":"Beta","status":"approved"}],"rejected":[]}
		}`)) //nolint:errcheck
	})
	list, err := c.ListCompetitors(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Len(t, list.Grouped.Pending, 1)
	assert.Equal(t, "Beta", list.Grouped.Approved[0].Name)
}

func TestRejectAllCompetitors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/icp-profiles/p1/competitors/reject-all", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Out of market", body["reason"])
		w.Write([]byte(`{"data":{"updated":3}}`)) //nolint:errcheck
	})
	res, err := c.RejectAllCompetitors(context.Background(), "p1", "Out of market")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Updated)
}

func TestInferenceJob_Done(t *testing.T) {
	assert.False(t, InferenceJob{Status: JobRunning}.Done())
	assert.True(t, InferenceJob{Status: JobCompleted}.Done())
	assert.True(t, InferenceJob{Status: JobFailed}.Done())
}

func TestAPIError_Surfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Lead not found"}`)) //nolint:errcheck
	})
	_, err := c.GetLead(context.Background(), "nope")
	require.Error(t, err)
	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, "Lead not found", rest.ErrorMessage(err, "Failed to load lead"))
}

func TestInsights_DaysQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		w.Write([]byte(`{"data":[{"date":"2026-01-01","leads_found":4}]}`)) //nolint:errcheck
	})
	days, err := c.DailyPerformance(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 4, days[0].LeadsFound)
}

func TestLeadStatus_Valid(t *testing.T) {
	assert.True(t, LeadStatusArchived.Valid())
	assert.False(t, LeadStatus("deleted").Valid())
}
