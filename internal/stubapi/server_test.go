package stubapi

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/resilience"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "stub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestServer(t *testing.T, opts Options) (*Store, *httptest.Server, *leadwatcher.Client) {
	t.Helper()
	st := newTestStore(t)
	srv := httptest.NewServer(NewServer(st, opts).Handler())
	t.Cleanup(srv.Close)
	client := leadwatcher.NewClient(srv.URL+Prefix,
		rest.WithToken(opts.Token),
		rest.WithRetry(resilience.NoRetry()),
	)
	return st, srv, client
}

func apiStatus(t *testing.T, err error) (int, string) {
	t.Helper()
	var apiErr *rest.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.StatusCode, apiErr.Message
}

func newForm(name string) icp.FormData {
	form := icp.NewFormData()
	form.Name = name
	form.Definition.Industry = []string{"software"}
	return form
}

func TestHealth(t *testing.T) {
	_, srv, _ := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestRequireToken(t *testing.T) {
	_, srv, client := newTestServer(t, Options{Token: "secret"})

	_, err := client.ListProfiles(context.Background(), nil)
	require.NoError(t, err)

	anon := leadwatcher.NewClient(srv.URL+Prefix, rest.WithRetry(resilience.NoRetry()))
	_, err = anon.ListProfiles(context.Background(), nil)
	require.Error(t, err)
	code, msg := apiStatus(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthenticated.", msg)
}

func TestProfiles_Lifecycle(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{})

	created, err := client.CreateProfile(ctx, newForm("Fintech CFOs"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Fintech CFOs", created.Name)
	assert.True(t, created.IsActive)
	assert.Equal(t, []string{"software"}, created.Definition.Industry)
	require.NotNil(t, created.Stats)
	assert.Equal(t, 0, created.Stats.LeadsMatched)

	toggled, err := client.SetProfileActive(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	dup, err := client.DuplicateProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, dup.ID)
	assert.Equal(t, "Fintech CFOs (copy)", dup.Name)
	assert.False(t, dup.IsActive)

	form := icp.FormFromProfile(*created)
	form.Name = "Fintech finance leaders"
	updated, err := client.UpdateProfile(ctx, created.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "Fintech finance leaders", updated.Name)

	page, err := client.ListProfiles(ctx, url.Values{"sort": {"name"}, "direction": {"asc"}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Meta.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Fintech CFOs (copy)", page.Data[0].Name)

	require.NoError(t, client.DeleteProfile(ctx, created.ID))
	_, err = client.GetProfile(ctx, created.ID)
	code, msg := apiStatus(t, err)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Profile not found.", msg)
}

func TestProfiles_ListFiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{})

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := client.CreateProfile(ctx, newForm(name))
		require.NoError(t, err)
	}
	beta, err := client.ListProfiles(ctx, url.Values{"q": {"Bet"}})
	require.NoError(t, err)
	require.Len(t, beta.Data, 1)
	_, err = client.SetProfileActive(ctx, beta.Data[0].ID, false)
	require.NoError(t, err)

	active, err := client.ListProfiles(ctx, url.Values{"is_active": {"true"}})
	require.NoError(t, err)
	assert.Equal(t, 2, active.Meta.Total)

	paged, err := client.ListProfiles(ctx, url.Values{"page": {"2"}, "per_page": {"2"}, "sort": {"name"}, "direction": {"asc"}})
	require.NoError(t, err)
	assert.Equal(t, 2, paged.Meta.CurrentPage)
	assert.Equal(t, 2, paged.Meta.LastPage)
	require.Len(t, paged.Data, 1)
	assert.Equal(t, "Gamma", paged.Data[0].Name)
	require.NotNil(t, paged.Meta.From)
	assert.Equal(t, 3, *paged.Meta.From)
}

func TestProfiles_ValidationMessage(t *testing.T) {
	_, _, client := newTestServer(t, Options{})

	_, err := client.CreateProfile(context.Background(), newForm("   "))
	code, msg := apiStatus(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Profile name is required", msg)
	assert.Equal(t, "Profile name is required", rest.ErrorMessage(err, "fallback"))
}

func TestLeads_FiltersSortAndStatus(t *testing.T) {
	ctx := context.Background()
	st, _, client := newTestServer(t, Options{})
	require.NoError(t, Seed(ctx, st))

	all, err := client.ListLeads(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, len(seedPeople), all.Meta.Total)
	require.NotEmpty(t, all.Data)
	assert.Equal(t, "Margaret Hamilton", all.Data[0].FullName)
	require.Len(t, all.Data[0].Signals, 1)
	assert.Equal(t, "funding", all.Data[0].Signals[0].Type)

	hot, err := client.ListLeads(ctx, url.Values{"min_score": {"80"}})
	require.NoError(t, err)
	assert.Equal(t, 3, hot.Meta.Total)

	search, err := client.ListLeads(ctx, url.Values{"q": {"enigma"}})
	require.NoError(t, err)
	require.Len(t, search.Data, 1)
	assert.Equal(t, "Alan Turing", search.Data[0].FullName)

	lead, err := client.UpdateLeadStatus(ctx, search.Data[0].ID, leadwatcher.LeadStatusQualified)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.LeadStatusQualified, lead.Status)

	qualified, err := client.ListLeads(ctx, url.Values{"status": {"qualified"}})
	require.NoError(t, err)
	assert.Equal(t, 1, qualified.Meta.Total)

	_, err = client.UpdateLeadStatus(ctx, lead.ID, "bogus")
	code, _ := apiStatus(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestLeads_BulkStatusIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	st, _, client := newTestServer(t, Options{})
	require.NoError(t, Seed(ctx, st))

	page, err := client.ListLeads(ctx, url.Values{"per_page": {"2"}})
	require.NoError(t, err)
	ids := []string{page.Data[0].ID, page.Data[1].ID}

	_, err = client.BulkUpdateLeadStatus(ctx, append(ids, "missing"), leadwatcher.LeadStatusArchived)
	code, _ := apiStatus(t, err)
	assert.Equal(t, http.StatusNotFound, code)

	archived, err := client.ListLeads(ctx, url.Values{"status": {"archived"}})
	require.NoError(t, err)
	assert.Equal(t, 0, archived.Meta.Total)

	res, err := client.BulkUpdateLeadStatus(ctx, ids, leadwatcher.LeadStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	archived, err = client.ListLeads(ctx, url.Values{"status": {"archived"}})
	require.NoError(t, err)
	assert.Equal(t, 2, archived.Meta.Total)
}

func TestLeads_ExportAndEnrich(t *testing.T) {
	ctx := context.Background()
	st, _, client := newTestServer(t, Options{})
	require.NoError(t, Seed(ctx, st))

	rc, err := client.ExportLeads(ctx, url.Values{"min_score": {"80"}})
	require.NoError(t, err)
	defer rc.Close()
	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])

	search, err := client.ListLeads(ctx, url.Values{"q": {"Ada"}})
	require.NoError(t, err)
	require.Len(t, search.Data, 1)

	lead, err := client.EnrichLeadEmail(ctx, search.Data[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ada.lovelace@analyticalengines.com", lead.Email)
	assert.Equal(t, "guessed", lead.EmailStatus)
}

func TestAccounts_ConnectResolvesAfterPolls(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{ConnectAfter: 2})

	acct, err := client.CreateAccount(ctx, leadwatcher.CreateAccountRequest{Email: "sam@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountPending, acct.Status)

	res, err := client.ConnectAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountConnecting, res.Status)

	got, err := client.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountConnecting, got.Status)

	got, err = client.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountConnected, got.Status)
	assert.NotNil(t, got.ConnectedAt)

	disc, err := client.DisconnectAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountDisconnected, disc.Status)
}

func TestAccounts_FailingEmailIsRejected(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{ConnectAfter: 1})

	acct, err := client.CreateAccount(ctx, leadwatcher.CreateAccountRequest{Email: "will-fail@example.com"})
	require.NoError(t, err)
	_, err = client.ConnectAccount(ctx, acct.ID)
	require.NoError(t, err)

	got, err := client.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountError, got.Status)
	assert.Equal(t, rejectedMessage, got.ErrorMessage)
}

func TestAccounts_TOTPCode(t *testing.T) {
	ctx := context.Background()
	fixed := time.Unix(1234567890, 0)
	_, _, client := newTestServer(t, Options{Now: func() time.Time { return fixed }})

	acct, err := client.CreateAccount(ctx, leadwatcher.CreateAccountRequest{
		Email:      "sam@example.com",
		TOTPSecret: "gezd gnbv gy3t qojq gezd gnbv gy3t qojq",
	})
	require.NoError(t, err)
	assert.True(t, acct.HasTOTP)

	code, err := client.GetTOTPCode(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "005924", code.Code)
	assert.Equal(t, 30, code.ValidForSeconds)

	other, err := client.CreateAccount(ctx, leadwatcher.CreateAccountRequest{Email: "no-totp@example.com"})
	require.NoError(t, err)
	_, err = client.GetTOTPCode(ctx, other.ID)
	status, _ := apiStatus(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	_, err = client.StoreTOTPSecret(ctx, other.ID, "not base32!")
	status, _ = apiStatus(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestAccounts_ManualConnect(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{})

	acct, err := client.CreateAccount(ctx, leadwatcher.CreateAccountRequest{Email: "sam@example.com"})
	require.NoError(t, err)

	sess, err := client.StartManualConnect(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, LiveURL(sess.SessionID), sess.LiveURL)

	bad, err := client.ConfirmManualConnect(ctx, acct.ID, "unknown-session")
	require.NoError(t, err)
	assert.False(t, bad.Success)

	ok, err := client.ConfirmManualConnect(ctx, acct.ID, sess.SessionID)
	require.NoError(t, err)
	assert.True(t, ok.Success)

	got, err := client.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.AccountConnected, got.Status)

	// Sessions are single use.
	again, err := client.ConfirmManualConnect(ctx, acct.ID, sess.SessionID)
	require.NoError(t, err)
	assert.False(t, again.Success)
}

func TestAccounts_RateLimitsAndWarmup(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var clock atomic.Int64
	clock.Store(start.Unix())
	_, _, client := newTestServer(t, Options{Now: func() time.Time { return time.Unix(clock.Load(), 0) }})

	acct, err := client.CreateAccount(ctx, leadwatcher.CreateAccountRequest{Email: "sam@example.com"})
	require.NoError(t, err)

	rl, err := client.GetRateLimits(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, defaultConnectionsLimit, rl.ConnectionsLimit)

	rl, err = client.ResetRateLimits(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rl.ConnectionsSent)
	assert.NotNil(t, rl.ResetsAt)

	idle, err := client.WarmupProgress(ctx, acct.ID)
	require.NoError(t, err)
	assert.False(t, idle.Active)

	wu, err := client.StartWarmup(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, wu.Active)
	assert.Equal(t, 1, wu.Day)
	assert.Equal(t, warmupStartLimit, wu.DailyLimit)

	clock.Store(start.Add(13 * 24 * time.Hour).Unix())
	wu, err = client.WarmupProgress(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, warmupDays, wu.Day)
	assert.False(t, wu.Active)
	assert.Equal(t, defaultConnectionsLimit, wu.DailyLimit)
}

func TestCompetitors_InferenceAndReview(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{})

	profile, err := client.CreateProfile(ctx, newForm("Data platforms"))
	require.NoError(t, err)

	job, err := client.InferCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.JobQueued, job.Status)
	require.NotEmpty(t, job.JobID)

	job, err = client.GetInferenceJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.JobRunning, job.Status)

	job, err = client.GetInferenceJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.JobCompleted, job.Status)
	assert.Equal(t, maxSuggestions, job.Suggested)
	assert.True(t, job.Done())

	list, err := client.ListCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, list.Grouped.Pending, maxSuggestions)
	assert.Equal(t, "ai", list.Grouped.Pending[0].Source)

	rejected, err := client.RejectCompetitor(ctx, list.Grouped.Pending[0].ID, "Not a fit")
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.CompetitorRejected, rejected.Status)
	assert.Equal(t, "Not a fit", rejected.Reason)

	bulk, err := client.ApproveAllCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bulk.Updated)

	manual, err := client.CreateCompetitor(ctx, profile.ID, leadwatcher.CompetitorInput{Name: " Initech "})
	require.NoError(t, err)
	assert.Equal(t, "Initech", manual.Name)
	assert.Equal(t, leadwatcher.CompetitorApproved, manual.Status)

	linked, err := client.LinkCompetitor(ctx, manual.ID, leadwatcher.LinkTarget{Type: "company", ID: "c-1"})
	require.NoError(t, err)
	require.NotNil(t, linked.LinkedTarget)
	assert.Equal(t, "c-1", linked.LinkedTarget.ID)

	list, err = client.ListCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	assert.Len(t, list.Data, 4)
	assert.Len(t, list.Grouped.Approved, 3)
	assert.Len(t, list.Grouped.Rejected, 1)
	assert.Empty(t, list.Grouped.Pending)

	require.NoError(t, client.DeleteCompetitor(ctx, manual.ID))
	_, err = client.CreateCompetitor(ctx, profile.ID, leadwatcher.CompetitorInput{Name: "  "})
	code, msg := apiStatus(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "The name field is required.", msg)
}

func TestCompetitors_InferenceFailsWithoutCriteria(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{})

	form := icp.NewFormData()
	form.Name = "Empty"
	profile, err := client.CreateProfile(ctx, form)
	require.NoError(t, err)

	job, err := client.InferCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	for i := 0; i < jobFinishedAfter; i++ {
		job, err = client.GetInferenceJob(ctx, job.JobID)
		require.NoError(t, err)
	}
	assert.Equal(t, leadwatcher.JobFailed, job.Status)
	assert.NotEmpty(t, job.Message)
}

func TestCompetitors_RejectAllPending(t *testing.T) {
	ctx := context.Background()
	_, _, client := newTestServer(t, Options{})

	profile, err := client.CreateProfile(ctx, newForm("Fintech"))
	require.NoError(t, err)
	job, err := client.InferCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	for i := 0; i < jobFinishedAfter; i++ {
		_, err = client.GetInferenceJob(ctx, job.JobID)
		require.NoError(t, err)
	}
	manual, err := client.CreateCompetitor(ctx, profile.ID, leadwatcher.CompetitorInput{Name: "Globex"})
	require.NoError(t, err)

	bulk, err := client.RejectAllCompetitors(ctx, profile.ID, " Too small ")
	require.NoError(t, err)
	assert.Equal(t, maxSuggestions, bulk.Updated)

	list, err := client.ListCompetitors(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Grouped.Pending)
	require.Len(t, list.Grouped.Rejected, maxSuggestions)
	assert.Equal(t, "Too small", list.Grouped.Rejected[0].Reason)
	require.Len(t, list.Grouped.Approved, 1)
	assert.Equal(t, manual.ID, list.Grouped.Approved[0].ID)
}

func TestCORSPreflight(t *testing.T) {
	_, srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+Prefix+"/leads", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
