package screen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/resilience"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

func testClient(t *testing.T, h http.HandlerFunc) *leadwatcher.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return leadwatcher.NewClient(srv.URL, rest.WithRetry(resilience.NoRetry()))
}

type navCall struct {
	page   string
	params map[string]string
}

func TestProfileEditor_CreateScenario(t *testing.T) {
	var body map[string]any
	var posts int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/icp-profiles", r.URL.Path)
		atomic.AddInt32(&posts, 1)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"icp-42","name":"SaaS Founders","is_active":true,` + //nolint:errcheck
			`"definition":{"seniority":["VP","Director"],"totalResults":250}}}`))
	})

	var navs []navCall
	var saved *icp.Profile
	e := NewProfileEditor(c, NavigatorFunc(func(page string, params map[string]string) {
		navs = append(navs, navCall{page, params})
	}))
	e.OnSaved = func(p icp.Profile) { saved = &p }

	e.Edit(func(f *icp.FormData) {
		f.Name = "SaaS Founders"
		f.Definition.Seniority = []string{"VP", "Director"}
		f.Definition.TotalResults = 250
	})
	p, err := e.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "icp-42", p.ID)
	assert.EqualValues(t, 1, posts)

	assert.Equal(t, "SaaS Founders", body["name"])
	def := body["definition"].(map[string]any)
	assert.Equal(t, []any{"VP", "Director"}, def["seniority"])
	assert.EqualValues(t, 250, def["totalResults"])
	assert.Equal(t, true, def["includeEmails"])
	for _, f := range icp.Fields {
		if f == icp.FieldSeniority {
			continue
		}
		assert.Equal(t, []any{}, def[string(f)], "field %s", f)
	}

	require.Len(t, navs, 1)
	assert.Equal(t, PageProfiles, navs[0].page)
	assert.Equal(t, "icp-42", navs[0].params["id"])
	require.NotNil(t, saved)
	assert.Equal(t, "icp-42", saved.ID)
	assert.False(t, e.IsNew())
}

func TestProfileEditor_NameRequiredNoRequest(t *testing.T) {
	var calls int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	e := NewProfileEditor(c, nil)
	e.Edit(func(f *icp.FormData) { f.Name = "   " })

	_, err := e.Save(context.Background())
	var verr *icp.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, "Profile name is required", e.Error())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestProfileEditor_LoadReconcilesAndPuts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"data":{"id":"p1","name":" Legacy ","is_active":false,` + //nolint:errcheck
				`"definition":{"titles":["CTO"],"industries":["software"]}}}`))
		case http.MethodPut:
			assert.Equal(t, "/icp-profiles/p1", r.URL.Path)
			var f icp.FormData
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f))
			assert.Equal(t, "Legacy", f.Name)
			assert.Equal(t, []string{"CTO"}, f.Definition.PersonTitle)
			w.Write([]byte(`{"data":{"id":"p1","name":"Legacy","definition":{"personTitle":["CTO"]}}}`)) //nolint:errcheck
		default:
			t.Errorf("unexpected %s", r.Method)
		}
	})
	e := NewProfileEditor(c, nil)
	require.NoError(t, e.Load(context.Background(), "p1"))
	assert.Equal(t, []string{"software"}, e.Form().Definition.Industry)

	_, err := e.Save(context.Background())
	require.NoError(t, err)
}

func TestProfileEditor_ServerErrorMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Name already taken"}`)) //nolint:errcheck
	})
	e := NewProfileEditor(c, nil)
	e.Edit(func(f *icp.FormData) { f.Name = "Dup" })
	_, err := e.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Name already taken", e.Error())
	assert.True(t, e.IsNew())
}

func TestProfileList_ToggleActiveRevertsOnFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"data":[{"id":"p1","name":"A","is_active":true,"definition":{"personTitle":["CEO"]}}],` + //nolint:errcheck
				`"meta":{"current_page":1,"last_page":1,"per_page":25,"total":1}}`))
		case r.Method == http.MethodPatch && fail.Load():
			w.WriteHeader(http.StatusInternalServerError)
		case r.Method == http.MethodPatch:
			w.Write([]byte(`{"data":{"id":"p1","name":"A","is_active":false}}`)) //nolint:errcheck
		}
	})
	l := NewProfileList(c)
	require.NoError(t, l.Load(context.Background()))

	require.Error(t, l.ToggleActive(context.Background(), "p1"))
	assert.True(t, l.Rows()[0].IsActive)
	assert.Equal(t, "Failed to update profile", l.Error())

	fail.Store(false)
	require.NoError(t, l.ToggleActive(context.Background(), "p1"))
	assert.False(t, l.Rows()[0].IsActive)
}

func TestProfileList_DuplicateAppendsAndSummaries(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"data":[{"id":"p1","name":"A","definition":{"personTitle":["CEO","CTO","CFO"],"industry":["saas"]}}],` + //nolint:errcheck
				`"meta":{"current_page":1,"last_page":1,"per_page":25,"total":1}}`))
		case http.MethodPost:
			assert.Equal(t, "/icp-profiles/p1/duplicate", r.URL.Path)
			w.Write([]byte(`{"data":{"id":"p2","name":"A (copy)","definition":{}}}`)) //nolint:errcheck
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	l := NewProfileList(c)
	require.NoError(t, l.Load(context.Background()))
	_, err := l.Duplicate(context.Background(), "p1")
	require.NoError(t, err)

	rows := l.Summaries()
	require.Len(t, rows, 2)
	assert.Equal(t, "3 job titles • 1 industry", rows[0].Summary)
	assert.Equal(t, []string{"CEO", "CTO", "saas"}, rows[0].Tags)
	assert.Equal(t, icp.NoCriteria, rows[1].Summary)

	require.NoError(t, l.Delete(context.Background(), "p2"))
	assert.Len(t, l.Rows(), 1)
}
