package screen

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/export"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

const threeLeads = `{"data":[
	{"id":"L1","full_name":"Ada","score":90,"status":"new"},
	{"id":"L2","full_name":"Grace","score":70,"status":"reviewing"},
	{"id":"L3","full_name":"Linus","score":50,"status":"new"},
	{"id":"L4","full_name":"Ken","score":30,"status":"new"}
],"meta":{"current_page":1,"last_page":1,"per_page":25,"total":4,"from":1,"to":4}}`

func TestLeads_BulkArchiveScenario(t *testing.T) {
	var lists, bulks int32
	var req leadwatcher.BulkStatusRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/leads":
			atomic.AddInt32(&lists, 1)
			w.Write([]byte(threeLeads)) //nolint:errcheck
		case "/leads/bulk-status":
			atomic.AddInt32(&bulks, 1)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Write([]byte(`{"data":{"updated":3}}`)) //nolint:errcheck
		default:
			t.Errorf("unexpected %s", r.URL.Path)
		}
	})

	s := NewLeads(c)
	require.NoError(t, s.Load(context.Background()))
	for _, id := range []string{"L1", "L2", "L3"} {
		s.ToggleSelect(id)
	}

	n, err := s.BulkUpdateStatus(context.Background(), leadwatcher.LeadStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.EqualValues(t, 1, bulks)
	assert.EqualValues(t, 1, lists, "no refetch after bulk update")
	assert.Equal(t, []string{"L1", "L2", "L3"}, req.LeadIDs)
	assert.Equal(t, leadwatcher.LeadStatusArchived, req.Status)

	rows := s.Rows()
	for _, r := range rows[:3] {
		assert.Equal(t, leadwatcher.LeadStatusArchived, r.Status, r.ID)
	}
	assert.Equal(t, leadwatcher.LeadStatusNew, rows[3].Status)
	assert.Empty(t, s.Selected())
}

func TestLeads_BulkFailureLeavesRows(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/leads" {
			w.Write([]byte(threeLeads)) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	s := NewLeads(c)
	require.NoError(t, s.Load(context.Background()))
	s.SelectAll()
	assert.Len(t, s.Selected(), 4)

	_, err := s.BulkUpdateStatus(context.Background(), leadwatcher.LeadStatusArchived)
	require.Error(t, err)
	for _, r := range s.Rows() {
		assert.NotEqual(t, leadwatcher.LeadStatusArchived, r.Status)
	}
	assert.Len(t, s.Selected(), 4)
	assert.Equal(t, "Failed to update leads", s.Error())
}

func TestLeads_BulkNothingSelected(t *testing.T) {
	s := NewLeads(testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))
	_, err := s.BulkUpdateStatus(context.Background(), leadwatcher.LeadStatusArchived)
	assert.ErrorIs(t, err, ErrNothingSelected)
}

func TestLeads_FiltersResetPageAndReachServer(t *testing.T) {
	var got []string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.RawQuery)
		w.Write([]byte(threeLeads)) //nolint:errcheck
	})
	s := NewLeads(c)
	s.SetPage(3)
	s.SetFilter(FilterStatus, "new")
	assert.Equal(t, 1, s.Query().Page)
	s.ToggleSort("score")
	require.NoError(t, s.Load(context.Background()))

	require.Len(t, got, 1)
	assert.Contains(t, got[0], "status=new")
	assert.Contains(t, got[0], "page=1")
	assert.Contains(t, got[0], "sort=score")
	assert.Contains(t, got[0], "direction=asc")
}

func TestLeads_SetStatusReverts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(threeLeads)) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	s := NewLeads(c)
	require.NoError(t, s.Load(context.Background()))
	require.Error(t, s.SetStatus(context.Background(), "L2", leadwatcher.LeadStatusQualified))
	assert.Equal(t, leadwatcher.LeadStatusReviewing, s.Rows()[1].Status)
}

func TestLeads_Export(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leads/export", r.URL.Path)
		assert.Equal(t, "qualified", r.URL.Query().Get("status"))
		assert.Empty(t, r.URL.Query().Get("page"))
		w.Write([]byte("id,full_name\nL1,Ada\n")) //nolint:errcheck
	})
	s := NewLeads(c)
	s.SetFilter(FilterStatus, "qualified")

	dest := filepath.Join(t.TempDir(), "leads.csv")
	_, err := s.Export(context.Background(), dest, export.CSV)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "id,full_name\nL1,Ada\n", string(data))
}
