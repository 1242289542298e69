package competitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

type fakeAPI struct {
	mu         sync.Mutex
	calls      []string
	lists      int
	list       leadwatcher.CompetitorList
	approveErr error
	inferJob   leadwatcher.InferenceJob
	jobs       []leadwatcher.InferenceJob
	jobPolls   int
	created    leadwatcher.CompetitorInput
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) ListCompetitors(_ context.Context, profileID string) (*leadwatcher.CompetitorList, error) {
	f.record("list " + profileID)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	l := f.list
	return &l, nil
}

func (f *fakeAPI) CreateCompetitor(_ context.Context, profileID string, in leadwatcher.CompetitorInput) (*leadwatcher.Competitor, error) {
	f.record("create " + profileID)
	f.mu.Lock()
	f.created = in
	f.mu.Unlock()
	return &leadwatcher.Competitor{ID: "c9", Name: in.Name}, nil
}

func (f *fakeAPI) UpdateCompetitor(_ context.Context, id string, in leadwatcher.CompetitorInput) (*leadwatcher.Competitor, error) {
	f.record("update " + id)
	return &leadwatcher.Competitor{ID: id, Name: in.Name}, nil
}

func (f *fakeAPI) DeleteCompetitor(_ context.Context, id string) error {
	f.record("delete " + id)
	return nil
}

func (f *fakeAPI) ApproveCompetitor(_ context.Context, id string) (*leadwatcher.Competitor, error) {
	f.record("approve " + id)
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return &leadwatcher.Competitor{ID: id, Status: leadwatcher.CompetitorApproved}, nil
}

func (f *fakeAPI) RejectCompetitor(_ context.Context, id, reason string) (*leadwatcher.Competitor, error) {
	f.record("reject " + id + " " + reason)
	return &leadwatcher.Competitor{ID: id, Status: leadwatcher.CompetitorRejected}, nil
}

func (f *fakeAPI) ApproveAllCompetitors(_ context.Context, profileID string) (*leadwatcher.BulkResult, error) {
	f.record("approve-all " + profileID)
	return &leadwatcher.BulkResult{Updated: 2}, nil
}

func (f *fakeAPI) RejectAllCompetitors(_ context.Context, profileID, reason string) (*leadwatcher.BulkResult, error) {
	f.record("reject-all " + profileID + " " + reason)
	return &leadwatcher.BulkResult{Updated: 1}, nil
}

func (f *fakeAPI) InferCompetitors(_ context.Context, profileID string) (*leadwatcher.InferenceJob, error) {
	f.record("infer " + profileID)
	j := f.inferJob
	return &j, nil
}

func (f *fakeAPI) GetInferenceJob(_ context.Context, jobID string) (*leadwatcher.InferenceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobPolls++
	j := f.jobs[0]
	if len(f.jobs) > 1 {
		f.jobs = f.jobs[1:]
	}
	return &j, nil
}

func (f *fakeAPI) LinkCompetitor(_ context.Context, id string, target leadwatcher.LinkTarget) (*leadwatcher.Competitor, error) {
	f.record("link " + id + " " + target.Type)
	return &leadwatcher.Competitor{ID: id}, nil
}

func fast() Options {
	return Options{SuggestInterval: time.Millisecond, SuggestMaxAttempts: 3}
}

func sampleList() leadwatcher.CompetitorList {
	acme := leadwatcher.Competitor{ID: "c1", Name: "Acme", Status: leadwatcher.CompetitorPending}
	beta := leadwatcher.Competitor{ID: "c2", Name: "Beta", Status: leadwatcher.CompetitorApproved}
	return leadwatcher.CompetitorList{
		Data: []leadwatcher.Competitor{acme, beta},
		Grouped: leadwatcher.CompetitorGroups{
			Pending:  []leadwatcher.Competitor{acme},
			Approved: []leadwatcher.Competitor{beta},
		},
	}
}

func TestLoad_KeepsServerGrouping(t *testing.T) {
	api := &fakeAPI{list: sampleList()}
	m := NewManager(api, "p1", fast())

	var changes int
	m.OnChange = func(leadwatcher.CompetitorList) { changes++ }

	require.NoError(t, m.Load(context.Background()))
	assert.Len(t, m.List().Data, 2)
	assert.Equal(t, "Acme", m.Pending()[0].Name)
	assert.Equal(t, "Beta", m.Approved()[0].Name)
	assert.Equal(t, 1, changes)
	assert.False(t, m.Loading())
}

func TestMutations_ReloadUnconditionally(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(m *Manager) error
		call string
	}{
		{"approve", func(m *Manager) error { return m.Approve(ctx, "c1") }, "approve c1"},
		{"reject", func(m *Manager) error { return m.Reject(ctx, "c1", " not relevant ") }, "reject c1 not relevant"},
		{"approve all", func(m *Manager) error { _, err := m.ApproveAllPending(ctx); return err }, "approve-all p1"},
		{"reject all", func(m *Manager) error { _, err := m.RejectAllPending(ctx, " duplicates "); return err }, "reject-all p1 duplicates"},
		{"delete", func(m *Manager) error { return m.Delete(ctx, "c2") }, "delete c2"},
		{"update", func(m *Manager) error {
			return m.Update(ctx, "c2", leadwatcher.CompetitorInput{Name: "Beta Inc"})
		}, "update c2"},
		{"link", func(m *Manager) error {
			return m.Link(ctx, "c2", leadwatcher.LinkTarget{Type: "company", ID: "42"})
		}, "link c2 company"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{list: sampleList()}
			m := NewManager(api, "p1", fast())
			require.NoError(t, tt.run(m))
			assert.Equal(t, []string{tt.call, "list p1"}, api.calls)
		})
	}
}

func TestApprove_FailureStillReloads(t *testing.T) {
	api := &fakeAPI{list: sampleList(), approveErr: errors.New("boom")}
	m := NewManager(api, "p1", fast())

	err := m.Approve(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, []string{"approve c1", "list p1"}, api.calls)
	assert.Equal(t, "Failed to approve competitor", m.Error())
}

func TestCreate_Validation(t *testing.T) {
	api := &fakeAPI{}
	m := NewManager(api, "p1", fast())

	err := m.Create(context.Background(), leadwatcher.CompetitorInput{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Empty(t, api.calls)
	assert.Equal(t, "Name is required", m.Error())

	require.NoError(t, m.Create(context.Background(), leadwatcher.CompetitorInput{Name: " Gamma ", Domain: " gamma.io "}))
	assert.Equal(t, "Gamma", api.created.Name)
	assert.Equal(t, "gamma.io", api.created.Domain)
	assert.Empty(t, m.Error())
}

func TestSuggestWithAI_PollsJob(t *testing.T) {
	api := &fakeAPI{
		list:     sampleList(),
		inferJob: leadwatcher.InferenceJob{JobID: "j1", Status: leadwatcher.JobQueued},
		jobs: []leadwatcher.InferenceJob{
			{JobID: "j1", Status: leadwatcher.JobRunning},
			{JobID: "j1", Status: leadwatcher.JobCompleted, Suggested: 4},
		},
	}
	m := NewManager(api, "p1", fast())

	job, err := m.SuggestWithAI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.JobCompleted, job.Status)
	assert.Equal(t, 4, job.Suggested)
	assert.Equal(t, 2, api.jobPolls)
	assert.Equal(t, 1, api.lists)
	assert.False(t, m.Suggesting())
}

func TestSuggestWithAI_NoJobWaitsOnce(t *testing.T) {
	api := &fakeAPI{list: sampleList(), inferJob: leadwatcher.InferenceJob{Status: leadwatcher.JobQueued}}
	m := NewManager(api, "p1", fast())

	_, err := m.SuggestWithAI(context.Background())
	require.NoError(t, err)
	assert.Zero(t, api.jobPolls)
	assert.Equal(t, []string{"infer p1", "list p1"}, api.calls)
}

func TestSuggestWithAI_AttemptCeiling(t *testing.T) {
	api := &fakeAPI{
		list:     sampleList(),
		inferJob: leadwatcher.InferenceJob{JobID: "j1", Status: leadwatcher.JobRunning},
		jobs:     []leadwatcher.InferenceJob{{JobID: "j1", Status: leadwatcher.JobRunning}},
	}
	m := NewManager(api, "p1", fast())

	job, err := m.SuggestWithAI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.JobRunning, job.Status)
	assert.Equal(t, 3, api.jobPolls)
	assert.Equal(t, 1, api.lists)
}

func TestSuggestWithAI_FailedJobSurfacesMessage(t *testing.T) {
	api := &fakeAPI{
		list:     sampleList(),
		inferJob: leadwatcher.InferenceJob{JobID: "j1", Status: leadwatcher.JobQueued},
		jobs:     []leadwatcher.InferenceJob{{JobID: "j1", Status: leadwatcher.JobFailed, Message: "No website on profile"}},
	}
	m := NewManager(api, "p1", fast())

	job, err := m.SuggestWithAI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, leadwatcher.JobFailed, job.Status)
	assert.Equal(t, "No website on profile", m.Error())
}
