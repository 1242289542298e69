package stubapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// Inference jobs report running on the first poll and finish on the second.
const (
	jobRunningAfter  = 1
	jobFinishedAfter = 2
	maxSuggestions   = 3
)

// suggestionPool feeds simulated competitor suggestions.
var suggestionPool = []leadwatcher.CompetitorInput{
	{Name: "Northwind Analytics", Domain: "northwind-analytics.com"},
	{Name: "Contoso Signals", Domain: "contososignals.io"},
	{Name: "Fabrikam Growth", Domain: "fabrikamgrowth.com"},
	{Name: "Tailspin Data", Domain: "tailspindata.co"},
	{Name: "Litware Leads", Domain: "litwareleads.com"},
	{Name: "Adventure Works Sales", Domain: "adventureworks.sale"},
}

func (s *Server) listCompetitors(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListCompetitors(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func readCompetitor(w http.ResponseWriter, r *http.Request) (leadwatcher.CompetitorInput, bool) {
	var in leadwatcher.CompetitorInput
	if err := decode(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return in, false
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Domain = strings.TrimSpace(in.Domain)
	in.LinkedInURL = strings.TrimSpace(in.LinkedInURL)
	if in.Name == "" {
		respondError(w, http.StatusUnprocessableEntity, "The name field is required.")
		return in, false
	}
	return in, true
}

// createCompetitor adds a hand-entered competitor; it starts approved.
func (s *Server) createCompetitor(w http.ResponseWriter, r *http.Request) {
	in, ok := readCompetitor(w, r)
	if !ok {
		return
	}
	profileID := chi.URLParam(r, "id")
	if _, err := s.store.GetProfile(r.Context(), profileID); err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	c, err := s.store.CreateCompetitor(r.Context(), profileID, in, leadwatcher.CompetitorApproved, "manual")
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusCreated, c)
}

func (s *Server) updateCompetitor(w http.ResponseWriter, r *http.Request) {
	in, ok := readCompetitor(w, r)
	if !ok {
		return
	}
	c, err := s.store.UpdateCompetitor(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusOK, c)
}

func (s *Server) deleteCompetitor(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCompetitor(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) approveCompetitor(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.SetCompetitorStatus(r.Context(), chi.URLParam(r, "id"), leadwatcher.CompetitorApproved, "")
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusOK, c)
}

func (s *Server) rejectCompetitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	c, err := s.store.SetCompetitorStatus(r.Context(), chi.URLParam(r, "id"),
		leadwatcher.CompetitorRejected, strings.TrimSpace(body.Reason))
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusOK, c)
}

func (s *Server) approveAllCompetitors(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.ApproveAllCompetitors(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusOK, leadwatcher.BulkResult{Updated: n})
}

func (s *Server) rejectAllCompetitors(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	n, err := s.store.RejectAllCompetitors(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(body.Reason))
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusOK, leadwatcher.BulkResult{Updated: n})
}

func (s *Server) linkCompetitor(w http.ResponseWriter, r *http.Request) {
	var target leadwatcher.LinkTarget
	if err := decode(r, &target); err != nil || target.Type == "" || target.ID == "" {
		respondError(w, http.StatusUnprocessableEntity, "The target type and target id fields are required.")
		return
	}
	c, err := s.store.LinkCompetitor(r.Context(), chi.URLParam(r, "id"), target)
	if err != nil {
		respondStoreError(w, r, "Competitor", err)
		return
	}
	respondData(w, http.StatusOK, c)
}

func (s *Server) inferCompetitors(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	if _, err := s.store.GetProfile(r.Context(), profileID); err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	job, err := s.store.CreateInferenceJob(r.Context(), profileID)
	if err != nil {
		respondStoreError(w, r, "Inference job", err)
		return
	}
	respondData(w, http.StatusAccepted, job)
}

// getInferenceJob advances a job one step per poll. On completion up to
// three pending competitors not already on the profile are added.
func (s *Server) getInferenceJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := s.store.pollInferenceJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Inference job", err)
		return
	}

	done := job.Status == leadwatcher.JobCompleted || job.Status == leadwatcher.JobFailed
	switch {
	case done:
	case job.Polls >= jobFinishedAfter:
		job.Status, job.Suggested, job.Message = s.runInference(ctx, job.ProfileID)
		if err := s.store.finishInferenceJob(ctx, job.JobID, job.Status, job.Suggested, job.Message); err != nil {
			respondStoreError(w, r, "Inference job", err)
			return
		}
	case job.Polls >= jobRunningAfter:
		job.Status = leadwatcher.JobRunning
		if err := s.store.finishInferenceJob(ctx, job.JobID, job.Status, 0, ""); err != nil {
			respondStoreError(w, r, "Inference job", err)
			return
		}
	}
	respondData(w, http.StatusOK, job.InferenceJob)
}

// runInference adds suggestions for a profile and returns the job outcome.
func (s *Server) runInference(ctx context.Context, profileID string) (status string, suggested int, msg string) {
	p, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return leadwatcher.JobFailed, 0, "The ICP profile no longer exists."
	}
	if icp.CriteriaCount(p.Definition) == 0 {
		return leadwatcher.JobFailed, 0, "Add some ICP criteria before asking for suggestions."
	}
	known, err := s.store.competitorNames(ctx, profileID)
	if err != nil {
		return leadwatcher.JobFailed, 0, "Competitor suggestions failed."
	}
	for _, in := range suggestionPool {
		if suggested == maxSuggestions {
			break
		}
		if known[strings.ToLower(in.Name)] {
			continue
		}
		if _, err := s.store.CreateCompetitor(ctx, profileID, in, leadwatcher.CompetitorPending, "ai"); err != nil {
			return leadwatcher.JobFailed, suggested, "Competitor suggestions failed."
		}
		suggested++
	}
	return leadwatcher.JobCompleted, suggested, ""
}
