package stubapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

var leadFilterNames = []string{"status", "icp_profile_id", "min_score", "discovery_scope", "q"}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	p := listParams(r, leadFilterNames...)
	leads, total, err := s.store.ListLeads(r.Context(), p)
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}
	respondPage(w, leads, newPageMeta(p, total, len(leads)))
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}
	respondData(w, http.StatusOK, l)
}

func readStatus(w http.ResponseWriter, raw leadwatcher.LeadStatus) bool {
	if !raw.Valid() {
		respondError(w, http.StatusUnprocessableEntity, "The selected status is invalid.")
		return false
	}
	return true
}

func (s *Server) updateLeadStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status leadwatcher.LeadStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if !readStatus(w, body.Status) {
		return
	}
	l, err := s.store.UpdateLeadStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}
	respondData(w, http.StatusOK, l)
}

func (s *Server) bulkLeadStatus(w http.ResponseWriter, r *http.Request) {
	var body leadwatcher.BulkStatusRequest
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if len(body.LeadIDs) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "The lead ids field is required.")
		return
	}
	if !readStatus(w, body.Status) {
		return
	}
	n, err := s.store.BulkUpdateLeadStatus(r.Context(), body.LeadIDs, body.Status)
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}
	respondData(w, http.StatusOK, leadwatcher.BulkStatusResult{Updated: n})
}

// enrichLeadEmail derives a first.last address from the company domain.
func (s *Server) enrichLeadEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := s.store.GetLead(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}
	if l.CompanyDomain == "" {
		respondError(w, http.StatusUnprocessableEntity, "No company domain to look up an email for.")
		return
	}
	local := strings.Join(strings.Fields(strings.ToLower(l.FullName)), ".")
	if local == "" {
		local = "contact"
	}
	l, err = s.store.SetLeadEmail(r.Context(), id, local+"@"+l.CompanyDomain, "guessed")
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}
	respondData(w, http.StatusOK, l)
}

var exportHeader = []string{
	"id", "full_name", "title", "company_name", "company_domain", "email",
	"linkedin_url", "location", "score", "status", "created_at",
}

// exportLeads writes every lead matching the filters as CSV.
func (s *Server) exportLeads(w http.ResponseWriter, r *http.Request) {
	p := listParams(r, leadFilterNames...)
	p.Page, p.PerPage = 1, 0
	leads, _, err := s.store.ListLeads(r.Context(), p)
	if err != nil {
		respondStoreError(w, r, "Lead", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	cw := csv.NewWriter(w)
	cw.Write(exportHeader) //nolint:errcheck
	for _, l := range leads {
		created := ""
		if l.CreatedAt != nil {
			created = l.CreatedAt.Format("2006-01-02")
		}
		cw.Write([]string{ //nolint:errcheck
			l.ID, l.FullName, l.Title, l.CompanyName, l.CompanyDomain, l.Email,
			l.LinkedInURL, l.Location, strconv.FormatFloat(l.Score, 'f', -1, 64),
			string(l.Status), created,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		zap.L().Warn("stubapi: write export", zap.Error(err))
	}
}
