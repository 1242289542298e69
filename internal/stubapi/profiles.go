package stubapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/leadwatcher/internal/icp"
)

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	p := listParams(r, "is_active", "q")
	profiles, total, err := s.store.ListProfiles(r.Context(), p)
	if err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	respondPage(w, profiles, newPageMeta(p, total, len(profiles)))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	respondData(w, http.StatusOK, p)
}

// readForm decodes and validates a profile form, writing the error
// response itself when the form is unusable.
func readForm(w http.ResponseWriter, r *http.Request) (icp.FormData, bool) {
	form := icp.NewFormData()
	if err := decode(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return form, false
	}
	form.Normalize()
	if err := form.Validate(); err != nil {
		var verr *icp.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusUnprocessableEntity, verr.UserMessage())
			return form, false
		}
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return form, false
	}
	return form, true
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	form, ok := readForm(w, r)
	if !ok {
		return
	}
	p, err := s.store.CreateProfile(r.Context(), form)
	if err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	respondData(w, http.StatusCreated, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	form, ok := readForm(w, r)
	if !ok {
		return
	}
	p, err := s.store.UpdateProfile(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (s *Server) setProfileActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := decode(r, &body); err != nil || body.IsActive == nil {
		respondError(w, http.StatusUnprocessableEntity, "The is_active field is required.")
		return
	}
	p, err := s.store.SetProfileActive(r.Context(), chi.URLParam(r, "id"), *body.IsActive)
	if err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (s *Server) duplicateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.DuplicateProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	respondData(w, http.StatusCreated, p)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, r, "Profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
