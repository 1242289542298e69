package screen

import (
	"context"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// ProfilesAPI is what the profile screens need from the client.
type ProfilesAPI interface {
	ListProfiles(ctx context.Context, q url.Values) (*leadwatcher.Page[icp.Profile], error)
	GetProfile(ctx context.Context, id string) (*icp.Profile, error)
	CreateProfile(ctx context.Context, form icp.FormData) (*icp.Profile, error)
	UpdateProfile(ctx context.Context, id string, form icp.FormData) (*icp.Profile, error)
	SetProfileActive(ctx context.Context, id string, active bool) (*icp.Profile, error)
	DuplicateProfile(ctx context.Context, id string) (*icp.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// ProfileRow is a profile with its list projections.
type ProfileRow struct {
	icp.Profile
	Summary string
	Tags    []string
}

// Row derives the list projections of p.
func Row(p icp.Profile) ProfileRow {
	return ProfileRow{Profile: p, Summary: icp.Summary(p.Definition), Tags: icp.Tags(p.Definition)}
}

// ProfileList lists ICP profiles.
type ProfileList struct {
	list[icp.Profile]
	api ProfilesAPI
}

// NewProfileList returns the profile list, most recently updated first.
func NewProfileList(api ProfilesAPI) *ProfileList {
	return &ProfileList{
		list: newList("profiles", "updated_at", func(p icp.Profile) string { return p.ID }, api.ListProfiles),
		api:  api,
	}
}

// Summaries returns the loaded profiles with their summary and tags.
func (s *ProfileList) Summaries() []ProfileRow {
	rows := s.Rows()
	out := make([]ProfileRow, len(rows))
	for i, p := range rows {
		out[i] = Row(p)
	}
	return out
}

// Fetch loads one profile into the list, replacing any copy already
// loaded.
func (s *ProfileList) Fetch(ctx context.Context, id string) (*icp.Profile, error) {
	p, err := s.api.GetProfile(ctx, id)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: get profile"), "Failed to load profile")
	}
	s.upsert(*p)
	return p, nil
}

// Duplicate clones a profile on the server and appends the copy.
func (s *ProfileList) Duplicate(ctx context.Context, id string) (*icp.Profile, error) {
	p, err := s.api.DuplicateProfile(ctx, id)
	if err != nil {
		return nil, s.setError(eris.Wrap(err, "screen: duplicate profile"), "Failed to duplicate profile")
	}
	s.appendRow(*p)
	return p, nil
}

// ToggleActive flips is_active locally and patches the server. On failure
// the flag is restored; on success the server's copy replaces the row.
func (s *ProfileList) ToggleActive(ctx context.Context, id string) error {
	var next bool
	prev, ok := s.update(id, func(p *icp.Profile) {
		p.IsActive = !p.IsActive
		next = p.IsActive
	})
	if !ok {
		return eris.Errorf("screen: profile %s is not loaded", id)
	}
	p, err := s.api.SetProfileActive(ctx, id, next)
	if err != nil {
		s.update(id, func(p *icp.Profile) { p.IsActive = prev.IsActive })
		return s.setError(eris.Wrap(err, "screen: toggle profile"), "Failed to update profile")
	}
	s.replace(*p)
	return nil
}

// Delete removes a profile.
func (s *ProfileList) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteProfile(ctx, id); err != nil {
		return s.setError(eris.Wrap(err, "screen: delete profile"), "Failed to delete profile")
	}
	s.remove(id)
	return nil
}

// ProfileEditor creates a new profile or edits an existing one.
type ProfileEditor struct {
	api ProfilesAPI
	nav Navigator

	// OnSaved fires with the server's copy after a successful save.
	OnSaved func(icp.Profile)

	mu     sync.Mutex
	id     string
	form   icp.FormData
	saving bool
	errMsg string
}

// NewProfileEditor returns an editor holding a blank form. nav may be nil.
func NewProfileEditor(api ProfilesAPI, nav Navigator) *ProfileEditor {
	return &ProfileEditor{api: api, nav: nav, form: icp.NewFormData()}
}

// Load fetches a profile into the form. The definition arrives already
// upgraded to canonical fields.
func (e *ProfileEditor) Load(ctx context.Context, id string) error {
	p, err := e.api.GetProfile(ctx, id)
	if err != nil {
		e.mu.Lock()
		e.errMsg = rest.ErrorMessage(err, "Failed to load profile")
		e.mu.Unlock()
		return eris.Wrap(err, "screen: load profile")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.id = p.ID
	e.form = icp.FormFromProfile(*p)
	e.errMsg = ""
	return nil
}

// IsNew reports whether saving will create a profile.
func (e *ProfileEditor) IsNew() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id == ""
}

// Form returns a copy of the form.
func (e *ProfileEditor) Form() icp.FormData {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.form
	f.Definition = e.form.Definition.Clone()
	return f
}

// Edit applies fn to the form.
func (e *ProfileEditor) Edit(fn func(*icp.FormData)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.form)
}

// Error returns the last displayable error.
func (e *ProfileEditor) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// Saving reports whether a save is in flight.
func (e *ProfileEditor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Save validates the form and creates or updates the profile. Validation
// failures return *icp.ValidationError without a request. On success OnSaved
// fires and the navigator is sent to the saved profile.
func (e *ProfileEditor) Save(ctx context.Context) (*icp.Profile, error) {
	e.mu.Lock()
	e.form.Normalize()
	form := e.form
	form.Definition = e.form.Definition.Clone()
	id := e.id
	if err := form.Validate(); err != nil {
		e.errMsg = rest.ErrorMessage(err, "Invalid profile")
		e.mu.Unlock()
		return nil, err
	}
	e.saving = true
	e.mu.Unlock()

	var (
		p   *icp.Profile
		err error
	)
	if id == "" {
		p, err = e.api.CreateProfile(ctx, form)
	} else {
		p, err = e.api.UpdateProfile(ctx, id, form)
	}

	e.mu.Lock()
	e.saving = false
	if err != nil {
		e.errMsg = rest.ErrorMessage(err, "Failed to save profile")
		e.mu.Unlock()
		return nil, eris.Wrap(err, "screen: save profile")
	}
	e.id = p.ID
	e.form = icp.FormFromProfile(*p)
	e.errMsg = ""
	e.mu.Unlock()

	if e.OnSaved != nil {
		e.OnSaved(*p)
	}
	if e.nav != nil {
		e.nav.Navigate(PageProfiles, map[string]string{"id": p.ID})
	}
	return p, nil
}
