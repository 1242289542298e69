package icp

import (
	"fmt"
	"strings"
	"time"
)

// Stats are the server-computed aggregates for a profile.
type Stats struct {
	LeadsMatched int     `json:"leads_matched"`
	AvgScore     float64 `json:"avg_score"`
}

// Profile is a named, owned ICP definition.
type Profile struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Definition      Definition `json:"definition"`
	IsActive        bool       `json:"is_active"`
	CreatedByUserID string     `json:"created_by_user_id,omitempty"`
	Stats           *Stats     `json:"stats,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// FormData is the body sent when creating or saving a profile.
type FormData struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Definition  Definition `json:"definition"`
	IsActive    bool       `json:"is_active"`
}

// NewFormData returns the form for a new profile: defaulted definition,
// active.
func NewFormData() FormData {
	return FormData{Definition: CreateDefault(), IsActive: true}
}

// FormFromProfile returns an editable form for p.
func FormFromProfile(p Profile) FormData {
	return FormData{
		Name:        p.Name,
		Description: p.Description,
		Definition:  p.Definition.Clone(),
		IsActive:    p.IsActive,
	}
}

// ValidationError is a local form error; it never involves the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("icp: invalid %s: %s", e.Field, e.Message)
}

// UserMessage is the inline text shown for the error.
func (e *ValidationError) UserMessage() string { return e.Message }

const isoDate = "2006-01-02"

// Normalize trims the name and description in place.
func (f *FormData) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
}

// Validate checks the form before it is submitted: a non-blank name, a
// result count inside the slider range, and well-formed, ordered funding
// dates.
func (f FormData) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Message: "Profile name is required"}
	}

	d := f.Definition
	if d.TotalResults < MinTotalResults || d.TotalResults > MaxTotalResults {
		return &ValidationError{
			Field:   "totalResults",
			Message: fmt.Sprintf("Total results must be between %d and %d", MinTotalResults, MaxTotalResults),
		}
	}

	var from, to time.Time
	var err error
	if d.FundingFromDate != "" {
		if from, err = time.Parse(isoDate, d.FundingFromDate); err != nil {
			return &ValidationError{Field: "fundingFromDate", Message: "Funding from date must be YYYY-MM-DD"}
		}
	}
	if d.FundingToDate != "" {
		if to, err = time.Parse(isoDate, d.FundingToDate); err != nil {
			return &ValidationError{Field: "fundingToDate", Message: "Funding to date must be YYYY-MM-DD"}
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return &ValidationError{Field: "fundingToDate", Message: "Funding to date must not be before the from date"}
	}
	return nil
}
