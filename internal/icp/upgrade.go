package icp

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// WireDefinition is a definition as the API may return it: canonical
// fields, legacy fields, or a mix of both. Nil slices mean "absent".
type WireDefinition struct {
	PersonTitle         []string `json:"personTitle"`
	Seniority           []string `json:"seniority"`
	Functional          []string `json:"functional"`
	PersonCountry       []string `json:"personCountry"`
	PersonState         []string `json:"personState"`
	Industry            []string `json:"industry"`
	IndustryKeywords    []string `json:"industryKeywords"`
	CompanyEmployeeSize []string `json:"companyEmployeeSize"`
	CompanyCountry      []string `json:"companyCountry"`
	CompanyState        []string `json:"companyState"`
	CompanyDomain       []string `json:"companyDomain"`
	BusinessModel       []string `json:"businessModel"`
	Revenue             []string `json:"revenue"`
	FundingType         []string `json:"fundingType"`
	FundingFromDate     *string  `json:"fundingFromDate"`
	FundingToDate       *string  `json:"fundingToDate"`
	IncludeEmails       *bool    `json:"includeEmails"`
	ContactEmailStatus  []string `json:"contactEmailStatus"`
	TotalResults        *int     `json:"totalResults"`
	ExcludedDomains     []string `json:"excluded_domains"`
	ExcludedKeywords    []string `json:"excluded_keywords"`

	// Legacy (schema version 1) names.
	Titles             []string `json:"titles"`
	Industries         []string `json:"industries"`
	CompanySizes       []string `json:"company_sizes"`
	CompanyTypes       []string `json:"company_types"`
	Locations          []string `json:"locations"`
	Keywords           []string `json:"keywords"`
	Geography          []string `json:"geography"`
	JobTitles          []string `json:"job_titles"`
	MinEngagementScore *float64 `json:"min_engagement_score"`
}

// firstPresent returns the first non-nil candidate, or an empty slice.
func firstPresent(candidates ...[]string) []string {
	for _, c := range candidates {
		if c != nil {
			return append([]string{}, c...)
		}
	}
	return []string{}
}

// Upgrade converts a wire definition to the canonical schema. Each
// canonical field takes its own value when present, else the legacy
// fallback chain, else an empty slice. Scalars fall back to defaults.
func Upgrade(w WireDefinition) Definition {
	d := Definition{
		PersonTitle:         firstPresent(w.PersonTitle, w.Titles, w.JobTitles),
		Seniority:           firstPresent(w.Seniority),
		Functional:          firstPresent(w.Functional),
		PersonCountry:       firstPresent(w.PersonCountry, w.Locations, w.Geography),
		PersonState:         firstPresent(w.PersonState),
		Industry:            firstPresent(w.Industry, w.Industries),
		IndustryKeywords:    firstPresent(w.IndustryKeywords, w.Keywords),
		CompanyEmployeeSize: firstPresent(w.CompanyEmployeeSize, w.CompanySizes),
		CompanyCountry:      firstPresent(w.CompanyCountry),
		CompanyState:        firstPresent(w.CompanyState),
		CompanyDomain:       firstPresent(w.CompanyDomain),
		BusinessModel:       firstPresent(w.BusinessModel, w.CompanyTypes),
		Revenue:             firstPresent(w.Revenue),
		FundingType:         firstPresent(w.FundingType),
		ContactEmailStatus:  firstPresent(w.ContactEmailStatus),
		ExcludedDomains:     firstPresent(w.ExcludedDomains),
		ExcludedKeywords:    firstPresent(w.ExcludedKeywords),
		IncludeEmails:       DefaultIncludeEmails,
		TotalResults:        DefaultTotalResults,
		MinEngagementScore:  w.MinEngagementScore,
	}
	if w.FundingFromDate != nil {
		d.FundingFromDate = *w.FundingFromDate
	}
	if w.FundingToDate != nil {
		d.FundingToDate = *w.FundingToDate
	}
	if w.IncludeEmails != nil {
		d.IncludeEmails = *w.IncludeEmails
	}
	if w.TotalResults != nil {
		d.TotalResults = *w.TotalResults
	}
	return d
}

// Reconcile decodes a server definition in any supported shape into the
// canonical schema. Null or empty input yields CreateDefault().
func Reconcile(raw []byte) (Definition, error) {
	var w WireDefinition
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &w); err != nil {
			return Definition{}, eris.Wrap(err, "icp: decode definition")
		}
	}
	return Upgrade(w), nil
}

// UnmarshalJSON upgrades legacy and partial definitions while decoding, so
// nothing past the API boundary sees legacy names.
func (d *Definition) UnmarshalJSON(data []byte) error {
	def, err := Reconcile(data)
	if err != nil {
		return err
	}
	*d = def
	return nil
}
