// Package icp models Ideal Customer Profile definitions: the canonical
// filter schema, its closed vocabularies, the read-time upgrade from legacy
// records, and the pure edit helpers used by the profile editor.
package icp

// SchemaVersion is the canonical definition schema produced by Upgrade.
const SchemaVersion = 2

// Default scalar values for a new or partially populated definition.
const (
	DefaultTotalResults  = 100
	DefaultIncludeEmails = true
	MinTotalResults      = 10
	MaxTotalResults      = 500
	TotalResultsStep     = 10
)

// Field names an array-typed canonical definition field.
type Field string

const (
	FieldPersonTitle         Field = "personTitle"
	FieldSeniority           Field = "seniority"
	FieldFunctional          Field = "functional"
	FieldPersonCountry       Field = "personCountry"
	FieldPersonState         Field = "personState"
	FieldIndustry            Field = "industry"
	FieldIndustryKeywords    Field = "industryKeywords"
	FieldCompanyEmployeeSize Field = "companyEmployeeSize"
	FieldCompanyCountry      Field = "companyCountry"
	FieldCompanyState        Field = "companyState"
	FieldCompanyDomain       Field = "companyDomain"
	FieldBusinessModel       Field = "businessModel"
	FieldRevenue             Field = "revenue"
	FieldFundingType         Field = "fundingType"
	FieldContactEmailStatus  Field = "contactEmailStatus"
	FieldExcludedDomains     Field = "excluded_domains"
	FieldExcludedKeywords    Field = "excluded_keywords"
)

// Fields lists every array-typed field in editor order.
var Fields = []Field{
	FieldPersonTitle, FieldSeniority, FieldFunctional, FieldPersonCountry, FieldPersonState,
	FieldIndustry, FieldIndustryKeywords, FieldCompanyEmployeeSize, FieldCompanyCountry,
	FieldCompanyState, FieldCompanyDomain, FieldBusinessModel, FieldRevenue,
	FieldFundingType, FieldContactEmailStatus, FieldExcludedDomains, FieldExcludedKeywords,
}

// Valid reports whether f is a known array field.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Definition is the canonical ICP search definition. Array fields are never
// nil once a Definition has passed through CreateDefault or Upgrade.
type Definition struct {
	// Person
	PersonTitle   []string `json:"personTitle"`
	Seniority     []string `json:"seniority"`
	Functional    []string `json:"functional"`
	PersonCountry []string `json:"personCountry"`
	PersonState   []string `json:"personState"`

	// Company
	Industry            []string `json:"industry"`
	IndustryKeywords    []string `json:"industryKeywords"`
	CompanyEmployeeSize []string `json:"companyEmployeeSize"`
	CompanyCountry      []string `json:"companyCountry"`
	CompanyState        []string `json:"companyState"`
	CompanyDomain       []string `json:"companyDomain"`
	BusinessModel       []string `json:"businessModel"`
	Revenue             []string `json:"revenue"`

	// Funding. Dates are ISO (YYYY-MM-DD) strings.
	FundingType     []string `json:"fundingType"`
	FundingFromDate string   `json:"fundingFromDate,omitempty"`
	FundingToDate   string   `json:"fundingToDate,omitempty"`

	// Contact and search options
	IncludeEmails      bool     `json:"includeEmails"`
	ContactEmailStatus []string `json:"contactEmailStatus"`
	TotalResults       int      `json:"totalResults"`

	// Exclusions
	ExcludedDomains  []string `json:"excluded_domains"`
	ExcludedKeywords []string `json:"excluded_keywords"`

	// MinEngagementScore is only ever read from legacy records.
	MinEngagementScore *float64 `json:"-"`
}

// CreateDefault returns a definition with every array empty, emails
// included and the default result count.
func CreateDefault() Definition {
	var d Definition
	for _, f := range Fields {
		*d.list(f) = []string{}
	}
	d.IncludeEmails = DefaultIncludeEmails
	d.TotalResults = DefaultTotalResults
	return d
}

// Values returns a copy of the values stored under f.
func (d Definition) Values(f Field) []string {
	p := d.list(f)
	if p == nil {
		return nil
	}
	return append([]string{}, (*p)...)
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	out := d
	for _, f := range Fields {
		*out.list(f) = append([]string{}, (*d.list(f))...)
	}
	if d.MinEngagementScore != nil {
		v := *d.MinEngagementScore
		out.MinEngagementScore = &v
	}
	return out
}

// with returns a copy of d where f holds values.
func (d Definition) with(f Field, values []string) Definition {
	out := d.Clone()
	if p := out.list(f); p != nil {
		*p = values
	}
	return out
}

func (d *Definition) list(f Field) *[]string {
	switch f {
	case FieldPersonTitle:
		return &d.PersonTitle
	case FieldSeniority:
		return &d.Seniority
	case FieldFunctional:
		return &d.Functional
	case FieldPersonCountry:
		return &d.PersonCountry
	case FieldPersonState:
		return &d.PersonState
	case FieldIndustry:
		return &d.Industry
	case FieldIndustryKeywords:
		return &d.IndustryKeywords
	case FieldCompanyEmployeeSize:
		return &d.CompanyEmployeeSize
	case FieldCompanyCountry:
		return &d.CompanyCountry
	case FieldCompanyState:
		return &d.CompanyState
	case FieldCompanyDomain:
		return &d.CompanyDomain
	case FieldBusinessModel:
		return &d.BusinessModel
	case FieldRevenue:
		return &d.Revenue
	case FieldFundingType:
		return &d.FundingType
	case FieldContactEmailStatus:
		return &d.ContactEmailStatus
	case FieldExcludedDomains:
		return &d.ExcludedDomains
	case FieldExcludedKeywords:
		return &d.ExcludedKeywords
	}
	return nil
}
