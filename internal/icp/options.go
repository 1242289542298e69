package icp

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Option is one entry of a closed vocabulary.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Humanize turns a slug such as "series_a" into "Series A".
func Humanize(value string) string {
	// Casers are stateful, so each call gets its own.
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(value))
}

func slugOptions(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: Humanize(v)}
	}
	return out
}

func literalOptions(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

// Closed vocabularies offered by the profile editor.
var (
	SeniorityOptions = literalOptions(
		"Owner", "Founder", "C-Suite", "Partner", "VP", "Head",
		"Director", "Manager", "Senior", "Entry", "Intern",
	)

	FunctionalOptions = slugOptions(
		"engineering", "sales", "marketing", "finance", "operations",
		"human_resources", "information_technology", "product_management",
		"legal", "customer_success", "design", "consulting", "support",
	)

	IndustryOptions = slugOptions(
		"computer_software", "information_technology_and_services", "internet",
		"financial_services", "banking", "insurance", "hospital_and_health_care",
		"medical_devices", "pharmaceuticals", "marketing_and_advertising",
		"staffing_and_recruiting", "management_consulting", "real_estate",
		"construction", "education_management", "e_learning", "retail",
		"consumer_goods", "logistics_and_supply_chain", "telecommunications",
		"automotive", "manufacturing", "accounting", "legal_services",
	)

	CountryOptions = literalOptions(
		"United States", "Canada", "United Kingdom", "Ireland", "Germany", "France",
		"Netherlands", "Belgium", "Spain", "Italy", "Sweden", "Norway", "Denmark",
		"Finland", "Switzerland", "Austria", "Poland", "Portugal", "Australia",
		"New Zealand", "Singapore", "India", "Japan", "Brazil", "Mexico",
		"Israel", "United Arab Emirates", "South Africa",
	)

	StateOptions = literalOptions(
		"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
		"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho",
		"Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana", "Maine",
		"Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
		"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
		"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
		"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
		"South Dakota", "Tennessee", "Texas", "Utah", "Vermont", "Virginia",
		"Washington", "West Virginia", "Wisconsin", "Wyoming", "District of Columbia",
	)

	EmployeeSizeOptions = literalOptions(
		"1-10", "11-50", "51-200", "201-500", "501-1000",
		"1001-5000", "5001-10000", "10001+",
	)

	RevenueOptions = []Option{
		{Value: "0-1M", Label: "Under $1M"},
		{Value: "1M-10M", Label: "$1M - $10M"},
		{Value: "10M-50M", Label: "$10M - $50M"},
		{Value: "50M-100M", Label: "$50M - $100M"},
		{Value: "100M-500M", Label: "$100M - $500M"},
		{Value: "500M-1B", Label: "$500M - $1B"},
		{Value: "1B+", Label: "Over $1B"},
	}

	BusinessModelOptions = []Option{
		{Value: "b2b", Label: "B2B"},
		{Value: "b2c", Label: "B2C"},
		{Value: "b2b2c", Label: "B2B2C"},
		{Value: "saas", Label: "SaaS"},
		{Value: "marketplace", Label: "Marketplace"},
		{Value: "ecommerce", Label: "E-commerce"},
		{Value: "services", Label: "Services"},
	}

	FundingTypeOptions = slugOptions(
		"pre_seed", "seed", "angel", "series_a", "series_b", "series_c",
		"series_d", "series_e", "private_equity", "debt_financing", "grant", "ipo",
	)

	EmailStatusOptions = slugOptions(
		"verified", "unverified", "likely_to_engage", "unavailable",
	)
)

// Vocabulary returns the closed vocabulary for f, or nil for free-text
// fields.
func Vocabulary(f Field) []Option {
	switch f {
	case FieldSeniority:
		return SeniorityOptions
	case FieldFunctional:
		return FunctionalOptions
	case FieldIndustry:
		return IndustryOptions
	case FieldPersonCountry, FieldCompanyCountry:
		return CountryOptions
	case FieldPersonState, FieldCompanyState:
		return StateOptions
	case FieldCompanyEmployeeSize:
		return EmployeeSizeOptions
	case FieldRevenue:
		return RevenueOptions
	case FieldBusinessModel:
		return BusinessModelOptions
	case FieldFundingType:
		return FundingTypeOptions
	case FieldContactEmailStatus:
		return EmailStatusOptions
	}
	return nil
}

// FreeText reports whether f accepts arbitrary tags.
func FreeText(f Field) bool {
	return f.Valid() && Vocabulary(f) == nil
}

// IsKnown reports whether value belongs to f's vocabulary. Free-text
// fields accept anything.
func IsKnown(f Field, value string) bool {
	opts := Vocabulary(f)
	if opts == nil {
		return f.Valid()
	}
	return slices.ContainsFunc(opts, func(o Option) bool { return o.Value == value })
}

// Unknown returns the values in d that fall outside their vocabulary.
func Unknown(d Definition) map[Field][]string {
	out := map[Field][]string{}
	for _, f := range Fields {
		for _, v := range *d.list(f) {
			if !IsKnown(f, v) {
				out[f] = append(out[f], v)
			}
		}
	}
	return out
}

// Search filters options whose label or value contains query,
// case-insensitively. An empty query returns every option.
func Search(options []Option, query string) []Option {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return options
	}
	var out []Option
	for _, o := range options {
		if strings.Contains(strings.ToLower(o.Label), q) || strings.Contains(strings.ToLower(o.Value), q) {
			out = append(out, o)
		}
	}
	return out
}
