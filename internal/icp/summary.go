package icp

import (
	"fmt"
	"strings"
)

const maxSummaryTags = 4

// NoCriteria is the summary of a definition with nothing to show.
const NoCriteria = "No criteria defined"

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}

// Summary renders a short description such as "3 job titles • 2 industries".
func Summary(d Definition) string {
	var parts []string
	if n := len(d.PersonTitle); n > 0 {
		parts = append(parts, plural(n, "job title", "job titles"))
	}
	if n := len(d.Industry); n > 0 {
		parts = append(parts, plural(n, "industry", "industries"))
	}
	if n := len(d.PersonCountry); n > 0 {
		parts = append(parts, plural(n, "location", "locations"))
	}
	if n := len(d.CompanyEmployeeSize); n > 0 {
		parts = append(parts, plural(n, "company size", "company sizes"))
	}
	if len(parts) == 0 {
		return NoCriteria
	}
	return strings.Join(parts, " • ")
}

// Tags returns up to two job titles followed by up to two industries.
func Tags(d Definition) []string {
	tags := make([]string, 0, maxSummaryTags)
	tags = append(tags, d.PersonTitle[:min(2, len(d.PersonTitle))]...)
	tags = append(tags, d.Industry[:min(2, len(d.Industry))]...)
	return tags[:min(maxSummaryTags, len(tags))]
}

// CriteriaCount is the number of values set across every array field.
func CriteriaCount(d Definition) int {
	n := 0
	for _, f := range Fields {
		n += len(*d.list(f))
	}
	return n
}
