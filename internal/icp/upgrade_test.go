package icp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_LegacyFallback(t *testing.T) {
	raw := []byte(`{
		"titles": ["CTO", "VP Engineering"],
		"industries": ["computer_software"],
		"company_sizes": ["51-200"],
		"company_types": ["b2b"],
		"locations": ["Germany"],
		"keywords": ["devtools"],
		"min_engagement_score": 40
	}`)

	d, err := Reconcile(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"CTO", "VP Engineering"}, d.PersonTitle)
	assert.Equal(t, []string{"computer_software"}, d.Industry)
	assert.Equal(t, []string{"51-200"}, d.CompanyEmployeeSize)
	assert.Equal(t, []string{"b2b"}, d.BusinessModel)
	assert.Equal(t, []string{"Germany"}, d.PersonCountry)
	assert.Equal(t, []string{"devtools"}, d.IndustryKeywords)
	require.NotNil(t, d.MinEngagementScore)
	assert.InDelta(t, 40, *d.MinEngagementScore, 0)
}

func TestReconcile_CanonicalWins(t *testing.T) {
	d, err := Reconcile([]byte(`{"personTitle":["CEO"],"titles":["CTO"],"job_titles":["CFO"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"CEO"}, d.PersonTitle)
}

func TestReconcile_SecondLegacyInChain(t *testing.T) {
	d, err := Reconcile([]byte(`{"job_titles":["CFO"],"geography":["Canada"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"CFO"}, d.PersonTitle)
	assert.Equal(t, []string{"Canada"}, d.PersonCountry)
}

func TestReconcile_PresentEmptyArrayIsKept(t *testing.T) {
	d, err := Reconcile([]byte(`{"personTitle":[],"titles":["CTO"]}`))
	require.NoError(t, err)
	assert.Empty(t, d.PersonTitle)
}

func TestReconcile_AbsentFieldsDefault(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`} {
		d, err := Reconcile([]byte(raw))
		require.NoError(t, err, raw)
		for _, f := range Fields {
			assert.NotNil(t, *d.list(f), "%s in %q", f, raw)
		}
		assert.True(t, d.IncludeEmails)
		assert.Equal(t, DefaultTotalResults, d.TotalResults)
	}
}

func TestReconcile_ScalarsRespected(t *testing.T) {
	d, err := Reconcile([]byte(`{"includeEmails":false,"totalResults":250,"fundingFromDate":"2024-01-01"}`))
	require.NoError(t, err)
	assert.False(t, d.IncludeEmails)
	assert.Equal(t, 250, d.TotalResults)
	assert.Equal(t, "2024-01-01", d.FundingFromDate)
}

func TestReconcile_InvalidJSON(t *testing.T) {
	_, err := Reconcile([]byte(`{"titles": "oops"}`))
	require.Error(t, err)
}

func TestDefinition_UnmarshalUpgradesInsideProfile(t *testing.T) {
	var p Profile
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "p1",
		"name": "Legacy",
		"definition": {"titles": ["Founder"], "industries": ["retail"]}
	}`), &p))

	assert.Equal(t, []string{"Founder"}, p.Definition.PersonTitle)
	assert.Equal(t, []string{"retail"}, p.Definition.Industry)
	assert.Equal(t, "1 job title • 1 industry", Summary(p.Definition))
}

func TestDefinition_MarshalNeverWritesLegacy(t *testing.T) {
	d, err := Reconcile([]byte(`{"titles":["CTO"],"min_engagement_score":10}`))
	require.NoError(t, err)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "titles")
	assert.NotContains(t, string(data), "min_engagement_score")
	assert.Contains(t, string(data), `"personTitle":["CTO"]`)
}
