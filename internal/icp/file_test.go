package icp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "profile.yaml", `
name: "  SaaS Founders "
definition:
  seniority: [VP, Director]
  totalResults: 250
  fundingFromDate: 2024-01-01
`)
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SaaS Founders", f.Name)
	assert.True(t, f.IsActive)
	assert.Equal(t, []string{"VP", "Director"}, f.Definition.Seniority)
	assert.Equal(t, 250, f.Definition.TotalResults)
	assert.Equal(t, "2024-01-01", f.Definition.FundingFromDate)
	assert.True(t, f.Definition.IncludeEmails)
	assert.NotNil(t, f.Definition.Industry)
}

func TestParseYAML_UnquotedDates(t *testing.T) {
	f, err := ParseYAML([]byte("name: x\ndefinition:\n  fundingFromDate: 2023-02-01\n  fundingToDate: 2024-06-30\n"))
	require.NoError(t, err)
	assert.Equal(t, "2023-02-01", f.Definition.FundingFromDate)
	assert.Equal(t, "2024-06-30", f.Definition.FundingToDate)

	_, err = ParseYAML([]byte("name: x\ndefinition:\n  fundingToDate: 2024-06-30T10:00:00Z\n"))
	assert.Error(t, err)

	_, err = ParseYAML(nil)
	assert.Error(t, err)
}

func TestLoadFile_JSONLegacy(t *testing.T) {
	path := writeFile(t, "profile.json", `{"name":"Old","is_active":false,"definition":{"titles":["CTO"]}}`)
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, f.IsActive)
	assert.Equal(t, []string{"CTO"}, f.Definition.PersonTitle)
}

func TestLoadFile_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing name":   `{"definition":{}}`,
		"unknown field":  `{"name":"x","definition":{"seniorty":["VP"]}}`,
		"wrong type":     `{"name":"x","definition":{"seniority":"VP"}}`,
		"bad date":       `{"name":"x","definition":{"fundingToDate":"June 1"}}`,
		"float results":  `{"name":"x","definition":{"totalResults":12.5}}`,
		"top-level junk": `{"name":"x","owner":"me"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "p.json", body))
			require.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	f := NewFormData()
	f.Name = "Round Trip"
	f.Definition.CompanyEmployeeSize = []string{"1-10", "10001+"}
	f.Definition.Revenue = []string{"1B+"}

	out, err := MarshalYAML(f)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "{")

	back, err := ParseYAML(out)
	require.NoError(t, err)
	assert.Equal(t, f.Name, back.Name)
	assert.Equal(t, f.Definition.CompanyEmployeeSize, back.Definition.CompanyEmployeeSize)
	assert.Equal(t, f.Definition.Revenue, back.Definition.Revenue)
}
