package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"icp", "leads", "runs", "agents", "accounts", "competitors", "queue", "insights", "campaigns", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "leadwatcher", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestGroupCommands_HaveSubcommands(t *testing.T) {
	tests := []struct {
		group    string
		expected []string
	}{
		{"icp", []string{"list", "show", "create", "update", "toggle", "duplicate", "delete", "summary", "options"}},
		{"leads", []string{"list", "show", "status", "bulk-status", "export", "enrich", "draft"}},
		{"runs", []string{"list", "show", "create", "stats", "expand"}},
		{"agents", []string{"list", "create", "start", "pause", "delete"}},
		{"accounts", []string{"list", "add", "connect", "disconnect", "delete", "rate-limit", "warmup"}},
		{"competitors", []string{"list", "add", "update", "approve", "reject", "approve-all", "reject-all", "delete", "link", "suggest"}},
		{"queue", []string{"today", "build", "action", "history"}},
		{"campaigns", []string{"list", "show", "start", "pause", "resume", "complete", "enroll"}},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			group, _, err := rootCmd.Find([]string{tt.group})
			require.NoError(t, err)
			names := make(map[string]bool)
			for _, c := range group.Commands() {
				names[c.Name()] = true
			}
			for _, name := range tt.expected {
				assert.True(t, names[name], "%s should have subcommand %q", tt.group, name)
			}
		})
	}
}

func TestLeadsListCommand_Flags(t *testing.T) {
	for _, name := range []string{"status", "profile", "min-score", "scope", "search", "page", "per-page", "sort", "asc"} {
		assert.NotNil(t, leadsListCmd.Flags().Lookup(name), "leads list should have --%s flag", name)
	}
	flag := leadsListCmd.Flags().Lookup("per-page")
	require.NotNil(t, flag)
	assert.Equal(t, "25", flag.DefValue)
}

func TestLeadsExportCommand_Flags(t *testing.T) {
	assert.NotNil(t, leadsExportCmd.Flags().Lookup("format"))
	assert.NotNil(t, leadsExportCmd.Flags().ShorthandLookup("o"))
	// Exports ignore pagination.
	assert.Nil(t, leadsExportCmd.Flags().Lookup("page"))
}

func TestAccountsAddCommand_Flags(t *testing.T) {
	for _, name := range []string{"email", "name", "password", "totp-secret", "manual"} {
		assert.NotNil(t, accountsAddCmd.Flags().Lookup(name), "accounts add should have --%s flag", name)
	}
}

func TestCompetitorsCommand_ProfileFlag(t *testing.T) {
	flag := competitorsCmd.PersistentFlags().Lookup("profile")
	require.NotNil(t, flag, "competitors should have a persistent --profile flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)

	seed := serveCmd.Flags().Lookup("seed")
	require.NotNil(t, seed)
	assert.Equal(t, "false", seed.DefValue)
}

func TestInsightsCommand_Flags(t *testing.T) {
	flag := insightsCmd.Flags().Lookup("days")
	require.NotNil(t, flag)
	assert.Equal(t, "30", flag.DefValue)
}
