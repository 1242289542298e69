//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []leadwatcher.SearchRun{
		{
			ID:             "abc12345-6789-0000-0000-000000000000",
			ICPProfileID:   "p1",
			ICPProfileName: "Fintech CFOs",
			Status:         leadwatcher.SearchRunCompleted,
			DiscoveryScope: "icp",
			Collected:      500,
			Filtered:       320,
			Retained:       180,
			StartedAt:      &now,
		},
		{
			ID:             "def12345-6789-0000-0000-000000000000",
			ICPProfileID:   "prof5678-0000",
			Status:         leadwatcher.SearchRunRunning,
			DiscoveryScope: "expanded",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, formatRunsList(&buf, runs))

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "Fintech CFOs")
	assert.Contains(t, output, "Completed")
	assert.Contains(t, output, "Running")
	assert.Contains(t, output, "180")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "abc12345")
	// Falls back to the short profile id when the name is missing.
	assert.Contains(t, output, "prof5678")
}

func TestFormatNarrowingStats(t *testing.T) {
	var buf bytes.Buffer
	formatNarrowingStats(&buf, leadwatcher.NarrowingStats{
		Runs:          3,
		Collected:     1000,
		Filtered:      600,
		Retained:      250,
		RetentionRate: 0.25,
	})

	output := buf.String()
	assert.Contains(t, output, "Runs:      3")
	assert.Contains(t, output, "Collected: 1000")
	assert.Contains(t, output, "Retained:  250")
	assert.Contains(t, output, "Retention: 25.0%")
}
