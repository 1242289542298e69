//go:build !integration

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/connect"
	"github.com/sells-group/leadwatcher/internal/resilience"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/internal/stubapi"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// newStubClient starts the stub API on a fresh database.
func newStubClient(t *testing.T) *leadwatcher.Client {
	t.Helper()
	store, err := stubapi.Open(filepath.Join(t.TempDir(), "stub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	srv := httptest.NewServer(stubapi.NewServer(store, stubapi.Options{}).Handler())
	t.Cleanup(srv.Close)
	return leadwatcher.NewClient(srv.URL+stubapi.Prefix, rest.WithRetry(resilience.NoRetry()))
}

// setAddFlags sets the accounts add flag variables for one test.
func setAddFlags(t *testing.T, email, secret string, manual bool) {
	t.Helper()
	oldEmail, oldSecret, oldManual := accountEmail, accountTOTP, accountManual
	accountEmail, accountTOTP, accountManual = email, secret, manual
	t.Cleanup(func() { accountEmail, accountTOTP, accountManual = oldEmail, oldSecret, oldManual })
}

func runAdd(t *testing.T, client *leadwatcher.Client, in string) (string, error) {
	t.Helper()
	flow := connect.New(client, connect.Options{
		TickInterval:    10 * time.Millisecond,
		PollInterval:    10 * time.Millisecond,
		MaxPollAttempts: 20,
	})
	defer flow.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	err := runAddAccount(cmd, flow, strings.NewReader(in), &out)
	return out.String(), err
}

func TestRunAddAccount_WithoutTOTP(t *testing.T) {
	client := newStubClient(t)
	setAddFlags(t, "plain@example.com", "", false)

	out, err := runAdd(t, client, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Added plain@example.com")
	assert.NotContains(t, out, "Testing connection")
}

func TestRunAddAccount_ConnectsWithTOTP(t *testing.T) {
	client := newStubClient(t)
	setAddFlags(t, "ops@example.com", "JBSW Y3DP EHPK 3PXP", false)

	out, err := runAdd(t, client, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticator code: ")
	assert.Contains(t, out, "Connected ops@example.com")

	accounts, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, leadwatcher.AccountConnected, accounts[0].Status)
}

func TestRunAddAccount_RejectedWithoutManual(t *testing.T) {
	client := newStubClient(t)
	setAddFlags(t, "fail@example.com", "JBSWY3DPEHPK3PXP", false)

	_, err := runAdd(t, client, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LinkedIn rejected the login")
}

func TestRunAddAccount_ManualFallback(t *testing.T) {
	client := newStubClient(t)
	setAddFlags(t, "fail@example.com", "JBSWY3DPEHPK3PXP", true)

	out, err := runAdd(t, client, "\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Log in at "+stubapi.LiveURL(""))
	assert.Contains(t, out, "Connected fail@example.com")
}

func TestRunAddAccount_EmailRequired(t *testing.T) {
	client := newStubClient(t)
	setAddFlags(t, "  ", "", false)

	_, err := runAdd(t, client, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, connect.ErrEmailRequired)
}
