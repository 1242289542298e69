//go:build !integration

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/screen"
)

func TestToggleProfile(t *testing.T) {
	ctx := context.Background()
	client := newStubClient(t)

	form := icp.NewFormData()
	form.Name = "Ops leaders"
	created, err := client.CreateProfile(ctx, form)
	require.NoError(t, err)
	require.True(t, created.IsActive)

	var out bytes.Buffer
	list := screen.NewProfileList(client)
	require.NoError(t, toggleProfile(ctx, list, created.ID, &out))
	assert.Equal(t, "Ops leaders is now inactive\n", out.String())

	row, ok := list.Lookup(created.ID)
	require.True(t, ok)
	assert.False(t, row.IsActive)

	stored, err := client.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	out.Reset()
	require.NoError(t, toggleProfile(ctx, list, created.ID, &out))
	assert.Equal(t, "Ops leaders is now active\n", out.String())
}

func TestToggleProfile_Missing(t *testing.T) {
	var out bytes.Buffer
	list := screen.NewProfileList(newStubClient(t))

	err := toggleProfile(context.Background(), list, "missing", &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
	assert.Equal(t, "Profile not found.", list.Error())
}
