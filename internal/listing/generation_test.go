package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneration_SupersededIsStale(t *testing.T) {
	var g Generation
	ctx1, tok1 := g.Begin(context.Background())
	_, tok2 := g.Begin(context.Background())

	assert.False(t, g.IsCurrent(tok1))
	assert.True(t, g.IsCurrent(tok2))
	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
}

func TestFetch_StaleResponseDropped(t *testing.T) {
	var g Generation
	release := make(chan struct{})
	started := make(chan struct{})
	errc := make(chan error, 1)

	go func() {
		_, err := Fetch(context.Background(), &g, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		errc <- err
	}()
	<-started

	got, err := Fetch(context.Background(), &g, func(ctx context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got)

	close(release)
	err = <-errc
	assert.True(t, IsStale(err))
}

func TestFetch_PassesError(t *testing.T) {
	var g Generation
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), &g, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsStale(err))
}

func TestGeneration_Cancel(t *testing.T) {
	var g Generation
	ctx, tok := g.Begin(context.Background())
	g.Cancel()
	assert.False(t, g.IsCurrent(tok))
	assert.Error(t, ctx.Err())
}
