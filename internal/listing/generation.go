package listing

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrStale is returned for a response that was superseded by a newer
// request for the same state slot.
var ErrStale = eris.New("listing: stale response")

// Generation guards one state slot (a list, a detail pane) against
// out-of-order responses. Each Begin cancels the previous request and
// issues a new token; only the latest token is current.
type Generation struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin starts a new request. The returned context is cancelled when a
// later Begin supersedes it or when Cancel is called.
func (g *Generation) Begin(ctx context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	reqCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	return reqCtx, g.seq
}

// IsCurrent reports whether token belongs to the latest request.
func (g *Generation) IsCurrent(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.seq
}

// Finish releases the context of token if it is still current.
func (g *Generation) Finish(token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == g.seq && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Cancel aborts the in-flight request, if any, and invalidates its token.
func (g *Generation) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}

// Fetch runs fn under a new generation. It returns ErrStale when another
// Fetch or Cancel superseded this one before fn returned, regardless of
// fn's own result.
func Fetch[T any](ctx context.Context, g *Generation, fn func(context.Context) (T, error)) (T, error) {
	reqCtx, token := g.Begin(ctx)
	defer g.Finish(token)

	out, err := fn(reqCtx)
	if !g.IsCurrent(token) {
		var zero T
		return zero, ErrStale
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// IsStale reports whether err marks a superseded response.
func IsStale(err error) bool {
	return eris.Is(err, ErrStale)
}
