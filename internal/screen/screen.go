// Package screen contains the view models behind the CLI's list, editor,
// dashboard and detail views. Each screen owns its fetched rows; nothing is
// shared or cached across screens.
package screen

import (
	"context"
	"net/url"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatcher/internal/listing"
	"github.com/sells-group/leadwatcher/internal/rest"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// ErrNothingSelected is returned by bulk actions with an empty selection.
var ErrNothingSelected = eris.New("screen: no rows selected")

// Navigator moves the host application to another page.
type Navigator interface {
	Navigate(page string, params map[string]string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(page string, params map[string]string)

// Navigate calls fn.
func (fn NavigatorFunc) Navigate(page string, params map[string]string) { fn(page, params) }

// Page names passed to Navigator.
const (
	PageProfiles = "icp-profiles"
	PageLeads    = "leads"
	PageAccounts = "linkedin-accounts"
)

// list is the filter/sort/page/selection state and rows of a paginated
// screen.
type list[T any] struct {
	fetch func(context.Context, url.Values) (*leadwatcher.Page[T], error)
	id    func(T) string
	what  string
	gen   listing.Generation

	mu      sync.Mutex
	query   listing.Query
	rows    []T
	meta    leadwatcher.Meta
	sel     listing.Selection
	loading bool
	errMsg  string
}

func newList[T any](what, sortColumn string, id func(T) string,
	fetch func(context.Context, url.Values) (*leadwatcher.Page[T], error)) list[T] {
	return list[T]{fetch: fetch, id: id, what: what, query: listing.NewQuery(sortColumn), rows: []T{}}
}

// Load fetches the current page. A response superseded by a later Load is
// dropped without touching state.
func (l *list[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	q := l.query.Values()
	l.loading = true
	reqCtx, token := l.gen.Begin(ctx)
	l.mu.Unlock()
	defer l.gen.Finish(token)

	page, err := l.fetch(reqCtx, q)

	// Begin runs under mu, so checking the token under mu orders this
	// response against any newer Load.
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.gen.IsCurrent(token) {
		return nil
	}
	l.loading = false
	if err != nil {
		l.errMsg = rest.ErrorMessage(err, "Failed to load "+l.what)
		return eris.Wrap(err, "screen: load "+l.what)
	}
	l.rows = page.Data
	l.meta = page.Meta
	l.errMsg = ""
	return nil
}

// Query returns a copy of the filter/sort/page state.
func (l *list[T]) Query() listing.Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.query
	q.Filters = make(map[string]string, len(l.query.Filters))
	for k, v := range l.query.Filters {
		q.Filters[k] = v
	}
	return q
}

// SetFilter changes one filter and returns to page 1.
func (l *list[T]) SetFilter(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query.SetFilter(key, value)
}

// ClearFilter removes one filter and returns to page 1.
func (l *list[T]) ClearFilter(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query.ClearFilter(key)
}

// ToggleSort sorts by column, flipping direction if it is already active.
func (l *list[T]) ToggleSort(column string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query.ToggleSort(column)
}

// SetPage moves to page p.
func (l *list[T]) SetPage(p int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query.SetPage(p)
}

// SetPerPage changes the page size and returns to page 1.
func (l *list[T]) SetPerPage(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > 0 {
		l.query.PerPage = n
		l.query.Page = 1
	}
}

// Rows returns a copy of the loaded rows.
func (l *list[T]) Rows() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T{}, l.rows...)
}

// Meta returns the pagination block of the last load.
func (l *list[T]) Meta() leadwatcher.Meta {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.meta
}

// Loading reports whether a load is in flight.
func (l *list[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Error returns the last displayable error.
func (l *list[T]) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

// DismissError clears the error banner.
func (l *list[T]) DismissError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errMsg = ""
}

// ToggleSelect adds or removes one row from the selection.
func (l *list[T]) ToggleSelect(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sel.Toggle(id)
}

// SelectAll selects every row on the loaded page.
func (l *list[T]) SelectAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, len(l.rows))
	for i, r := range l.rows {
		ids[i] = l.id(r)
	}
	l.sel.SelectAll(ids)
}

// ClearSelection empties the selection.
func (l *list[T]) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sel.Clear()
}

// Selected returns the selected ids in selection order.
func (l *list[T]) Selected() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sel.IDs()
}

func (l *list[T]) setError(err error, fallback string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errMsg = rest.ErrorMessage(err, fallback)
	return err
}

// find returns the row with id and whether it exists. Callers hold mu.
func (l *list[T]) find(id string) (int, bool) {
	for i, r := range l.rows {
		if l.id(r) == id {
			return i, true
		}
	}
	return -1, false
}

// update applies fn to the row with id and returns the row as it was.
func (l *list[T]) update(id string, fn func(*T)) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.find(id)
	if !ok {
		var zero T
		return zero, false
	}
	prev := l.rows[i]
	fn(&l.rows[i])
	return prev, true
}

// replace swaps in r for the row with the same id.
func (l *list[T]) replace(r T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.find(l.id(r)); ok {
		l.rows[i] = r
	}
}

// remove drops the row with id.
func (l *list[T]) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.find(id); ok {
		l.rows = append(l.rows[:i], l.rows[i+1:]...)
	}
	if l.sel.Has(id) {
		l.sel.Toggle(id)
	}
}

// Lookup returns the loaded row with id.
func (l *list[T]) Lookup(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.find(id); ok {
		return l.rows[i], true
	}
	var zero T
	return zero, false
}

// upsert replaces the row with r's id or appends r.
func (l *list[T]) upsert(r T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.find(l.id(r)); ok {
		l.rows[i] = r
		return
	}
	l.rows = append(l.rows, r)
}

func (l *list[T]) appendRow(r T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, r)
}

func (l *list[T]) prependRow(r T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append([]T{r}, l.rows...)
}
