// Package listing holds the filter, sort, pagination and selection state
// shared by the list screens, plus the request generation guard that keeps
// stale responses from overwriting fresher ones.
package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultDirection is applied when a new sort column is chosen.
const DefaultDirection = Desc

// DefaultPerPage is the page size used when none is set.
const DefaultPerPage = 25

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Query is the filter/sort/page state of one list screen.
type Query struct {
	Filters   map[string]string
	Page      int
	PerPage   int
	Sort      string
	Direction Direction
}

// NewQuery returns a query on page 1 with no filters, sorted by column in
// the default direction. An empty column leaves ordering to the server.
func NewQuery(column string) Query {
	return Query{
		Filters:   map[string]string{},
		Page:      1,
		PerPage:   DefaultPerPage,
		Sort:      column,
		Direction: DefaultDirection,
	}
}

// SetFilter sets or replaces a filter value and resets to page 1. A blank
// value clears the filter.
func (q *Query) SetFilter(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		q.ClearFilter(key)
		return
	}
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	q.Filters[key] = value
	q.Page = 1
}

// ClearFilter removes a filter and resets to page 1.
func (q *Query) ClearFilter(key string) {
	delete(q.Filters, key)
	q.Page = 1
}

// ResetFilters removes every filter and resets to page 1.
func (q *Query) ResetFilters() {
	q.Filters = map[string]string{}
	q.Page = 1
}

// Filter returns the current value of a filter.
func (q Query) Filter(key string) string { return q.Filters[key] }

// ToggleSort flips the direction when column is already the sort column.
// Otherwise it sorts by column in DefaultDirection and resets to page 1.
func (q *Query) ToggleSort(column string) {
	if q.Sort == column {
		q.Direction = q.Direction.Flip()
		return
	}
	q.Sort = column
	q.Direction = DefaultDirection
	q.Page = 1
}

// SetPage moves to page p. Pages below 1 are ignored.
func (q *Query) SetPage(p int) {
	if p < 1 {
		return
	}
	q.Page = p
}

// Values encodes the query for a list request.
func (q Query) Values() url.Values {
	v := q.FilterValues()
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))
	return v
}

// FilterValues encodes filters and sort without pagination, as used by
// exports.
func (q Query) FilterValues() url.Values {
	v := url.Values{}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set(k, q.Filters[k])
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
		dir := q.Direction
		if dir == "" {
			dir = DefaultDirection
		}
		v.Set("direction", string(dir))
	}
	return v
}
