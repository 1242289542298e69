package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadwatcher/internal/listing"
	"github.com/sells-group/leadwatcher/pkg/leadwatcher"
)

// listState is the paging and sorting surface shared by the list screens.
type listState interface {
	Query() listing.Query
	ToggleSort(column string)
	SetPage(p int)
	SetPerPage(n int)
}

// listFlags are the page/sort flags of every paginated list command.
type listFlags struct {
	page    int
	perPage int
	sort    string
	asc     bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", listing.DefaultPerPage, "rows per page")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort column (default per list)")
	cmd.Flags().BoolVar(&f.asc, "asc", false, "sort ascending")
}

func (f listFlags) apply(s listState) {
	if f.sort != "" && s.Query().Sort != f.sort {
		s.ToggleSort(f.sort)
	}
	want := listing.Desc
	if f.asc {
		want = listing.Asc
	}
	if q := s.Query(); q.Direction != want {
		s.ToggleSort(q.Sort)
	}
	s.SetPerPage(f.perPage)
	s.SetPage(f.page)
}

// formatPageFooter prints the pagination line under a list.
func formatPageFooter(out io.Writer, meta leadwatcher.Meta) {
	fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", meta.CurrentPage, max(meta.LastPage, 1), meta.Total)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
