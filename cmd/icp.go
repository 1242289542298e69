package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/display"
	"github.com/sells-group/leadwatcher/internal/icp"
	"github.com/sells-group/leadwatcher/internal/screen"
)

var (
	icpListFlags  listFlags
	icpListActive string
	icpListSearch string
	icpShowYAML   bool
	icpFile       string
	icpOptSearch  string
)

var icpCmd = &cobra.Command{
	Use:   "icp",
	Short: "Manage ICP profiles",
}

var icpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ICP profiles with their summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		s := screen.NewProfileList(client)
		s.SetFilter("is_active", icpListActive)
		s.SetFilter("q", icpListSearch)
		icpListFlags.apply(s)

		if err := s.Load(cmd.Context()); err != nil {
			return eris.Wrap(err, "icp list")
		}
		rows := s.Summaries()
		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No ICP profiles found.")
			return nil
		}
		if err := formatProfileList(os.Stdout, rows); err != nil {
			return err
		}
		formatPageFooter(os.Stdout, s.Meta())
		return nil
	},
}

var icpShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one ICP profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		p, err := client.GetProfile(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "icp show")
		}
		if icpShowYAML {
			data, err := icp.MarshalYAML(icp.FormFromProfile(*p))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		return printJSON(p)
	},
}

var icpCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an ICP profile from a YAML or JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveProfile(cmd, "")
	},
}

var icpUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace an ICP profile's fields from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveProfile(cmd, args[0])
	},
}

var icpToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a profile between active and inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		return toggleProfile(cmd.Context(), screen.NewProfileList(client), args[0], os.Stdout)
	},
}

// toggleProfile flips a profile through the list view model, so a failed
// patch leaves the local row as it was.
func toggleProfile(ctx context.Context, list *screen.ProfileList, id string, out io.Writer) error {
	if _, err := list.Fetch(ctx, id); err != nil {
		return eris.Wrap(err, "icp toggle")
	}
	if err := list.ToggleActive(ctx, id); err != nil {
		return eris.Wrap(err, "icp toggle")
	}
	p, _ := list.Lookup(id)
	fmt.Fprintf(out, "%s is now %s\n", p.Name, activeLabel(p.IsActive))
	return nil
}

var icpDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a profile; the copy starts inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		p, err := screen.NewProfileList(client).Duplicate(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "icp duplicate")
		}
		fmt.Printf("Created %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var icpDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := screen.NewProfileList(client).Delete(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "icp delete")
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

var icpSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Validate a profile file and print its summary without saving",
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := loadProfileFile()
		if err != nil {
			return err
		}
		if err := form.Validate(); err != nil {
			return err
		}
		formatProfileSummary(os.Stdout, form)
		return nil
	},
}

var icpOptionsCmd = &cobra.Command{
	Use:   "options <field>",
	Short: "List the allowed values of a definition field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := icp.Field(args[0])
		if !f.Valid() {
			return eris.Errorf("icp options: unknown field %q", args[0])
		}
		if icp.FreeText(f) {
			fmt.Fprintf(os.Stderr, "%s accepts free text.\n", f)
			return nil
		}
		return formatOptions(os.Stdout, icp.Search(icp.Vocabulary(f), icpOptSearch))
	},
}

func loadProfileFile() (icp.FormData, error) {
	if icpFile == "" {
		return icp.FormData{}, eris.New("--file is required")
	}
	return icp.LoadFile(icpFile)
}

// saveProfile runs the editor save path: create when id is empty,
// otherwise load the profile and overwrite its fields from the file.
func saveProfile(cmd *cobra.Command, id string) error {
	form, err := loadProfileFile()
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ed := screen.NewProfileEditor(client, nil)
	if id != "" {
		if err := ed.Load(ctx, id); err != nil {
			return eris.Wrap(err, "icp update")
		}
	}
	ed.Edit(func(f *icp.FormData) { *f = form })
	for f, values := range icp.Unknown(form.Definition) {
		zap.L().Warn("values outside vocabulary", zap.String("field", string(f)), zap.Strings("values", values))
	}

	p, err := ed.Save(ctx)
	if err != nil {
		if msg := ed.Error(); msg != "" {
			return eris.Wrap(err, msg)
		}
		return err
	}
	fmt.Printf("Saved %s (%s)\n", p.Name, p.ID)
	return nil
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func formatProfileList(out io.Writer, rows []screen.ProfileRow) error {
	t := display.NewTable(out, "ID", "NAME", "STATUS", "LEADS", "AVG", "SUMMARY", "UPDATED")
	for _, r := range rows {
		leads, avg := "-", "-"
		if r.Stats != nil {
			leads = strconv.Itoa(r.Stats.LeadsMatched)
			avg = fmt.Sprintf("%.0f", r.Stats.AvgScore)
		}
		t.Row(
			display.ShortID(r.ID),
			display.Truncate(r.Name, 40),
			activeLabel(r.IsActive),
			leads,
			avg,
			display.Truncate(r.Summary, 60),
			display.Timestamp(r.UpdatedAt),
		)
	}
	return t.Flush()
}

func formatProfileSummary(out io.Writer, form icp.FormData) {
	fmt.Fprintf(out, "Name:     %s\n", form.Name)
	fmt.Fprintf(out, "Summary:  %s\n", icp.Summary(form.Definition))
	fmt.Fprintf(out, "Criteria: %d\n", icp.CriteriaCount(form.Definition))
	fmt.Fprintf(out, "Results:  %d\n", form.Definition.TotalResults)
	if tags := icp.Tags(form.Definition); len(tags) > 0 {
		fmt.Fprintf(out, "Tags:     %s\n", strings.Join(tags, ", "))
	}

	unknown := icp.Unknown(form.Definition)
	fields := make([]string, 0, len(unknown))
	for f := range unknown {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(out, "Unknown %s: %s\n", f, strings.Join(unknown[icp.Field(f)], ", "))
	}
}

func formatOptions(out io.Writer, opts []icp.Option) error {
	t := display.NewTable(out, "VALUE", "LABEL")
	for _, o := range opts {
		t.Row(o.Value, o.Label)
	}
	return t.Flush()
}

func init() {
	icpListFlags.register(icpListCmd)
	icpListCmd.Flags().StringVar(&icpListActive, "active", "", "filter by active flag (true|false)")
	icpListCmd.Flags().StringVar(&icpListSearch, "search", "", "filter by name")
	icpShowCmd.Flags().BoolVar(&icpShowYAML, "yaml", false, "print the editable form as YAML")
	for _, c := range []*cobra.Command{icpCreateCmd, icpUpdateCmd, icpSummaryCmd} {
		c.Flags().StringVarP(&icpFile, "file", "f", "", "profile file (.yaml, .yml or .json)")
	}
	icpOptionsCmd.Flags().StringVar(&icpOptSearch, "search", "", "filter options by label or value")

	icpCmd.AddCommand(icpListCmd, icpShowCmd, icpCreateCmd, icpUpdateCmd, icpToggleCmd,
		icpDuplicateCmd, icpDeleteCmd, icpSummaryCmd, icpOptionsCmd)
	rootCmd.AddCommand(icpCmd)
}
