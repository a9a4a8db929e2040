package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gordysc/Foundatio.Parsers/internal/catalog"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// CatalogOptions holds flags shared by the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	Database string
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the runtime field catalog",
		Long: `Register and inspect runtime fields in a catalog database. The
catalog serves discovery requests for 'fieldres resolve --catalog'.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to catalog database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newCatalogAddCommand(opts))
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogLogCommand(opts))
	return cmd
}

func newCatalogAddCommand(opts *CatalogOptions) *cobra.Command {
	var field runtimefield.Field

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a runtime field",
		Long: `Register a runtime field. A field whose name matches an existing
entry case-insensitively replaces that entry's type and script.

Example:
  fieldres catalog add fullName --type keyword --script "emit(...)" --db fields.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			field.Name = args[0]
			return withCatalog(opts, cmd, func(f *OutputFormatter, cat *catalog.Catalog) error {
				if err := cat.Put(cmd.Context(), field); err != nil {
					return f.Fail(ExitFailure, ErrCodeCatalog, err)
				}
				if opts.Format == "json" {
					return f.JSON(CLIResponse{Status: "ok", Data: field})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", field.Name, typeOrDash(field.Type))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&field.Type, "type", "", "field type (required)")
	cmd.Flags().StringVar(&field.Script, "script", "", "script computing the field")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newCatalogListCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered runtime fields",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(opts, cmd, func(f *OutputFormatter, cat *catalog.Catalog) error {
				fields, err := cat.List(cmd.Context())
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeCatalog, err)
				}
				if opts.Format == "json" {
					return f.JSON(CLIResponse{Status: "ok", Data: fields})
				}
				if len(fields) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runtime fields.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tTYPE\tSCRIPT")
				for _, field := range fields {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", field.Name, typeOrDash(field.Type), field.Script)
				}
				return tw.Flush()
			})
		},
	}
}

func newCatalogLogCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "log",
		Short:         "Show discovery requests served by the catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(opts, cmd, func(f *OutputFormatter, cat *catalog.Catalog) error {
				log, err := cat.Discoveries(cmd.Context())
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeCatalog, err)
				}
				if opts.Format == "json" {
					return f.JSON(CLIResponse{Status: "ok", Data: log})
				}
				w := cmd.OutOrStdout()
				if len(log) == 0 {
					fmt.Fprintln(w, "No discoveries.")
					return nil
				}
				for _, d := range log {
					if d.Found() {
						fmt.Fprintf(w, "%d %s -> %s\n", d.Seq, d.Name, d.Field)
					} else {
						fmt.Fprintf(w, "%d %s (not found)\n", d.Seq, d.Name)
					}
				}
				return nil
			})
		},
	}
}

// withCatalog opens the catalog named by --db for the duration of fn.
func withCatalog(opts *CatalogOptions, cmd *cobra.Command, fn func(*OutputFormatter, *catalog.Catalog) error) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	cat, err := catalog.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeCatalog, err)
	}
	defer cat.Close()
	return fn(f, cat)
}

func typeOrDash(t string) string {
	if t == "" {
		return "-"
	}
	return t
}
