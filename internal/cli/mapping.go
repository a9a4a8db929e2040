package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// MappingField is one canonical field of a mapping.
type MappingField struct {
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
}

// NewMappingCommand creates the mapping command.
func NewMappingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mapping <mapping-file>",
		Short: "List the canonical field paths of a mapping",
		Long: `Load a mapping file (YAML, JSON or CUE) and list every canonical field
path it declares, in declaration order. Aliases are not listed; they
resolve to one of the listed paths.

Examples:
  fieldres mapping orders.yaml
  fieldres mapping orders.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMapping(rootOpts, args[0], cmd)
		},
	}
}

func runMapping(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	schema, err := loadMapping(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeMapping, err)
	}

	paths := schema.Paths()
	fields := make([]MappingField, 0, len(paths))
	for _, p := range paths {
		m, err := schema.GetMapping(p)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeMapping, fmt.Errorf("resolve %s: %w", p, err))
		}
		fields = append(fields, MappingField{Path: m.FullPath, Type: m.Type})
	}

	if opts.Format == "json" {
		return f.JSON(CLIResponse{Status: "ok", Data: fields})
	}
	if len(fields) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No fields.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTYPE")
	for _, field := range fields {
		fmt.Fprintf(tw, "%s\t%s\n", field.Path, typeOrDash(field.Type))
	}
	return tw.Flush()
}
