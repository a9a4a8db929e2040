package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gordysc/Foundatio.Parsers/internal/catalog"
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/resolver"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Mapping       string // mapping file (YAML, JSON or CUE)
	RuntimeFields string // YAML list of runtime fields seeding the session
	Catalog       string // catalog database used for discovery
	NoDiscovery   bool
	Parallelism   int
	Output        string // file receiving the resolved query document as JSON

	// SessionGen overrides session id generation (for testing).
	SessionGen resolver.SessionIDGenerator
}

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Query         querynode.Document   `json:"query"`
	Rewrites      []querynode.Rewrite  `json:"rewrites"`
	RuntimeFields []runtimefield.Field `json:"runtime_fields"`
	Stats         resolver.Stats       `json:"stats"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <query-file>",
		Short: "Resolve the fields of a query document",
		Long: `Resolve every field reference in a query document to its canonical
path. Fields are looked up in the mapping first, then in the session's
runtime fields, then in the runtime field catalog (when --catalog is set).

Exit codes:
  0 - Query resolved
  1 - Resolution stopped with an error
  2 - Command error (unreadable mapping, query or catalog, or an unusable
      resolution context)

Examples:
  fieldres resolve query.yaml --mapping orders.yaml
  fieldres resolve query.json --mapping orders.cue --runtime-fields fields.yaml
  fieldres resolve query.yaml --mapping orders.yaml --catalog fields.db --format json
  fieldres resolve query.yaml --mapping orders.yaml --output resolved.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mapping, "mapping", "", "mapping file (required)")
	cmd.Flags().StringVar(&opts.RuntimeFields, "runtime-fields", "", "YAML file of runtime fields")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "runtime field catalog database used for discovery")
	cmd.Flags().BoolVar(&opts.NoDiscovery, "no-discovery", false, "never consult the catalog")
	cmd.Flags().IntVar(&opts.Parallelism, "parallel", 1, "resolve up to n top-level subtrees concurrently")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the resolved query document to this file as JSON")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func runResolve(opts *ResolveOptions, queryPath string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	schema, err := loadMapping(opts.Mapping)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeMapping, err)
	}
	root, err := loadQuery(queryPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeQuery, err)
	}

	var seed []runtimefield.Field
	if opts.RuntimeFields != "" {
		if seed, err = loadRuntimeFields(opts.RuntimeFields); err != nil {
			return f.Fail(ExitCommandError, ErrCodeRuntimeFields, err)
		}
	}
	fields := runtimefield.NewSet(seed...)

	sessionOpts := []resolver.SessionOption{resolver.WithRuntimeFields(fields)}
	if opts.SessionGen != nil {
		sessionOpts = append(sessionOpts, resolver.WithSessionIDGenerator(opts.SessionGen))
	}
	if opts.Catalog != "" {
		cat, err := catalog.Open(opts.Catalog)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeCatalog, err)
		}
		defer func() {
			if closeErr := cat.Close(); closeErr != nil {
				logger.Error("error closing catalog", "error", closeErr)
			}
		}()
		sessionOpts = append(sessionOpts, resolver.WithDiscovery(cat.Discoverer()))
	}
	if opts.NoDiscovery {
		sessionOpts = append(sessionOpts, resolver.WithDiscoveryEnabled(false))
	}
	sctx := resolver.NewSessionContext(schema, sessionOpts...)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("resolving query", "session", sctx.SessionID(), "query", queryPath, "mapping", opts.Mapping)
	v := resolver.New(resolver.WithLogger(logger), resolver.WithParallelism(opts.Parallelism))
	stats, err := v.AcceptWithStats(ctx, root, sctx)
	if err != nil {
		return f.Fail(resolutionExitCode(err), ErrCodeResolution, fmt.Errorf("resolve %s: %w", queryPath, err))
	}

	if opts.Output != "" {
		data, err := querynode.MarshalJSON(root)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, fmt.Errorf("encode resolved query: %w", err))
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("write %s: %w", opts.Output, err))
		}
	}

	rewrites := querynode.Rewrites(root)
	if rewrites == nil {
		rewrites = []querynode.Rewrite{}
	}

	if opts.Format == "json" {
		return f.JSON(CLIResponse{
			Status:  "ok",
			Session: sctx.SessionID(),
			Data: ResolveResult{
				Query:         querynode.Encode(root),
				Rewrites:      rewrites,
				RuntimeFields: fields.Fields(),
				Stats:         stats,
			},
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, querynode.Dump(root))
	if len(rewrites) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Rewrites:")
		for _, rw := range rewrites {
			fmt.Fprintf(w, "  %s -> %s\n", rw.Original, rw.Field)
		}
	}
	fmt.Fprintf(w, "\nResolved: visited=%d rewritten=%d discovered=%d unresolved=%d\n",
		stats.Visited, stats.Rewritten, stats.Discovered, stats.Unresolved)
	return nil
}

// resolutionExitCode maps a resolution error to an exit code. A context the
// visitor cannot use is a command error; everything else is a failure.
func resolutionExitCode(err error) int {
	if resolver.IsConfigError(err) {
		return ExitCommandError
	}
	return ExitFailure
}
