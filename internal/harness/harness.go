package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gordysc/Foundatio.Parsers/internal/mapping"
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/resolver"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
	"github.com/gordysc/Foundatio.Parsers/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh schema, runtime field set and counting
// discoverer, and a session id derived from its name so logs and results
// are reproducible.
//
// An error is returned only when the scenario itself cannot be set up.
// Resolution errors are recorded in Result.Err and checked against
// Expect.Error.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	schema, err := mapping.NewSchema(scenario.Mapping...)
	if err != nil {
		return nil, fmt.Errorf("failed to build mapping: %w", err)
	}
	root, err := querynode.FromDocument(scenario.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	discover := testutil.NewCountingResolver(scenario.Discoverable)
	fields := runtimefield.NewSet(scenario.RuntimeFields...)

	opts := []resolver.SessionOption{
		resolver.WithRuntimeFields(fields),
		resolver.WithDiscovery(discover.Resolve),
		resolver.WithSessionIDGenerator(testutil.NewFixedSessionGenerator("scenario-" + scenario.Name)),
	}
	if scenario.DisableDiscovery {
		opts = append(opts, resolver.WithDiscoveryEnabled(false))
	}
	sctx := resolver.NewSessionContext(schema, opts...)

	v := resolver.New(
		resolver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		resolver.WithParallelism(scenario.Parallelism),
	)

	result := NewResult()
	result.Stats, result.Err = v.AcceptWithStats(ctx, root, sctx)
	result.Tree = querynode.Dump(root)
	if rw := querynode.Rewrites(root); rw != nil {
		result.Rewrites = rw
	}
	result.DiscoveryCalls = discover.CallCounts()
	for _, f := range fields.Fields() {
		result.RuntimeFields = append(result.RuntimeFields, f.Name)
	}

	for _, msg := range EvaluateExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}
