package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as deterministic text for golden comparison.
//
//	scenario: name
//	tree:
//	  group
//	    term field=status original=Status term="active"
//	rewrites:
//	  Status -> status
//	discovery_calls:
//	  (none)
//	runtime_fields:
//	  (none)
//	stats: visited=1 rewritten=1 discovered=0 unresolved=0
func Snapshot(name string, result *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario: %s\n", name)

	sb.WriteString("tree:\n")
	for _, line := range strings.Split(strings.TrimSuffix(result.Tree, "\n"), "\n") {
		fmt.Fprintf(&sb, "  %s\n", line)
	}

	sb.WriteString("rewrites:\n")
	if len(result.Rewrites) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, rw := range result.Rewrites {
		fmt.Fprintf(&sb, "  %s -> %s\n", rw.Original, rw.Field)
	}

	sb.WriteString("discovery_calls:\n")
	names := make([]string, 0, len(result.DiscoveryCalls))
	for name := range result.DiscoveryCalls {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s: %d\n", name, result.DiscoveryCalls[name])
	}

	sb.WriteString("runtime_fields:\n")
	if len(result.RuntimeFields) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, f := range result.RuntimeFields {
		fmt.Fprintf(&sb, "  %s\n", f)
	}

	s := result.Stats
	fmt.Fprintf(&sb, "stats: visited=%d rewritten=%d discovered=%d unresolved=%d\n",
		s.Visited, s.Rewritten, s.Discovered, s.Unresolved)
	if result.Err != nil {
		fmt.Fprintf(&sb, "error: %v\n", result.Err)
	}
	return []byte(sb.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if the scenario cannot be run. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))
	return result, nil
}
