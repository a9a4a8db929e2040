package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// EvaluateExpect checks a result against a scenario's expectations and
// returns one message per mismatch.
func EvaluateExpect(result *Result, expect Expect) []string {
	var errs []string

	switch {
	case expect.Error == "" && result.Err != nil:
		errs = append(errs, fmt.Sprintf("unexpected error: %v", result.Err))
	case expect.Error != "" && result.Err == nil:
		errs = append(errs, fmt.Sprintf("expected error containing %q, got none", expect.Error))
	case expect.Error != "" && !strings.Contains(result.Err.Error(), expect.Error):
		errs = append(errs, fmt.Sprintf("expected error containing %q, got %q", expect.Error, result.Err.Error()))
	}

	if expect.Rewrites != nil && !reflect.DeepEqual(expect.Rewrites, result.Rewrites) {
		errs = append(errs, fmt.Sprintf("rewrites: expected %v, got %v", expect.Rewrites, result.Rewrites))
	}

	if expect.DiscoveryCalls != nil {
		for _, name := range unionKeys(expect.DiscoveryCalls, result.DiscoveryCalls) {
			if want, got := expect.DiscoveryCalls[name], result.DiscoveryCalls[name]; want != got {
				errs = append(errs, fmt.Sprintf("discovery calls for %q: expected %d, got %d", name, want, got))
			}
		}
	}

	if expect.RuntimeFields != nil && !reflect.DeepEqual(expect.RuntimeFields, result.RuntimeFields) {
		errs = append(errs, fmt.Sprintf("runtime fields: expected %v, got %v", expect.RuntimeFields, result.RuntimeFields))
	}

	return errs
}

func unionKeys(a, b map[string]int) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
