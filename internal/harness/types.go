package harness

import (
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/resolver"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Tree is querynode.Dump of the tree after resolution.
	Tree string `json:"tree"`

	Rewrites []querynode.Rewrite `json:"rewrites"`

	// DiscoveryCalls counts discovery requests per requested name.
	DiscoveryCalls map[string]int `json:"discovery_calls"`

	// RuntimeFields lists the session's runtime field names after
	// resolution, in insertion order.
	RuntimeFields []string `json:"runtime_fields"`

	Stats resolver.Stats `json:"stats"`

	// Err is the error resolution stopped with, if any.
	Err error `json:"-"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:           true,
		Rewrites:       []querynode.Rewrite{},
		DiscoveryCalls: map[string]int{},
		RuntimeFields:  []string{},
		Errors:         []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
