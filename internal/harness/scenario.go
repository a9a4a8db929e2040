package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gordysc/Foundatio.Parsers/internal/mapping"
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// Scenario defines a field resolution conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mapping is the property tree the mapping oracle answers from.
	Mapping mapping.Properties `yaml:"mapping,omitempty"`

	// RuntimeFields seeds the session's runtime field set.
	RuntimeFields []runtimefield.Field `yaml:"runtime_fields,omitempty"`

	// Discoverable maps a requested name to the field discovery returns.
	Discoverable map[string]runtimefield.Field `yaml:"discoverable,omitempty"`

	// DisableDiscovery sets the session's discovery switch to false.
	DisableDiscovery bool `yaml:"disable_discovery,omitempty"`

	// Parallelism is passed to resolver.WithParallelism when > 1.
	Parallelism int `yaml:"parallelism,omitempty"`

	Query querynode.Document `yaml:"query"`

	Expect Expect `yaml:"expect,omitempty"`
}

// Expect lists what a scenario checks after resolution. Nil fields are
// not checked.
type Expect struct {
	// Rewrites in pre-order.
	Rewrites []querynode.Rewrite `yaml:"rewrites,omitempty"`

	// DiscoveryCalls per requested name. Names not listed must not have
	// been requested.
	DiscoveryCalls map[string]int `yaml:"discovery_calls,omitempty"`

	// RuntimeFields is the final set's names in insertion order.
	RuntimeFields []string `yaml:"runtime_fields,omitempty"`

	// Error is a substring of the error resolution must stop with.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative")
	}
	for i, f := range s.RuntimeFields {
		if f.Name == "" {
			return fmt.Errorf("runtime_fields[%d]: name is required", i)
		}
	}
	for requested, f := range s.Discoverable {
		if f.Name == "" {
			return fmt.Errorf("discoverable[%s]: name is required", requested)
		}
	}
	if _, err := querynode.FromDocument(s.Query); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}
