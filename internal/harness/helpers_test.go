package harness

import "gopkg.in/yaml.v3"

// yamlProperties decodes a properties mapping into the scenario's mapping.
func yamlProperties(s *Scenario, src string) error {
	return yaml.Unmarshal([]byte(src), &s.Mapping)
}
