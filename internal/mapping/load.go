package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a mapping. Both a bare `properties:`
// block and an index-style `mappings: {properties: ...}` wrapper are accepted.
type document struct {
	Mappings *struct {
		Properties Properties `yaml:"properties"`
	} `yaml:"mappings,omitempty"`
	Properties Properties `yaml:"properties,omitempty"`
}

// UnmarshalYAML decodes a mapping node into properties, preserving the
// declaration order of its keys.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		prop := &Property{}
		if err := body.Decode(prop); err != nil {
			return fmt.Errorf("property %q: %w", key.Value, err)
		}
		prop.Name = key.Value
		*p = append(*p, prop)
	}
	return nil
}

// LoadYAML builds a schema from a YAML (or JSON) mapping document.
//
//	properties:
//	  status: {type: keyword}
//	  name:
//	    type: text
//	    fields:
//	      keyword: {type: keyword}
//	  writer: {type: alias, path: author.name}
func LoadYAML(data []byte) (*Schema, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Code: ErrCodeInvalidMapping, Message: err.Error()}
	}

	props := doc.Properties
	if doc.Mappings != nil {
		props = append(props, doc.Mappings.Properties...)
	}
	schema, err := NewSchema(props...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidMapping, Message: err.Error()}
	}
	return schema, nil
}

// LoadFile loads a mapping from disk, choosing the format by extension:
// .cue for CUE, anything else for YAML/JSON.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("mapping file not found: %s", path)}
		}
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return LoadCUE(path, data)
	}
	schema, err := LoadYAML(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return schema, nil
}

// Error codes for LoadError.
const (
	ErrCodeNotFound       = "MAPPING_NOT_FOUND"
	ErrCodeInvalidMapping = "INVALID_MAPPING"
)

// LoadError describes a mapping that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
