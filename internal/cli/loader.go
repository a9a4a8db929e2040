package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gordysc/Foundatio.Parsers/internal/mapping"
	"github.com/gordysc/Foundatio.Parsers/internal/querynode"
	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeMapping       = "E002" // Mapping file invalid
	ErrCodeQuery         = "E003" // Query document invalid
	ErrCodeRuntimeFields = "E004" // Runtime field file invalid
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeCatalog       = "E006" // Catalog database error
	ErrCodeResolution    = "E007" // Resolution stopped with an error
)

// LoadError is an input file that could not be used.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// loadMapping loads a YAML, JSON or CUE mapping file.
func loadMapping(path string) (*mapping.Schema, error) {
	schema, err := mapping.LoadFile(path)
	if err == nil {
		return schema, nil
	}
	code := ErrCodeMapping
	var le *mapping.LoadError
	if errors.As(err, &le) && le.Code == mapping.ErrCodeNotFound {
		code = ErrCodeNotFound
	}
	return nil, &LoadError{Code: code, Message: "load mapping", Err: err}
}

// loadQuery decodes a query document file.
func loadQuery(path string) (*querynode.GroupNode, error) {
	data, err := readInput(path, "query")
	if err != nil {
		return nil, err
	}
	root, err := querynode.Decode(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeQuery, Message: fmt.Sprintf("decode query %s", path), Err: err}
	}
	return root, nil
}

// loadRuntimeFields reads a YAML list of runtime fields.
//
//	- {name: fullName, type: keyword, script: "emit(...)"}
//	- {name: age, type: long}
func loadRuntimeFields(path string) ([]runtimefield.Field, error) {
	data, err := readInput(path, "runtime fields")
	if err != nil {
		return nil, err
	}

	var fields []runtimefield.Field
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Code: ErrCodeRuntimeFields, Message: fmt.Sprintf("decode runtime fields %s", path), Err: err}
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, &LoadError{Code: ErrCodeRuntimeFields, Message: fmt.Sprintf("%s: runtime field %d has no name", path, i)}
		}
	}
	return fields, nil
}

func readInput(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s file not found: %s", what, path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("read %s", what), Err: err}
	}
	return data, nil
}
