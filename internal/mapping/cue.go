package mapping

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// LoadCUE builds a schema from CUE source with the same shape as the YAML
// form:
//
//	properties: {
//		status: type: "keyword"
//		writer: {type: "alias", path: "author.name"}
//	}
//
// Field order follows declaration order. The filename is only used for
// error positions.
func LoadCUE(filename string, data []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	root := v
	if m := v.LookupPath(cue.ParsePath("mappings")); m.Exists() {
		root = m
	}

	props, err := cueProperties(root.LookupPath(cue.ParsePath("properties")))
	if err != nil {
		return nil, formatCUEError(filename, err)
	}

	schema, err := NewSchema(props...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidMapping, Message: err.Error(), File: filename}
	}
	return schema, nil
}

func cueProperties(v cue.Value) (Properties, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, err
	}

	var props Properties
	for iter.Next() {
		prop, err := cueProperty(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func cueProperty(name string, v cue.Value) (*Property, error) {
	prop := &Property{Name: name}

	if t := v.LookupPath(cue.ParsePath("type")); t.Exists() {
		s, err := t.String()
		if err != nil {
			return nil, err
		}
		prop.Type = s
	}
	if p := v.LookupPath(cue.ParsePath("path")); p.Exists() {
		s, err := p.String()
		if err != nil {
			return nil, err
		}
		prop.Path = s
	}

	var err error
	if prop.Properties, err = cueProperties(v.LookupPath(cue.ParsePath("properties"))); err != nil {
		return nil, err
	}
	if prop.Fields, err = cueProperties(v.LookupPath(cue.ParsePath("fields"))); err != nil {
		return nil, err
	}
	return prop, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(filename string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeInvalidMapping, Message: err.Error(), File: filename}
	}

	first := errs[0]
	le := &LoadError{
		Code:    ErrCodeInvalidMapping,
		Message: fmt.Sprint(first),
		File:    filename,
	}
	if positions := errors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		le.Line = positions[0].Line()
		le.Column = positions[0].Column()
	}
	return le
}
