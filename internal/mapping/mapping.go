package mapping

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// TypeAlias marks a property that points at another property by path.
const TypeAlias = "alias"

// maxAliasDepth bounds alias chains so a cycle cannot recurse forever.
const maxAliasDepth = 8

// FieldMapping is the result of a mapping lookup.
type FieldMapping struct {
	// Found reports whether the field exists in the schema.
	Found bool

	// FullPath is the canonical dotted path of the field. Empty unless Found.
	FullPath string

	// Type is the mapped type of the field (keyword, text, date, ...).
	Type string
}

// Resolver looks fields up in a schema.
//
// Implementations must be side-effect free from the caller's perspective.
// A missing field is reported with Found == false, never as an error; an
// error means the schema itself could not be consulted.
type Resolver interface {
	GetMapping(field string) (FieldMapping, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(field string) (FieldMapping, error)

// GetMapping implements Resolver.
func (f ResolverFunc) GetMapping(field string) (FieldMapping, error) { return f(field) }

// Property is one node of a schema's property tree.
type Property struct {
	Name       string     `yaml:"-"`
	Type       string     `yaml:"type,omitempty"`
	Path       string     `yaml:"path,omitempty"` // alias target, only for TypeAlias
	Properties Properties `yaml:"properties,omitempty"`
	Fields     Properties `yaml:"fields,omitempty"` // multi-fields, e.g. name.keyword

	byName map[string]*Property
	byFold map[string]*Property
}

// Properties is an ordered list of named properties.
type Properties []*Property

// Schema is an in-memory Resolver over a property tree.
//
// Each dotted segment of a field is matched against the property names at
// that level: an exact match wins, otherwise the first property whose name
// is equal under Unicode case folding. Multi-fields are addressed like
// sub-properties. Alias properties resolve to the canonical path of their
// target.
//
// A Schema is immutable after construction and safe for concurrent use.
type Schema struct {
	root *Property
}

// NewSchema builds a schema from top-level properties.
func NewSchema(props ...*Property) (*Schema, error) {
	root := &Property{Properties: props}
	if err := root.index(""); err != nil {
		return nil, err
	}
	return &Schema{root: root}, nil
}

// index builds the lookup maps of p and its descendants.
func (p *Property) index(prefix string) error {
	children := make(Properties, 0, len(p.Properties)+len(p.Fields))
	children = append(children, p.Properties...)
	children = append(children, p.Fields...)

	p.byName = make(map[string]*Property, len(children))
	p.byFold = make(map[string]*Property, len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		path := joinPath(prefix, child.Name)
		if child.Name == "" {
			return fmt.Errorf("property under %q has no name", prefix)
		}
		if strings.Contains(child.Name, ".") {
			return fmt.Errorf("property %q: names must not contain '.'", path)
		}
		if _, dup := p.byName[child.Name]; dup {
			return fmt.Errorf("property %q defined twice", path)
		}
		if child.Type == TypeAlias && child.Path == "" {
			return fmt.Errorf("alias %q has no path", path)
		}
		p.byName[child.Name] = child
		folded := fold(child.Name)
		if _, taken := p.byFold[folded]; !taken {
			p.byFold[folded] = child
		}
		if err := child.index(path); err != nil {
			return err
		}
	}
	return nil
}

func (p *Property) child(name string) *Property {
	if c, ok := p.byName[name]; ok {
		return c
	}
	return p.byFold[fold(name)]
}

// GetMapping implements Resolver.
func (s *Schema) GetMapping(field string) (FieldMapping, error) {
	return s.lookup(field, field, 0)
}

func (s *Schema) lookup(requested, field string, depth int) (FieldMapping, error) {
	if field == "" {
		return FieldMapping{}, nil
	}

	current := s.root
	segments := strings.Split(field, ".")
	path := make([]string, 0, len(segments))
	for _, segment := range segments {
		next := current.child(segment)
		if next == nil {
			return FieldMapping{}, nil
		}
		path = append(path, next.Name)
		current = next
	}

	if current.Type == TypeAlias {
		if depth >= maxAliasDepth {
			return FieldMapping{}, &AliasError{Field: requested, Path: strings.Join(path, ".")}
		}
		return s.lookup(requested, current.Path, depth+1)
	}

	return FieldMapping{
		Found:    true,
		FullPath: strings.Join(path, "."),
		Type:     current.Type,
	}, nil
}

// Paths returns the canonical path of every non-alias property, depth-first
// in declaration order.
func (s *Schema) Paths() []string {
	var out []string
	var walk func(p *Property, prefix string)
	walk = func(p *Property, prefix string) {
		for _, group := range []Properties{p.Properties, p.Fields} {
			for _, child := range group {
				if child == nil {
					continue
				}
				path := joinPath(prefix, child.Name)
				if child.Type != TypeAlias {
					out = append(out, path)
				}
				walk(child, path)
			}
		}
	}
	walk(s.root, "")
	return out
}

// AliasError reports an alias chain that does not terminate.
type AliasError struct {
	Field string
	Path  string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("alias chain for field %q exceeds %d hops at %q", e.Field, maxAliasDepth, e.Path)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// fold returns the case-folded form of s. A Caser is stateful, so one is
// created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
