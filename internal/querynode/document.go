package querynode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a query tree.
//
// Exactly one of the pointer fields is set. YAML and JSON share the same
// shape, so a JSON document decodes with the YAML decoder:
//
//	group:
//	  operator: AND
//	  children:
//	    - term: {field: Status, value: active}
//	    - range: {field: age, min: "18", max: "65", min_inclusive: true}
//	    - exists: {field: email}
type Document struct {
	Group    *GroupDoc `yaml:"group,omitempty" json:"group,omitempty"`
	Term     *TermDoc  `yaml:"term,omitempty" json:"term,omitempty"`
	Range    *RangeDoc `yaml:"range,omitempty" json:"range,omitempty"`
	Exists   *FieldDoc `yaml:"exists,omitempty" json:"exists,omitempty"`
	Missing  *FieldDoc `yaml:"missing,omitempty" json:"missing,omitempty"`
	MatchAll *struct{} `yaml:"match_all,omitempty" json:"match_all,omitempty"`
}

// FieldDoc is the field part shared by all field-bearing documents.
type FieldDoc struct {
	Field         string `yaml:"field,omitempty" json:"field,omitempty"`
	OriginalField string `yaml:"original_field,omitempty" json:"original_field,omitempty"`
}

// GroupDoc serializes a GroupNode.
type GroupDoc struct {
	FieldDoc `yaml:",inline"`

	Operator Operator   `yaml:"operator,omitempty" json:"operator,omitempty"`
	Prefix   string     `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Children []Document `yaml:"children,omitempty" json:"children,omitempty"`
}

// TermDoc serializes a TermNode.
type TermDoc struct {
	FieldDoc `yaml:",inline"`

	Value  string `yaml:"value" json:"value"`
	Phrase bool   `yaml:"phrase,omitempty" json:"phrase,omitempty"`
	Prefix bool   `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// RangeDoc serializes a TermRangeNode.
type RangeDoc struct {
	FieldDoc `yaml:",inline"`

	Min          string `yaml:"min,omitempty" json:"min,omitempty"`
	Max          string `yaml:"max,omitempty" json:"max,omitempty"`
	MinInclusive bool   `yaml:"min_inclusive,omitempty" json:"min_inclusive,omitempty"`
	MaxInclusive bool   `yaml:"max_inclusive,omitempty" json:"max_inclusive,omitempty"`
}

// Decode builds a tree from a YAML or JSON document.
//
// The returned root is always a group. A document whose top level is not a
// group is wrapped in one, matching the shape an upstream parser produces.
func Decode(data []byte) (*GroupNode, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty query document")
		}
		return nil, fmt.Errorf("decode query document: %w", err)
	}

	return FromDocument(doc)
}

// FromDocument builds a tree from an already decoded document, wrapping a
// non-group top level the way Decode does.
func FromDocument(doc Document) (*GroupNode, error) {
	n, err := doc.toNode("$")
	if err != nil {
		return nil, err
	}
	if g, ok := n.(*GroupNode); ok {
		return g, nil
	}
	return NewGroup("", n), nil
}

func (d Document) toNode(path string) (Node, error) {
	set := 0
	for _, present := range []bool{d.Group != nil, d.Term != nil, d.Range != nil, d.Exists != nil, d.Missing != nil, d.MatchAll != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: expected exactly one of group, term, range, exists, missing, match_all (got %d)", path, set)
	}

	switch {
	case d.Group != nil:
		g := NewGroup(d.Group.Field)
		g.Operator = d.Group.Operator
		g.Prefix = d.Group.Prefix
		restoreOriginal(&g.fieldRef, d.Group.FieldDoc)
		for i, childDoc := range d.Group.Children {
			child, err := childDoc.toNode(fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			g.Add(child)
		}
		return g, nil
	case d.Term != nil:
		t := NewTerm(d.Term.Field, d.Term.Value)
		t.IsPhrase = d.Term.Phrase
		t.IsPrefix = d.Term.Prefix
		restoreOriginal(&t.fieldRef, d.Term.FieldDoc)
		return t, nil
	case d.Range != nil:
		r := &TermRangeNode{
			fieldRef:     fieldRef{field: d.Range.Field},
			Min:          d.Range.Min,
			Max:          d.Range.Max,
			MinInclusive: d.Range.MinInclusive,
			MaxInclusive: d.Range.MaxInclusive,
		}
		restoreOriginal(&r.fieldRef, d.Range.FieldDoc)
		return r, nil
	case d.Exists != nil:
		e := NewExists(d.Exists.Field)
		restoreOriginal(&e.fieldRef, *d.Exists)
		return e, nil
	case d.Missing != nil:
		m := NewMissing(d.Missing.Field)
		restoreOriginal(&m.fieldRef, *d.Missing)
		return m, nil
	default:
		return NewMatchAll(), nil
	}
}

func restoreOriginal(f *fieldRef, doc FieldDoc) {
	if doc.OriginalField != "" {
		f.SetOriginalField(doc.OriginalField)
	}
}

// Encode converts a tree back into its document form, including any
// recorded original fields.
func Encode(n Node) Document {
	switch node := n.(type) {
	case *GroupNode:
		g := &GroupDoc{
			FieldDoc: fieldDoc(node),
			Operator: node.Operator,
			Prefix:   node.Prefix,
		}
		for _, child := range node.Children {
			g.Children = append(g.Children, Encode(child))
		}
		return Document{Group: g}
	case *TermNode:
		return Document{Term: &TermDoc{
			FieldDoc: fieldDoc(node),
			Value:    node.Term,
			Phrase:   node.IsPhrase,
			Prefix:   node.IsPrefix,
		}}
	case *TermRangeNode:
		return Document{Range: &RangeDoc{
			FieldDoc:     fieldDoc(node),
			Min:          node.Min,
			Max:          node.Max,
			MinInclusive: node.MinInclusive,
			MaxInclusive: node.MaxInclusive,
		}}
	case *ExistsNode:
		f := fieldDoc(node)
		return Document{Exists: &f}
	case *MissingNode:
		f := fieldDoc(node)
		return Document{Missing: &f}
	default:
		return Document{MatchAll: &struct{}{}}
	}
}

func fieldDoc(n FieldNode) FieldDoc {
	original, _ := n.OriginalField()
	return FieldDoc{Field: n.Field(), OriginalField: original}
}

// MarshalJSON encodes the tree rooted at n as indented JSON.
func MarshalJSON(n Node) ([]byte, error) {
	return json.MarshalIndent(Encode(n), "", "  ")
}
