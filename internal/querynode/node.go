package querynode

// Node is a node in a query tree.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	queryNode() // Marker method - seals interface to this package

	// Parent returns the enclosing group, or nil for the tree root.
	Parent() Node

	setParent(parent Node)
}

// FieldNode is implemented by every node variant that can reference a field.
type FieldNode interface {
	Node

	// Field returns the current field name. Empty means the node does not
	// reference a field.
	Field() string

	// HasField reports whether the node references a field.
	HasField() bool

	// SetField overwrites the current field name.
	SetField(field string)

	// OriginalField returns the user-typed field name recorded by the first
	// rewrite of this node.
	OriginalField() (string, bool)

	// SetOriginalField records the user-typed field name. Only the first
	// call has an effect.
	SetOriginalField(field string)
}

// Operator joins the children of a group.
type Operator string

const (
	OperatorDefault Operator = ""
	OperatorAnd     Operator = "AND"
	OperatorOr      Operator = "OR"
)

type base struct {
	parent Node
}

func (b *base) Parent() Node { return b.parent }

func (b *base) setParent(parent Node) { b.parent = parent }

type fieldRef struct {
	field       string
	original    string
	hasOriginal bool
}

func (f *fieldRef) Field() string { return f.field }

func (f *fieldRef) HasField() bool { return f.field != "" }

func (f *fieldRef) SetField(field string) { f.field = field }

func (f *fieldRef) OriginalField() (string, bool) { return f.original, f.hasOriginal }

func (f *fieldRef) SetOriginalField(field string) {
	if f.hasOriginal {
		return
	}
	f.original = field
	f.hasOriginal = true
}

// GroupNode is a container of child nodes.
//
// A group may itself carry a field, in which case it defines a nested-field
// scope for its children (e.g. `comments:(author:bob text:hello)`).
type GroupNode struct {
	base
	fieldRef

	Children []Node
	Operator Operator
	Prefix   string // "+", "-" or empty
}

func (*GroupNode) queryNode() {}

// Add appends children and points their parent at g.
func (g *GroupNode) Add(children ...Node) *GroupNode {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.setParent(g)
		g.Children = append(g.Children, c)
	}
	return g
}

// TermNode matches a single term or phrase, e.g. `status:active`.
type TermNode struct {
	base
	fieldRef

	Term     string
	IsPhrase bool // term was quoted
	IsPrefix bool // term ends with a wildcard
}

func (*TermNode) queryNode() {}

// TermRangeNode matches a range of values, e.g. `age:[18 TO 65}`.
type TermRangeNode struct {
	base
	fieldRef

	Min          string
	Max          string
	MinInclusive bool
	MaxInclusive bool
}

func (*TermRangeNode) queryNode() {}

// ExistsNode matches documents where the field has a value (`_exists_:field`).
type ExistsNode struct {
	base
	fieldRef
}

func (*ExistsNode) queryNode() {}

// MissingNode matches documents where the field has no value (`_missing_:field`).
type MissingNode struct {
	base
	fieldRef
}

func (*MissingNode) queryNode() {}

// MatchAllNode matches every document (`*:*`). It never carries a field.
type MatchAllNode struct {
	base
}

func (*MatchAllNode) queryNode() {}

// NewGroup creates a group with an optional field and the given children.
func NewGroup(field string, children ...Node) *GroupNode {
	g := &GroupNode{fieldRef: fieldRef{field: field}}
	return g.Add(children...)
}

// NewTerm creates a term node.
func NewTerm(field, term string) *TermNode {
	return &TermNode{fieldRef: fieldRef{field: field}, Term: term}
}

// NewRange creates an inclusive range node.
func NewRange(field, from, to string) *TermRangeNode {
	return &TermRangeNode{
		fieldRef:     fieldRef{field: field},
		Min:          from,
		Max:          to,
		MinInclusive: true,
		MaxInclusive: true,
	}
}

// NewExists creates an exists node.
func NewExists(field string) *ExistsNode {
	return &ExistsNode{fieldRef: fieldRef{field: field}}
}

// NewMissing creates a missing node.
func NewMissing(field string) *MissingNode {
	return &MissingNode{fieldRef: fieldRef{field: field}}
}

// NewMatchAll creates a match-all node.
func NewMatchAll() *MatchAllNode {
	return &MatchAllNode{}
}

// Children returns the direct children of n. Only groups have children.
func Children(n Node) []Node {
	if g, ok := n.(*GroupNode); ok {
		return g.Children
	}
	return nil
}

// IsRoot reports whether n has no parent.
func IsRoot(n Node) bool {
	return n.Parent() == nil
}
