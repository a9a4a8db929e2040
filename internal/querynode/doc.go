// Package querynode provides the query tree that field resolution operates on.
//
// The tree is produced by an upstream parser and consumed by a downstream
// compiler. Between the two, visitors walk it and rewrite field references
// in place. The shape of the tree never changes after construction; only
// the field of a field-bearing node is mutable.
//
// SEALED INTERFACE:
//
// Node is sealed using the marker method pattern. Only types in this package
// implement it, so type switches over nodes are closed:
//
//	switch n := node.(type) {
//	case *GroupNode, *TermNode, *TermRangeNode, *ExistsNode, *MissingNode:
//	    // field-bearing
//	case *MatchAllNode:
//	    // never carries a field
//	}
//
// PARENT REFERENCES:
//
// Every node has a non-owning back-reference to its parent group. Children
// are owned by the group's Children slice; the parent pointer is only used to
// distinguish the tree root (Parent() == nil) from nested nodes. Visitors
// treat the root as structural and never resolve its own field.
//
// ORIGINAL FIELDS:
//
// When a visitor rewrites a field, it records the user-typed name with
// SetOriginalField. The original is written at most once per node; later
// calls are ignored so a second rewrite cannot hide what the user typed.
package querynode
