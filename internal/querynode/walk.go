package querynode

import "context"

// VisitorContext carries per-run state shared by the visitors of one run.
//
// Visitors that need more than the session identity assert it to a narrower
// capability interface and fail if the assertion does not hold.
type VisitorContext interface {
	SessionID() string
}

// BasicContext is a VisitorContext with no capabilities beyond identity.
type BasicContext struct {
	ID string
}

// SessionID implements VisitorContext.
func (c BasicContext) SessionID() string { return c.ID }

// Visitor is called once per node by Walk.
type Visitor interface {
	Visit(ctx context.Context, n Node) error
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(ctx context.Context, n Node) error

// Visit implements Visitor.
func (f VisitorFunc) Visit(ctx context.Context, n Node) error { return f(ctx, n) }

// Walk traverses the tree rooted at n depth-first in pre-order: a group is
// visited before any of its children, and children are visited in order.
//
// Walk stops at the first error returned by the visitor or when ctx is done.
// Nodes visited before the stop keep whatever changes the visitor made.
func Walk(ctx context.Context, n Node, v Visitor) error {
	if n == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.Visit(ctx, n); err != nil {
		return err
	}
	for _, child := range Children(n) {
		if err := Walk(ctx, child, v); err != nil {
			return err
		}
	}
	return nil
}

// Rewrite describes a field that was renamed by resolution.
type Rewrite struct {
	Original string `json:"original"`
	Field    string `json:"field"`
}

// Rewrites returns one entry per node whose original field is recorded,
// in pre-order.
func Rewrites(root Node) []Rewrite {
	var out []Rewrite
	_ = Walk(context.Background(), root, VisitorFunc(func(_ context.Context, n Node) error {
		fn, ok := n.(FieldNode)
		if !ok {
			return nil
		}
		if original, ok := fn.OriginalField(); ok {
			out = append(out, Rewrite{Original: original, Field: fn.Field()})
		}
		return nil
	}))
	return out
}
