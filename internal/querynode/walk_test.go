package querynode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, root Node) []string {
	t.Helper()
	var names []string
	err := Walk(context.Background(), root, VisitorFunc(func(_ context.Context, n Node) error {
		switch node := n.(type) {
		case *MatchAllNode:
			names = append(names, "*")
		case FieldNode:
			names = append(names, node.Field())
		}
		return nil
	}))
	require.NoError(t, err)
	return names
}

func TestWalk_PreOrder(t *testing.T) {
	root := NewGroup("root",
		NewTerm("a", "1"),
		NewGroup("g",
			NewTerm("b", "2"),
			NewGroup("h", NewExists("c")),
		),
		NewMatchAll(),
		NewMissing("d"),
	)

	// Groups are visited before their children.
	assert.Equal(t, []string{"root", "a", "g", "b", "h", "c", "*", "d"}, fieldNames(t, root))
}

func TestWalk_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	root := NewGroup("", NewTerm("a", "1"), NewTerm("b", "2"), NewTerm("c", "3"))

	var visited []string
	err := Walk(context.Background(), root, VisitorFunc(func(_ context.Context, n Node) error {
		if term, ok := n.(*TermNode); ok {
			visited = append(visited, term.Field())
			if term.Field() == "b" {
				return boom
			}
		}
		return nil
	}))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, visited)
}

func TestWalk_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	root := NewGroup("", NewTerm("a", "1"), NewTerm("b", "2"))

	count := 0
	err := Walk(ctx, root, VisitorFunc(func(_ context.Context, n Node) error {
		count++
		if count == 2 {
			cancel()
		}
		return nil
	}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, count, "walk stops before the third node")
}

func TestWalk_Nil(t *testing.T) {
	err := Walk(context.Background(), nil, VisitorFunc(func(context.Context, Node) error {
		t.Fatal("visitor must not be called")
		return nil
	}))
	assert.NoError(t, err)
}

func TestRewrites(t *testing.T) {
	renamed := NewTerm("status", "active")
	renamed.SetOriginalField("Status")
	group := NewGroup("comments")
	group.SetOriginalField("Comments")
	group.Add(NewTerm("author", "bob"))

	root := NewGroup("", renamed, NewExists("email"), group)

	assert.Equal(t, []Rewrite{
		{Original: "Status", Field: "status"},
		{Original: "Comments", Field: "comments"},
	}, Rewrites(root))
}

func TestRewrites_None(t *testing.T) {
	assert.Empty(t, Rewrites(NewGroup("", NewTerm("a", "b"))))
}
