package querynode

import (
	"fmt"
	"strings"
)

// Dump renders the tree as indented text, one node per line.
//
// Example:
//
//	group op=AND
//	  term field=status original=Status term="active"
//	  range field=age range=[18 TO 65}
//
// The output is deterministic and is used for golden files and CLI output.
func Dump(root Node) string {
	var sb strings.Builder
	dump(&sb, root, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(describe(n))
	sb.WriteByte('\n')
	for _, child := range Children(n) {
		dump(sb, child, depth+1)
	}
}

func describe(n Node) string {
	var parts []string
	switch node := n.(type) {
	case *GroupNode:
		parts = append(parts, "group")
		parts = appendField(parts, node)
		if node.Operator != OperatorDefault {
			parts = append(parts, "op="+string(node.Operator))
		}
		if node.Prefix != "" {
			parts = append(parts, "prefix="+node.Prefix)
		}
	case *TermNode:
		parts = append(parts, "term")
		parts = appendField(parts, node)
		parts = append(parts, fmt.Sprintf("term=%q", node.Term))
		if node.IsPhrase {
			parts = append(parts, "phrase")
		}
		if node.IsPrefix {
			parts = append(parts, "prefix")
		}
	case *TermRangeNode:
		parts = append(parts, "range")
		parts = appendField(parts, node)
		open, closing := "{", "}"
		if node.MinInclusive {
			open = "["
		}
		if node.MaxInclusive {
			closing = "]"
		}
		parts = append(parts, fmt.Sprintf("range=%s%s TO %s%s", open, node.Min, node.Max, closing))
	case *ExistsNode:
		parts = append(parts, "exists")
		parts = appendField(parts, node)
	case *MissingNode:
		parts = append(parts, "missing")
		parts = appendField(parts, node)
	case *MatchAllNode:
		parts = append(parts, "match_all")
	default:
		parts = append(parts, fmt.Sprintf("unknown(%T)", n))
	}
	return strings.Join(parts, " ")
}

func appendField(parts []string, n FieldNode) []string {
	if n.HasField() {
		parts = append(parts, "field="+n.Field())
	}
	if original, ok := n.OriginalField(); ok {
		parts = append(parts, "original="+original)
	}
	return parts
}
