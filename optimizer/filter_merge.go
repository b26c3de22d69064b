package optimizer

import (
	"github.com/cube2222/octogeo/octosql"
	. "github.com/cube2222/octogeo/physical"
)

// MergeFilters turns a filter directly over another filter into a single filter with a conjunction of both predicates.
// The inner predicates come first, the filter node narrows by each conjunct in turn.
func MergeFilters(node Node) (Node, bool) {
	changed := false
	t := Transformers{
		NodeTransformer: func(node Node) Node {
			if node.NodeType != NodeTypeFilter {
				return node
			}
			if node.Filter.Source.NodeType != NodeTypeFilter {
				return node
			}
			changed = true

			inner := node.Filter.Source.Filter
			return Node{
				Schema:   node.Schema,
				NodeType: NodeTypeFilter,
				Filter: &Filter{
					Predicate: Expression{
						Type:           octosql.TypeSum(inner.Predicate.Type, node.Filter.Predicate.Type),
						ExpressionType: ExpressionTypeAnd,
						And: &And{
							Arguments: append(Conjuncts(inner.Predicate), Conjuncts(node.Filter.Predicate)...),
						},
					},
					Source: inner.Source,
				},
			}
		},
	}
	output := t.TransformNode(node)

	if changed {
		return output, true
	} else {
		return node, false
	}
}
