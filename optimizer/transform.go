package optimizer

import (
	. "github.com/cube2222/octogeo/physical"
)

// Transformers rewrites a plan bottom-up, calling NodeTransformer on each node after its source has been transformed.
type Transformers struct {
	NodeTransformer func(node Node) Node
}

func (t *Transformers) TransformNode(node Node) Node {
	var out Node
	switch node.NodeType {
	case NodeTypeDatasource:
		out = Node{
			Schema:   node.Schema,
			NodeType: node.NodeType,
			Datasource: &Datasource{
				Name:           node.Datasource.Name,
				Implementation: node.Datasource.Implementation,
				Columns:        node.Datasource.Columns,
			},
		}
	case NodeTypeMap:
		out = Node{
			Schema:   node.Schema,
			NodeType: node.NodeType,
			Map: &Map{
				Source:      t.TransformNode(node.Map.Source),
				Expressions: node.Map.Expressions,
				Names:       node.Map.Names,
				Keep:        node.Map.Keep,
			},
		}
	case NodeTypeFilter:
		out = Node{
			Schema:   node.Schema,
			NodeType: node.NodeType,
			Filter: &Filter{
				Source:    t.TransformNode(node.Filter.Source),
				Predicate: node.Filter.Predicate,
			},
		}
	case NodeTypeGroupBy:
		out = Node{
			Schema:   node.Schema,
			NodeType: node.NodeType,
			GroupBy: &GroupBy{
				Source:               t.TransformNode(node.GroupBy.Source),
				Key:                  node.GroupBy.Key,
				KeyNames:             node.GroupBy.KeyNames,
				Aggregates:           node.GroupBy.Aggregates,
				AggregateExpressions: node.GroupBy.AggregateExpressions,
			},
		}
	case NodeTypeOrderBy:
		out = Node{
			Schema:   node.Schema,
			NodeType: node.NodeType,
			OrderBy: &OrderBy{
				Source:               t.TransformNode(node.OrderBy.Source),
				Key:                  node.OrderBy.Key,
				DirectionMultipliers: node.OrderBy.DirectionMultipliers,
				NullsLast:            node.OrderBy.NullsLast,
			},
		}
	case NodeTypeLimit:
		out = Node{
			Schema:   node.Schema,
			NodeType: node.NodeType,
			Limit: &Limit{
				Source: t.TransformNode(node.Limit.Source),
				Limit:  node.Limit.Limit,
			},
		}
	default:
		panic("unexhaustive node type match")
	}

	if t.NodeTransformer != nil {
		out = t.NodeTransformer(out)
	}

	return out
}
