package optimizer

import (
	"github.com/cube2222/octogeo/octosql"
	. "github.com/cube2222/octogeo/physical"
)

// PruneColumns pushes the set of columns actually used down to the datasources, so they only produce those.
// Schemas are recomputed on the way back up. Map expressions are never removed, even if unused.
func PruneColumns(node Node) Node {
	required := make(map[string]bool, len(node.Schema.Fields))
	for _, field := range node.Schema.Fields {
		required[field.Name] = true
	}
	return pruneColumns(node, required)
}

func pruneColumns(node Node, required map[string]bool) Node {
	switch node.NodeType {
	case NodeTypeDatasource:
		columns := []string{}
		fields := []SchemaField{}
		for _, field := range node.Schema.Fields {
			if required[field.Name] {
				columns = append(columns, field.Name)
				fields = append(fields, field)
			}
		}
		return Node{
			Schema:   NewSchema(fields),
			NodeType: NodeTypeDatasource,
			Datasource: &Datasource{
				Name:           node.Datasource.Name,
				Implementation: node.Datasource.Implementation,
				Columns:        columns,
			},
		}

	case NodeTypeMap:
		sourceRequired := make(map[string]bool)
		if node.Map.Keep {
			// Replaced columns are still read, so they keep their position.
			sourceRequired = copySet(required)
		}
		addVariables(sourceRequired, node.Map.Expressions...)
		source := pruneColumns(node.Map.Source, sourceRequired)
		schema := node.Schema
		if node.Map.Keep {
			schema = MapSchema(source.Schema, node.Map.Names, expressionTypes(node.Map.Expressions), true)
		}
		return Node{
			Schema:   schema,
			NodeType: NodeTypeMap,
			Map: &Map{
				Source:      source,
				Expressions: node.Map.Expressions,
				Names:       node.Map.Names,
				Keep:        node.Map.Keep,
			},
		}

	case NodeTypeFilter:
		sourceRequired := copySet(required)
		addVariables(sourceRequired, node.Filter.Predicate)
		source := pruneColumns(node.Filter.Source, sourceRequired)
		return Node{
			Schema:   source.Schema,
			NodeType: NodeTypeFilter,
			Filter: &Filter{
				Source:    source,
				Predicate: node.Filter.Predicate,
			},
		}

	case NodeTypeGroupBy:
		sourceRequired := make(map[string]bool)
		addVariables(sourceRequired, node.GroupBy.Key...)
		addVariables(sourceRequired, node.GroupBy.AggregateExpressions...)
		return Node{
			Schema:   node.Schema,
			NodeType: NodeTypeGroupBy,
			GroupBy: &GroupBy{
				Source:               pruneColumns(node.GroupBy.Source, sourceRequired),
				Key:                  node.GroupBy.Key,
				KeyNames:             node.GroupBy.KeyNames,
				Aggregates:           node.GroupBy.Aggregates,
				AggregateExpressions: node.GroupBy.AggregateExpressions,
			},
		}

	case NodeTypeOrderBy:
		sourceRequired := copySet(required)
		addVariables(sourceRequired, node.OrderBy.Key...)
		source := pruneColumns(node.OrderBy.Source, sourceRequired)
		return Node{
			Schema:   source.Schema,
			NodeType: NodeTypeOrderBy,
			OrderBy: &OrderBy{
				Source:               source,
				Key:                  node.OrderBy.Key,
				DirectionMultipliers: node.OrderBy.DirectionMultipliers,
				NullsLast:            node.OrderBy.NullsLast,
			},
		}

	case NodeTypeLimit:
		source := pruneColumns(node.Limit.Source, required)
		return Node{
			Schema:   source.Schema,
			NodeType: NodeTypeLimit,
			Limit: &Limit{
				Source: source,
				Limit:  node.Limit.Limit,
			},
		}
	}

	panic("unexhaustive node type match")
}

func addVariables(set map[string]bool, exprs ...Expression) {
	for i := range exprs {
		for _, name := range exprs[i].VariablesUsed() {
			set[name] = true
		}
	}
}

func expressionTypes(exprs []Expression) []octosql.Type {
	out := make([]octosql.Type, len(exprs))
	for i := range exprs {
		out[i] = exprs[i].Type
	}
	return out
}

func copySet(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set))
	for k := range set {
		out[k] = true
	}
	return out
}
