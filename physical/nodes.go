package physical

import (
	"context"
	"fmt"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
)

type Node struct {
	Schema Schema

	NodeType NodeType
	// Only one of the below may be non-null.
	Datasource *Datasource
	Map        *Map
	Filter     *Filter
	GroupBy    *GroupBy
	OrderBy    *OrderBy
	Limit      *Limit
}

type NodeType int

const (
	NodeTypeDatasource NodeType = iota
	NodeTypeMap
	NodeTypeFilter
	NodeTypeGroupBy
	NodeTypeOrderBy
	NodeTypeLimit
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeDatasource:
		return "datasource"
	case NodeTypeMap:
		return "map"
	case NodeTypeFilter:
		return "filter"
	case NodeTypeGroupBy:
		return "group_by"
	case NodeTypeOrderBy:
		return "order_by"
	case NodeTypeLimit:
		return "limit"
	}
	return "unknown"
}

type DatasourceImplementation interface {
	Schema() (Schema, error)
	// Materialize creates a node producing the given columns, or all of them if columns is nil.
	Materialize(ctx context.Context, env Environment, columns []string) (execution.Node, error)
}

type Datasource struct {
	Name           string
	Implementation DatasourceImplementation
	// Columns is the projection pushed down into the datasource, nil means all.
	Columns []string
}

// Map evaluates expressions named Names over the source.
// With Keep set, they replace same-named columns or get appended, otherwise they are the only output.
type Map struct {
	Source      Node
	Expressions []Expression
	Names       []string
	Keep        bool
}

type Filter struct {
	Source    Node
	Predicate Expression
}

type GroupBy struct {
	Source               Node
	Key                  []Expression
	KeyNames             []string
	Aggregates           []Aggregate
	AggregateExpressions []Expression
}

type Aggregate struct {
	Name                string
	OutputName          string
	AggregateDescriptor AggregateDescriptor
}

type OrderBy struct {
	Source               Node
	Key                  []Expression
	DirectionMultipliers []int
	NullsLast            bool
}

type Limit struct {
	Source Node
	Limit  int
}

func (node *Node) Materialize(ctx context.Context, env Environment) (execution.Node, error) {
	switch node.NodeType {
	case NodeTypeDatasource:
		return node.Datasource.Implementation.Materialize(ctx, env, node.Datasource.Columns)

	case NodeTypeMap:
		source, err := node.Map.Source.Materialize(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize map source: %w", err)
		}
		exprs, err := materializeAll(ctx, env, node.Map.Source.Schema, node.Map.Expressions)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize map expressions: %w", err)
		}
		return nodes.NewMap(source, exprs, node.Map.Names, node.Map.Keep), nil

	case NodeTypeFilter:
		source, err := node.Filter.Source.Materialize(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize filter source: %w", err)
		}
		conjuncts := Conjuncts(node.Filter.Predicate)
		predicates := make([]execution.Expression, len(conjuncts))
		for i := range conjuncts {
			predicate, err := conjuncts[i].Materialize(ctx, env, node.Filter.Source.Schema)
			if err != nil {
				return nil, fmt.Errorf("couldn't materialize filter predicate: %w", err)
			}
			predicates[i] = predicate
		}
		return nodes.NewFilter(source, predicates...), nil

	case NodeTypeGroupBy:
		source, err := node.GroupBy.Source.Materialize(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize group by source: %w", err)
		}
		key, err := materializeAll(ctx, env, node.GroupBy.Source.Schema, node.GroupBy.Key)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize group by key: %w", err)
		}
		keyTypes := make([]octosql.Type, len(node.GroupBy.Key))
		for i := range node.GroupBy.Key {
			keyTypes[i] = node.GroupBy.Key[i].Type
		}
		expressions, err := materializeAll(ctx, env, node.GroupBy.Source.Schema, node.GroupBy.AggregateExpressions)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize group by aggregate expressions: %w", err)
		}
		prototypes := make([]func() nodes.Aggregate, len(node.GroupBy.Aggregates))
		names := make([]string, len(node.GroupBy.Aggregates))
		types := make([]octosql.Type, len(node.GroupBy.Aggregates))
		for i, aggregate := range node.GroupBy.Aggregates {
			prototypes[i] = aggregate.AggregateDescriptor.Prototype
			names[i] = aggregate.OutputName
			types[i] = aggregate.AggregateDescriptor.OutputType
		}
		return nodes.NewGroupBy(source, key, node.GroupBy.KeyNames, keyTypes, expressions, prototypes, names, types), nil

	case NodeTypeOrderBy:
		source, err := node.OrderBy.Source.Materialize(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize order by source: %w", err)
		}
		key, err := materializeAll(ctx, env, node.OrderBy.Source.Schema, node.OrderBy.Key)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize order by key: %w", err)
		}
		return nodes.NewOrderBy(source, key, node.OrderBy.DirectionMultipliers, node.OrderBy.NullsLast), nil

	case NodeTypeLimit:
		source, err := node.Limit.Source.Materialize(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("couldn't materialize limit source: %w", err)
		}
		return nodes.NewLimit(source, node.Limit.Limit), nil
	}

	panic(fmt.Sprintf("unexhaustive node type match: %d", node.NodeType))
}

// Conjuncts splits nested conjunctions into their arguments, in order.
func Conjuncts(expr Expression) []Expression {
	if expr.ExpressionType != ExpressionTypeAnd {
		return []Expression{expr}
	}
	var out []Expression
	for _, arg := range expr.And.Arguments {
		out = append(out, Conjuncts(arg)...)
	}
	return out
}
