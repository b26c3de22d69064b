package logical

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

// Node is a step of a lazy query plan. Typecheck resolves the whole subtree into a physical plan.
type Node interface {
	Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error)
}

type Source struct {
	Name           string
	Implementation physical.DatasourceImplementation
}

func NewSource(name string, impl physical.DatasourceImplementation) *Source {
	return &Source{
		Name:           name,
		Implementation: impl,
	}
}

func (node *Source) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	schema, err := node.Implementation.Schema()
	if err != nil {
		return physical.Node{}, errors.Wrapf(err, "couldn't get schema of %s", node.Name)
	}
	return physical.Node{
		Schema:   schema,
		NodeType: physical.NodeTypeDatasource,
		Datasource: &physical.Datasource{
			Name:           node.Name,
			Implementation: node.Implementation,
		},
	}, nil
}

// WithColumns adds or replaces columns. All expressions see only the source columns.
type WithColumns struct {
	Source      Node
	Expressions []Expression
}

func NewWithColumns(source Node, exprs []Expression) *WithColumns {
	return &WithColumns{
		Source:      source,
		Expressions: exprs,
	}
}

func (node *WithColumns) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	return typecheckMap(ctx, env, node.Source, node.Expressions, true)
}

// Select keeps only the given expressions as columns.
type Select struct {
	Source      Node
	Expressions []Expression
}

func NewSelect(source Node, exprs []Expression) *Select {
	return &Select{
		Source:      source,
		Expressions: exprs,
	}
}

func (node *Select) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	return typecheckMap(ctx, env, node.Source, node.Expressions, false)
}

func typecheckMap(ctx context.Context, env physical.Environment, sourceNode Node, exprs []Expression, keep bool) (physical.Node, error) {
	source, err := sourceNode.Typecheck(ctx, env)
	if err != nil {
		return physical.Node{}, err
	}
	names := make([]string, len(exprs))
	if err := uniqueNames(exprs, names); err != nil {
		return physical.Node{}, err
	}
	expressions := make([]physical.Expression, len(exprs))
	types := make([]octosql.Type, len(exprs))
	for i := range exprs {
		expr, err := exprs[i].Typecheck(ctx, env, source.Schema)
		if err != nil {
			return physical.Node{}, errors.Wrapf(err, "couldn't typecheck expression %s", names[i])
		}
		expressions[i] = expr
		types[i] = expr.Type
	}
	return physical.Node{
		Schema:   physical.MapSchema(source.Schema, names, types, keep),
		NodeType: physical.NodeTypeMap,
		Map: &physical.Map{
			Source:      source,
			Expressions: expressions,
			Names:       names,
			Keep:        keep,
		},
	}, nil
}

func uniqueNames(exprs []Expression, names []string) error {
	seen := make(map[string]bool, len(exprs))
	for i := range exprs {
		names[i] = exprs[i].OutputName()
		if seen[names[i]] {
			return octosql.SchemaErrorf("duplicate output column name: %s", names[i])
		}
		seen[names[i]] = true
	}
	return nil
}

// Filter keeps rows for which the predicate is true. Null counts as false.
type Filter struct {
	Source    Node
	Predicate Expression
}

func NewFilter(source Node, predicate Expression) *Filter {
	return &Filter{
		Source:    source,
		Predicate: predicate,
	}
}

func (node *Filter) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	source, err := node.Source.Typecheck(ctx, env)
	if err != nil {
		return physical.Node{}, err
	}
	predicate, err := node.Predicate.Typecheck(ctx, env, source.Schema)
	if err != nil {
		return physical.Node{}, errors.Wrap(err, "couldn't typecheck filter predicate")
	}
	if octosql.WithoutNull(predicate.Type).Is(octosql.Boolean) != octosql.TypeRelationIs {
		return physical.Node{}, octosql.SchemaErrorf("filter predicate must be a Boolean, got %s", predicate.Type)
	}
	return physical.Node{
		Schema:   source.Schema,
		NodeType: physical.NodeTypeFilter,
		Filter: &physical.Filter{
			Source:    source,
			Predicate: predicate,
		},
	}, nil
}

// DropNulls removes rows with a null in any of the columns, all columns if none are given.
type DropNulls struct {
	Source  Node
	Columns []string
}

func NewDropNulls(source Node, columns []string) *DropNulls {
	return &DropNulls{
		Source:  source,
		Columns: columns,
	}
}

func (node *DropNulls) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	source, err := node.Source.Typecheck(ctx, env)
	if err != nil {
		return physical.Node{}, err
	}
	columns := node.Columns
	if len(columns) == 0 {
		columns = source.Schema.FieldNames()
	}
	var checks []Expression
	for _, name := range columns {
		index := source.Schema.FieldIndex(name)
		if index == -1 {
			return physical.Node{}, octosql.SchemaErrorf("unknown column: %s", name)
		}
		if source.Schema.Fields[index].Type.MayBeNull() {
			checks = append(checks, Col(name).IsNotNull())
		}
	}
	if len(checks) == 0 {
		return source, nil
	}
	predicate, err := And(checks...).Typecheck(ctx, env, source.Schema)
	if err != nil {
		return physical.Node{}, errors.Wrap(err, "couldn't typecheck null check")
	}
	// Column types are kept as declared, the values are just known to be present.
	return physical.Node{
		Schema:   source.Schema,
		NodeType: physical.NodeTypeFilter,
		Filter: &physical.Filter{
			Source:    source,
			Predicate: predicate,
		},
	}, nil
}

// GroupBy outputs one row per distinct key, in first-seen order: the key columns followed by the aggregates.
type GroupBy struct {
	Source     Node
	Keys       []Expression
	Aggregates []Expression
}

func NewGroupBy(source Node, keys []Expression, aggregates []Expression) *GroupBy {
	return &GroupBy{
		Source:     source,
		Keys:       keys,
		Aggregates: aggregates,
	}
}

func (node *GroupBy) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	source, err := node.Source.Typecheck(ctx, env)
	if err != nil {
		return physical.Node{}, err
	}
	all := append(append([]Expression{}, node.Keys...), node.Aggregates...)
	names := make([]string, len(all))
	if err := uniqueNames(all, names); err != nil {
		return physical.Node{}, err
	}

	fields := make([]physical.SchemaField, 0, len(all))
	keys := make([]physical.Expression, len(node.Keys))
	for i := range node.Keys {
		key, err := node.Keys[i].Typecheck(ctx, env, source.Schema)
		if err != nil {
			return physical.Node{}, errors.Wrapf(err, "couldn't typecheck group by key %s", names[i])
		}
		keys[i] = key
		fields = append(fields, physical.SchemaField{Name: names[i], Type: key.Type})
	}

	aggregates := make([]physical.Aggregate, len(node.Aggregates))
	aggregateExprs := make([]physical.Expression, len(node.Aggregates))
	for i := range node.Aggregates {
		aggregate, expr, err := typecheckAggregate(ctx, env, source.Schema, node.Aggregates[i])
		if err != nil {
			return physical.Node{}, errors.Wrapf(err, "couldn't typecheck aggregate %s", names[len(node.Keys)+i])
		}
		aggregates[i] = aggregate
		aggregateExprs[i] = expr
		fields = append(fields, physical.SchemaField{Name: aggregate.OutputName, Type: aggregate.AggregateDescriptor.OutputType})
	}

	return physical.Node{
		Schema:   physical.NewSchema(fields),
		NodeType: physical.NodeTypeGroupBy,
		GroupBy: &physical.GroupBy{
			Source:               source,
			Key:                  keys,
			KeyNames:             names[:len(node.Keys)],
			Aggregates:           aggregates,
			AggregateExpressions: aggregateExprs,
		},
	}, nil
}

// OrderBy sorts stably by the keys. Nulls sort first ascending and last descending, unless NullsLast is set.
type OrderBy struct {
	Source     Node
	Keys       []Expression
	Descending []bool
	NullsLast  bool
}

func NewOrderBy(source Node, keys []Expression, descending []bool, nullsLast bool) *OrderBy {
	return &OrderBy{
		Source:     source,
		Keys:       keys,
		Descending: descending,
		NullsLast:  nullsLast,
	}
}

func (node *OrderBy) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	source, err := node.Source.Typecheck(ctx, env)
	if err != nil {
		return physical.Node{}, err
	}
	if len(node.Descending) != len(node.Keys) {
		return physical.Node{}, octosql.SchemaErrorf("got %d sort directions for %d keys", len(node.Descending), len(node.Keys))
	}
	keys := make([]physical.Expression, len(node.Keys))
	multipliers := make([]int, len(node.Keys))
	for i := range node.Keys {
		key, err := node.Keys[i].Typecheck(ctx, env, source.Schema)
		if err != nil {
			return physical.Node{}, errors.Wrapf(err, "couldn't typecheck order by key %d", i)
		}
		keys[i] = key
		multipliers[i] = 1
		if node.Descending[i] {
			multipliers[i] = -1
		}
	}
	return physical.Node{
		Schema:   source.Schema,
		NodeType: physical.NodeTypeOrderBy,
		OrderBy: &physical.OrderBy{
			Source:               source,
			Key:                  keys,
			DirectionMultipliers: multipliers,
			NullsLast:            node.NullsLast,
		},
	}, nil
}

type Limit struct {
	Source Node
	Limit  int
}

func NewLimit(source Node, limit int) *Limit {
	return &Limit{
		Source: source,
		Limit:  limit,
	}
}

func (node *Limit) Typecheck(ctx context.Context, env physical.Environment) (physical.Node, error) {
	if node.Limit < 0 {
		return physical.Node{}, octosql.SchemaErrorf("limit must be non-negative, got %d", node.Limit)
	}
	source, err := node.Source.Typecheck(ctx, env)
	if err != nil {
		return physical.Node{}, err
	}
	return physical.Node{
		Schema:   source.Schema,
		NodeType: physical.NodeTypeLimit,
		Limit: &physical.Limit{
			Source: source,
			Limit:  node.Limit,
		},
	}, nil
}
