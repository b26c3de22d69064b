package dataframe

import (
	"context"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/logical"
	"github.com/cube2222/octogeo/physical"
)

// DataFrame is a materialized table. Every operation executes immediately, without plan optimization,
// and returns a new DataFrame.
type DataFrame struct {
	table *execution.Table
	env   physical.Environment
}

func New(table *execution.Table, env physical.Environment) DataFrame {
	return DataFrame{
		table: table,
		env:   env,
	}
}

func (df DataFrame) Lazy() LazyFrame {
	return FromTable(df.table, df.env)
}

func (df DataFrame) Table() *execution.Table {
	return df.table
}

func (df DataFrame) Schema() physical.Schema {
	return physical.TableSchema(df.table)
}

func (df DataFrame) NumRows() int {
	return df.table.NumRows()
}

func (df DataFrame) Column(name string) (*execution.Column, bool) {
	return df.table.Column(name)
}

func (df DataFrame) step(ctx context.Context, lf LazyFrame) (DataFrame, error) {
	plan, err := lf.node.Typecheck(ctx, df.env)
	if err != nil {
		return DataFrame{}, err
	}
	return run(ctx, df.env, plan)
}

// Apply runs a step expressed on the lazy API right away.
func (df DataFrame) Apply(ctx context.Context, step func(LazyFrame) LazyFrame) (DataFrame, error) {
	return df.step(ctx, step(df.Lazy()))
}

func (df DataFrame) WithColumns(ctx context.Context, exprs ...logical.Expression) (DataFrame, error) {
	return df.step(ctx, df.Lazy().WithColumns(exprs...))
}

func (df DataFrame) Select(ctx context.Context, exprs ...logical.Expression) (DataFrame, error) {
	return df.step(ctx, df.Lazy().Select(exprs...))
}

func (df DataFrame) Filter(ctx context.Context, predicate logical.Expression) (DataFrame, error) {
	return df.step(ctx, df.Lazy().Filter(predicate))
}

func (df DataFrame) DropNulls(ctx context.Context, columns ...string) (DataFrame, error) {
	return df.step(ctx, df.Lazy().DropNulls(columns...))
}

func (df DataFrame) GroupBy(keys ...logical.Expression) GroupBy {
	return GroupBy{
		source: df,
		keys:   keys,
	}
}

type GroupBy struct {
	source DataFrame
	keys   []logical.Expression
}

func (g GroupBy) Agg(ctx context.Context, aggregates ...logical.Expression) (DataFrame, error) {
	return g.source.step(ctx, g.source.Lazy().GroupBy(g.keys...).Agg(aggregates...))
}

func (df DataFrame) Sort(ctx context.Context, keys ...SortKey) (DataFrame, error) {
	return df.step(ctx, df.Lazy().Sort(keys...))
}

func (df DataFrame) SortWithOptions(ctx context.Context, options SortOptions, keys ...SortKey) (DataFrame, error) {
	return df.step(ctx, df.Lazy().SortWithOptions(options, keys...))
}

func (df DataFrame) Limit(ctx context.Context, n int) (DataFrame, error) {
	return df.step(ctx, df.Lazy().Limit(n))
}
