// Package dataframe is the user facing query API.
// A LazyFrame records a plan which is only executed by Collect. A DataFrame holds a materialized table,
// each of its methods runs the same step the LazyFrame would, right away.
package dataframe

import (
	"context"
	"crypto/rand"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/datasources/memory"
	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/graph"
	"github.com/cube2222/octogeo/logical"
	"github.com/cube2222/octogeo/optimizer"
	"github.com/cube2222/octogeo/physical"
)

type LazyFrame struct {
	node logical.Node
	env  physical.Environment
}

func Scan(name string, impl physical.DatasourceImplementation, env physical.Environment) LazyFrame {
	return LazyFrame{
		node: logical.NewSource(name, impl),
		env:  env,
	}
}

func FromTable(table *execution.Table, env physical.Environment) LazyFrame {
	return Scan("memory", memory.NewDatasource(table), env)
}

func (lf LazyFrame) with(node logical.Node) LazyFrame {
	return LazyFrame{
		node: node,
		env:  lf.env,
	}
}

func (lf LazyFrame) WithColumns(exprs ...logical.Expression) LazyFrame {
	return lf.with(logical.NewWithColumns(lf.node, exprs))
}

func (lf LazyFrame) Select(exprs ...logical.Expression) LazyFrame {
	return lf.with(logical.NewSelect(lf.node, exprs))
}

func (lf LazyFrame) Filter(predicate logical.Expression) LazyFrame {
	return lf.with(logical.NewFilter(lf.node, predicate))
}

// DropNulls removes rows with a null in any of the given columns, or in any column if none are given.
func (lf LazyFrame) DropNulls(columns ...string) LazyFrame {
	return lf.with(logical.NewDropNulls(lf.node, columns))
}

func (lf LazyFrame) GroupBy(keys ...logical.Expression) LazyGroupBy {
	return LazyGroupBy{
		source: lf,
		keys:   keys,
	}
}

type LazyGroupBy struct {
	source LazyFrame
	keys   []logical.Expression
}

func (g LazyGroupBy) Agg(aggregates ...logical.Expression) LazyFrame {
	return g.source.with(logical.NewGroupBy(g.source.node, g.keys, aggregates))
}

type SortKey struct {
	Expression logical.Expression
	Descending bool
}

func Asc(expr logical.Expression) SortKey {
	return SortKey{Expression: expr}
}

func Desc(expr logical.Expression) SortKey {
	return SortKey{Expression: expr, Descending: true}
}

type SortOptions struct {
	// NullsLast puts nulls at the end regardless of direction.
	NullsLast bool
}

func (lf LazyFrame) Sort(keys ...SortKey) LazyFrame {
	return lf.SortWithOptions(SortOptions{}, keys...)
}

func (lf LazyFrame) SortWithOptions(options SortOptions, keys ...SortKey) LazyFrame {
	exprs := make([]logical.Expression, len(keys))
	descending := make([]bool, len(keys))
	for i := range keys {
		exprs[i] = keys[i].Expression
		descending[i] = keys[i].Descending
	}
	return lf.with(logical.NewOrderBy(lf.node, exprs, descending, options.NullsLast))
}

func (lf LazyFrame) Limit(n int) LazyFrame {
	return lf.with(logical.NewLimit(lf.node, n))
}

// Schema resolves the plan without reading any data.
func (lf LazyFrame) Schema(ctx context.Context) (physical.Schema, error) {
	plan, err := lf.node.Typecheck(ctx, lf.env)
	if err != nil {
		return physical.Schema{}, err
	}
	return plan.Schema, nil
}

// Plan returns the typechecked and optimized physical plan.
func (lf LazyFrame) Plan(ctx context.Context) (physical.Node, error) {
	plan, err := lf.node.Typecheck(ctx, lf.env)
	if err != nil {
		return physical.Node{}, err
	}
	return optimizer.Optimize(plan), nil
}

// Explain renders the optimized plan in graphviz dot format.
func (lf LazyFrame) Explain(ctx context.Context) (string, error) {
	plan, err := lf.Plan(ctx)
	if err != nil {
		return "", err
	}
	g, err := graph.Show(physical.DescribeNode(plan, true))
	if err != nil {
		return "", errors.Wrap(err, "couldn't render plan")
	}
	return g.String(), nil
}

func (lf LazyFrame) Collect(ctx context.Context) (DataFrame, error) {
	plan, err := lf.Plan(ctx)
	if err != nil {
		return DataFrame{}, err
	}
	return run(ctx, lf.env, plan)
}

func run(ctx context.Context, env physical.Environment, plan physical.Node) (DataFrame, error) {
	queryID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	start := time.Now()

	node, err := plan.Materialize(ctx, env)
	if err != nil {
		return DataFrame{}, errors.Wrap(err, "couldn't materialize plan")
	}
	table, err := node.Run(execution.NewContext(ctx, env.Parallelism))
	if err != nil {
		log.Printf("query %s failed after %s: %s", queryID, time.Since(start), err)
		return DataFrame{}, err
	}
	log.Printf("query %s produced %d rows in %s", queryID, table.NumRows(), time.Since(start))

	return DataFrame{
		table: table,
		env:   env,
	}, nil
}
