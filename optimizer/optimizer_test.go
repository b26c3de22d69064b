package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/aggregates"
	"github.com/cube2222/octogeo/datasources/memory"
	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/functions"
	"github.com/cube2222/octogeo/logical"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var env = physical.Environment{
	Functions:   functions.FunctionMap(),
	Aggregates:  aggregates.AggregateMap(),
	Parallelism: 2,
}

func testSource(t *testing.T) logical.Node {
	table, err := execution.NewTable(
		execution.NewColumnWithChunkSize("a", octosql.Int, []octosql.Value{octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3)}, 2),
		execution.NewColumnWithChunkSize("b", octosql.String, []octosql.Value{octosql.NewString("x"), octosql.NewString("y"), octosql.NewString("x")}, 2),
		execution.NewColumnWithChunkSize("c", octosql.Float, []octosql.Value{octosql.NewFloat(0.5), octosql.NewFloat(1.5), octosql.NewFloat(2.5)}, 2),
	)
	require.NoError(t, err)
	return logical.NewSource("test", memory.NewDatasource(table))
}

func datasource(node physical.Node) physical.Node {
	for {
		switch node.NodeType {
		case physical.NodeTypeDatasource:
			return node
		case physical.NodeTypeMap:
			node = node.Map.Source
		case physical.NodeTypeFilter:
			node = node.Filter.Source
		case physical.NodeTypeGroupBy:
			node = node.GroupBy.Source
		case physical.NodeTypeOrderBy:
			node = node.OrderBy.Source
		case physical.NodeTypeLimit:
			node = node.Limit.Source
		}
	}
}

func runPlan(t *testing.T, plan physical.Node) *execution.Table {
	node, err := plan.Materialize(context.Background(), env)
	require.NoError(t, err)
	table, err := node.Run(execution.NewContext(context.Background(), env.Parallelism))
	require.NoError(t, err)
	return table
}

func TestMergeFilters(t *testing.T) {
	source := testSource(t)
	plan, err := logical.NewFilter(
		logical.NewFilter(source, logical.Col("a").Gt(logical.Lit(1))),
		logical.Col("b").Eq(logical.Lit("x")),
	).Typecheck(context.Background(), env)
	require.NoError(t, err)

	merged, changed := MergeFilters(plan)
	require.True(t, changed)
	require.Equal(t, physical.NodeTypeFilter, merged.NodeType)
	assert.Equal(t, physical.NodeTypeDatasource, merged.Filter.Source.NodeType)
	assert.Equal(t, physical.ExpressionTypeAnd, merged.Filter.Predicate.ExpressionType)
	assert.Len(t, merged.Filter.Predicate.And.Arguments, 2)

	_, changed = MergeFilters(merged)
	assert.False(t, changed)
}

func TestPruneColumns(t *testing.T) {
	tests := []struct {
		name    string
		node    func(source logical.Node) logical.Node
		columns []string
	}{
		{
			name: "select",
			node: func(source logical.Node) logical.Node {
				return logical.NewSelect(source, []logical.Expression{logical.Col("c").Mul(logical.Lit(2))})
			},
			columns: []string{"c"},
		},
		{
			name: "filter under select",
			node: func(source logical.Node) logical.Node {
				return logical.NewSelect(
					logical.NewFilter(source, logical.Col("a").Gt(logical.Lit(1))),
					[]logical.Expression{logical.Col("b")},
				)
			},
			columns: []string{"a", "b"},
		},
		{
			name: "group by",
			node: func(source logical.Node) logical.Node {
				return logical.NewGroupBy(source, []logical.Expression{logical.Col("b")}, []logical.Expression{logical.Col("b").Count().Alias("n")})
			},
			columns: []string{"b"},
		},
		{
			name: "constant select reads nothing",
			node: func(source logical.Node) logical.Node {
				return logical.NewSelect(source, []logical.Expression{logical.Lit(1)})
			},
			columns: []string{},
		},
		{
			name: "with columns keeps replaced column",
			node: func(source logical.Node) logical.Node {
				return logical.NewSelect(
					logical.NewWithColumns(source, []logical.Expression{logical.Lit("z").Alias("b"), logical.Col("a").Add(logical.Lit(1)).Alias("d")}),
					[]logical.Expression{logical.Col("b"), logical.Col("d")},
				)
			},
			columns: []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := tt.node(testSource(t)).Typecheck(context.Background(), env)
			require.NoError(t, err)

			optimized := Optimize(plan)
			assert.Equal(t, tt.columns, datasource(optimized).Datasource.Columns)
			assert.Equal(t, plan.Schema, optimized.Schema)

			want := runPlan(t, plan)
			got := runPlan(t, optimized)
			assert.Equal(t, want.NumRows(), got.NumRows())
			for i, column := range want.Columns() {
				assert.Equal(t, column.Values(), got.ColumnAt(i).Values())
			}
		})
	}
}

func TestPruneColumnsKeepsColumnOrder(t *testing.T) {
	plan, err := logical.NewWithColumns(
		testSource(t),
		[]logical.Expression{logical.Col("a").Mul(logical.Lit(10)).Alias("a")},
	).Typecheck(context.Background(), env)
	require.NoError(t, err)

	optimized := Optimize(plan)
	assert.Equal(t, []string{"a", "b", "c"}, optimized.Schema.FieldNames())
	assert.Equal(t, []string{"a", "b", "c"}, runPlan(t, optimized).ColumnNames())
}
