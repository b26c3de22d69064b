package execution

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/octosql"
)

func testTable(t *testing.T, columns ...*Column) *Table {
	table, err := NewTable(columns...)
	require.NoError(t, err)
	return table
}

func TestFunctionCallNullCheck(t *testing.T) {
	table := testTable(t,
		NewColumnWithChunkSize("a", octosql.Nullable(octosql.Int), []octosql.Value{
			octosql.NewInt(1), octosql.NewNull(), octosql.NewInt(3),
		}, 2),
	)
	add := NewFunctionCall(func(values []octosql.Value) (octosql.Value, error) {
		return octosql.NewInt(values[0].Int + values[1].Int), nil
	}, []Expression{
		NewColumnReference(0),
		NewConstant(octosql.NewInt(10), octosql.Int),
	}, []int{0, 1}, octosql.Nullable(octosql.Int))

	column, err := add.Evaluate(NewContext(context.Background(), 4), table)
	require.NoError(t, err)
	assert.Equal(t, []octosql.Value{octosql.NewInt(11), octosql.NewNull(), octosql.NewInt(13)}, column.Values())
	assert.Equal(t, []int{2, 1}, column.Layout())
}

func TestFunctionCallError(t *testing.T) {
	table := testTable(t, NewColumn("a", octosql.Int, []octosql.Value{octosql.NewInt(1)}))
	failing := NewFunctionCall(func(values []octosql.Value) (octosql.Value, error) {
		return octosql.ZeroValue, errors.New("boom")
	}, []Expression{NewColumnReference(0)}, nil, octosql.Int)

	_, err := failing.Evaluate(NewContext(context.Background(), 1), table)
	assert.Error(t, err)
}

func TestKleeneLogic(t *testing.T) {
	tru, fal, null := octosql.NewBoolean(true), octosql.NewBoolean(false), octosql.NewNull()
	table := testTable(t,
		NewColumn("a", octosql.Nullable(octosql.Boolean), []octosql.Value{tru, tru, tru, fal, fal, null}),
		NewColumn("b", octosql.Nullable(octosql.Boolean), []octosql.Value{tru, fal, null, fal, null, null}),
	)
	ctx := NewContext(context.Background(), 1)
	args := []Expression{NewColumnReference(0), NewColumnReference(1)}

	and, err := NewAnd(args).Evaluate(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, []octosql.Value{tru, fal, null, fal, fal, null}, and.Values())

	or, err := NewOr(args).Evaluate(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, []octosql.Value{tru, tru, tru, fal, null, null}, or.Values())
}

func TestStructFieldAndListElement(t *testing.T) {
	ring := octosql.NewList([]octosql.Value{
		octosql.NewList([]octosql.Value{octosql.NewFloat(0), octosql.NewFloat(0)}),
	})
	table := testTable(t, NewColumn("geometry", octosql.Any, []octosql.Value{
		octosql.NewStruct([]octosql.Value{octosql.NewString("Polygon"), octosql.NewList([]octosql.Value{ring})}),
		octosql.NewNull(),
		octosql.NewStruct([]octosql.Value{octosql.NewString("Polygon"), octosql.NewList(nil)}),
	}))
	ctx := NewContext(context.Background(), 1)

	first := NewListElement(NewStructField(NewColumnReference(0), 1, octosql.Any), 0, octosql.Any)
	column, err := first.Evaluate(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, []octosql.Value{ring, octosql.NewNull(), octosql.NewNull()}, column.Values())

	last := NewListElement(NewStructField(NewColumnReference(0), 1, octosql.Any), -1, octosql.Any)
	column, err = last.Evaluate(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, ring, column.Value(0))
}

func TestParseTimeCache(t *testing.T) {
	values := make([]octosql.Value, 100)
	for i := range values {
		values[i] = octosql.NewString("x")
	}
	values[50] = octosql.NewNull()
	table := testTable(t, NewColumnWithChunkSize("s", octosql.Nullable(octosql.String), values, 7))

	parse := func(s string) (octosql.Value, error) {
		return octosql.NewString(strings.ToUpper(s)), nil
	}
	for _, cache := range []bool{false, true} {
		column, err := NewParseTime(NewColumnReference(0), parse, cache, octosql.Nullable(octosql.String)).
			Evaluate(NewContext(context.Background(), 3), table)
		require.NoError(t, err)
		assert.Equal(t, "X", column.Value(0).Str)
		assert.True(t, column.Value(50).IsNull())
		assert.Equal(t, "X", column.Value(99).Str)
	}
}

func TestUserFunctionCalledOnceWithWholeColumn(t *testing.T) {
	table := testTable(t, NewColumnWithChunkSize("a", octosql.Int, []octosql.Value{
		octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3), octosql.NewInt(4), octosql.NewInt(5),
	}, 2))

	var calls int
	var seen int
	double := NewUserFunction("double", func(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error) {
		calls++
		seen = len(args[0])
		out := make([]octosql.Value, len(args[0]))
		for i := range args[0] {
			out[i] = octosql.NewInt(args[0][i].Int * params[0].Int)
		}
		return out, nil
	}, []octosql.Value{octosql.NewInt(2)}, []Expression{NewColumnReference(0)}, octosql.Int)

	column, err := double.Evaluate(NewContext(context.Background(), 4), table)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 5, seen)
	assert.Equal(t, []int{2, 2, 1}, column.Layout())
	assert.Equal(t, 10, column.Value(4).Int)

	short := NewUserFunction("short", func(params []octosql.Value, args [][]octosql.Value) ([]octosql.Value, error) {
		return args[0][:1], nil
	}, nil, []Expression{NewColumnReference(0)}, octosql.Int)
	_, err = short.Evaluate(NewContext(context.Background(), 1), table)
	assert.Error(t, err)
}
