package nodes

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
)

type countAggregate struct{ count int }

func (c *countAggregate) Add(value octosql.Value) { c.count++ }
func (c *countAggregate) Trigger() octosql.Value  { return octosql.NewInt(c.count) }

func newCount() Aggregate { return &countAggregate{} }

func testSource(t *testing.T, chunkSize int, columns map[string][]octosql.Value, order ...string) Node {
	out := make([]*Column, len(order))
	for i, name := range order {
		out[i] = NewColumnWithChunkSize(name, octosql.Any, columns[name], chunkSize)
	}
	table, err := NewTable(out...)
	require.NoError(t, err)
	return NewTableSource(table, nil)
}

func run(t *testing.T, node Node) *Table {
	table, err := node.Run(NewContext(context.Background(), 4))
	require.NoError(t, err)
	return table
}

func TestFilter(t *testing.T) {
	source := testSource(t, 2, map[string][]octosql.Value{
		"a": {octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3), octosql.NewInt(4)},
		"p": {octosql.NewBoolean(true), octosql.NewNull(), octosql.NewBoolean(false), octosql.NewBoolean(true)},
	}, "a", "p")

	out := run(t, NewFilter(source, NewColumnReference(1)))
	assert.Equal(t, []octosql.Value{octosql.NewInt(1), octosql.NewInt(4)}, out.ColumnAt(0).Values())
}

func TestFilterNarrowsByEachPredicate(t *testing.T) {
	source := testSource(t, 2, map[string][]octosql.Value{
		"a": {octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3), octosql.NewInt(4), octosql.NewInt(5)},
		"p": {octosql.NewBoolean(true), octosql.NewNull(), octosql.NewBoolean(false), octosql.NewBoolean(true), octosql.NewBoolean(true)},
	}, "a", "p")

	var mu sync.Mutex
	var seen []octosql.Value
	onlyKept := NewFunctionCall(func(values []octosql.Value) (octosql.Value, error) {
		if values[0].Int == 2 || values[0].Int == 3 {
			return octosql.ZeroValue, errors.Errorf("evaluated dropped row %d", values[0].Int)
		}
		mu.Lock()
		seen = append(seen, values[0])
		mu.Unlock()
		return octosql.NewBoolean(values[0].Int != 4), nil
	}, []Expression{NewColumnReference(0)}, nil, octosql.Boolean)

	out, err := NewFilter(source, NewColumnReference(1), onlyKept).Run(NewContext(context.Background(), 1))
	require.NoError(t, err)
	assert.Equal(t, []octosql.Value{octosql.NewInt(1), octosql.NewInt(5)}, out.ColumnAt(0).Values())
	assert.ElementsMatch(t, []octosql.Value{octosql.NewInt(1), octosql.NewInt(4), octosql.NewInt(5)}, seen)
}

func TestGroupByFirstSeenOrder(t *testing.T) {
	source := testSource(t, 2, map[string][]octosql.Value{
		"k": {
			octosql.NewString("b"), octosql.NewString("a"), octosql.NewString("b"),
			octosql.NewNull(), octosql.NewString("a"), octosql.NewNull(),
		},
		"v": {
			octosql.NewInt(1), octosql.NewNull(), octosql.NewInt(1),
			octosql.NewInt(1), octosql.NewInt(1), octosql.NewInt(1),
		},
	}, "k", "v")

	out := run(t, NewGroupBy(
		source,
		[]Expression{NewColumnReference(0)}, []string{"k"}, []octosql.Type{octosql.Nullable(octosql.String)},
		[]Expression{NewColumnReference(1)}, []func() Aggregate{newCount}, []string{"count"}, []octosql.Type{octosql.Int},
	))

	assert.Equal(t, []string{"k", "count"}, out.ColumnNames())
	assert.Equal(t, []octosql.Value{octosql.NewString("b"), octosql.NewString("a"), octosql.NewNull()}, out.ColumnAt(0).Values())
	// Nulls aren't passed to aggregates.
	assert.Equal(t, []octosql.Value{octosql.NewInt(2), octosql.NewInt(1), octosql.NewInt(2)}, out.ColumnAt(1).Values())
}

func TestGroupByNormalizesFloatKeys(t *testing.T) {
	source := testSource(t, 10, map[string][]octosql.Value{
		"k": {octosql.NewFloat(0), octosql.NewFloat(math.Copysign(0, -1)), octosql.NewFloat(math.NaN()), octosql.NewFloat(math.NaN())},
	}, "k")

	out := run(t, NewGroupBy(
		source,
		[]Expression{NewColumnReference(0)}, []string{"k"}, []octosql.Type{octosql.Float},
		[]Expression{NewColumnReference(0)}, []func() Aggregate{newCount}, []string{"count"}, []octosql.Type{octosql.Int},
	))
	assert.Equal(t, 2, out.NumRows())
}

func TestGroupByEmptyInput(t *testing.T) {
	source := testSource(t, 10, map[string][]octosql.Value{"k": {}}, "k")
	out := run(t, NewGroupBy(
		source,
		[]Expression{NewColumnReference(0)}, []string{"k"}, []octosql.Type{octosql.Int},
		[]Expression{NewColumnReference(0)}, []func() Aggregate{newCount}, []string{"count"}, []octosql.Type{octosql.Int},
	))
	assert.Equal(t, 0, out.NumRows())
	assert.Equal(t, []string{"k", "count"}, out.ColumnNames())
}

func TestOrderByIsStable(t *testing.T) {
	source := testSource(t, 2, map[string][]octosql.Value{
		"k1": {octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(1), octosql.NewInt(2), octosql.NewNull()},
		"k2": {octosql.NewString("x"), octosql.NewString("x"), octosql.NewString("y"), octosql.NewString("x"), octosql.NewString("x")},
		"id": {octosql.NewInt(0), octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3), octosql.NewInt(4)},
	}, "k1", "k2", "id")

	tests := []struct {
		name       string
		keys       []Expression
		directions []int
		nullsLast  bool
		want       []int
	}{
		{
			name:       "single ascending",
			keys:       []Expression{NewColumnReference(0)},
			directions: []int{1},
			want:       []int{4, 0, 2, 1, 3},
		},
		{
			name:       "single descending",
			keys:       []Expression{NewColumnReference(0)},
			directions: []int{-1},
			want:       []int{1, 3, 0, 2, 4},
		},
		{
			name:       "nulls last ascending",
			keys:       []Expression{NewColumnReference(0)},
			directions: []int{1},
			nullsLast:  true,
			want:       []int{0, 2, 1, 3, 4},
		},
		{
			name:       "two keys mixed directions",
			keys:       []Expression{NewColumnReference(1), NewColumnReference(0)},
			directions: []int{-1, 1},
			want:       []int{2, 4, 0, 1, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(t, NewOrderBy(source, tt.keys, tt.directions, tt.nullsLast))
			ids := make([]int, out.NumRows())
			for i, value := range out.ColumnAt(2).Values() {
				ids[i] = value.Int
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestLimit(t *testing.T) {
	source := testSource(t, 2, map[string][]octosql.Value{
		"a": {octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3)},
	}, "a")

	assert.Equal(t, 2, run(t, NewLimit(source, 2)).NumRows())
	assert.Equal(t, 3, run(t, NewLimit(source, 10)).NumRows())
	assert.Equal(t, 0, run(t, NewLimit(source, 0)).NumRows())
}

func TestMapKeepReplacesInPlace(t *testing.T) {
	source := testSource(t, 2, map[string][]octosql.Value{
		"a": {octosql.NewInt(1), octosql.NewInt(2)},
		"b": {octosql.NewInt(3), octosql.NewInt(4)},
	}, "a", "b")

	out := run(t, NewMap(source, []Expression{
		NewColumnReference(1),
		NewConstant(octosql.NewString("c"), octosql.String),
	}, []string{"a", "c"}, true))
	assert.Equal(t, []string{"a", "b", "c"}, out.ColumnNames())
	assert.Equal(t, 3, out.ColumnAt(0).Value(0).Int)

	selected := run(t, NewMap(source, []Expression{NewColumnReference(1)}, []string{"x"}, false))
	assert.Equal(t, []string{"x"}, selected.ColumnNames())
}
