package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/octosql"
)

func ints(values ...int) []octosql.Value {
	out := make([]octosql.Value, len(values))
	for i := range values {
		out[i] = octosql.NewInt(values[i])
	}
	return out
}

func TestNewColumnWithChunkSize(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		chunkSize int
		want      []int
	}{
		{name: "empty", rows: 0, chunkSize: 2, want: []int{}},
		{name: "exact", rows: 4, chunkSize: 2, want: []int{2, 2}},
		{name: "remainder", rows: 5, chunkSize: 2, want: []int{2, 2, 1}},
		{name: "single", rows: 5, chunkSize: 10, want: []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]int, tt.rows)
			for i := range values {
				values[i] = i
			}
			column := NewColumnWithChunkSize("a", octosql.Int, ints(values...), tt.chunkSize)
			assert.Equal(t, tt.want, column.Layout())
			assert.Equal(t, tt.rows, column.Len())
			for i := range values {
				assert.Equal(t, i, column.Value(i).Int)
			}
		})
	}
}

func TestColumnRechunk(t *testing.T) {
	column := NewColumnWithChunkSize("a", octosql.Int, ints(1, 2, 3, 4, 5), 2)
	rechunked := column.Rechunk([]int{1, 4})
	assert.Equal(t, []int{1, 4}, rechunked.Layout())
	assert.Equal(t, column.Values(), rechunked.Values())
	assert.Same(t, column, column.Rechunk([]int{2, 2, 1}))
}

func TestTableInvariants(t *testing.T) {
	a := NewColumn("a", octosql.Int, ints(1, 2, 3))
	b := NewColumn("b", octosql.Int, ints(1, 2))

	_, err := NewTable(a, b)
	assert.True(t, octosql.IsSchemaError(err))

	_, err = NewTable(a, a.Renamed("a"))
	assert.True(t, octosql.IsSchemaError(err))

	table, err := NewTable(a)
	require.NoError(t, err)

	_, err = table.WithColumn(b)
	assert.Error(t, err)

	replaced, err := table.WithColumn(NewColumn("a", octosql.Int, ints(7, 8, 9)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, replaced.ColumnNames())
	assert.Equal(t, 7, replaced.ColumnAt(0).Value(0).Int)
	// The original is untouched.
	assert.Equal(t, 1, table.ColumnAt(0).Value(0).Int)

	dropped := replaced.Drop("a")
	assert.Equal(t, 0, dropped.NumColumns())
	assert.Equal(t, 3, dropped.NumRows())
}

func TestTableTakeAndSlice(t *testing.T) {
	table, err := NewTable(
		NewColumnWithChunkSize("a", octosql.Int, ints(0, 1, 2, 3, 4, 5), 4),
		NewColumnWithChunkSize("b", octosql.String, []octosql.Value{
			octosql.NewString("a"), octosql.NewString("b"), octosql.NewString("c"),
			octosql.NewString("d"), octosql.NewString("e"), octosql.NewString("f"),
		}, 4),
	)
	require.NoError(t, err)

	taken, err := table.Take(NewContext(context.Background(), 2), []int{5, 0, 3})
	require.NoError(t, err)
	assert.Equal(t, ints(5, 0, 3), taken.ColumnAt(0).Values())
	assert.Equal(t, "f", taken.ColumnAt(1).Value(0).Str)

	sliced := table.Slice(2, 5)
	assert.Equal(t, 3, sliced.NumRows())
	assert.Equal(t, ints(2, 3, 4), sliced.ColumnAt(0).Values())
	assert.Equal(t, []int{2, 1}, sliced.ColumnAt(0).Layout())

	assert.Equal(t, 6, table.Slice(0, 100).NumRows())
}
