package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var geometryType = octosql.NewStructType(
	octosql.StructField{Name: "type", Type: octosql.String},
	octosql.StructField{Name: "coordinates", Type: octosql.NewListType(octosql.NewListType(octosql.NewListType(octosql.Float)))},
)

func point(x, y float64) octosql.Value {
	return octosql.NewList([]octosql.Value{octosql.NewFloat(x), octosql.NewFloat(y)})
}

func testTable(t *testing.T) *execution.Table {
	created := time.Date(2001, 5, 1, 10, 30, 0, 0, time.UTC)
	table, err := execution.NewTable(
		execution.NewColumn("OBJECTID", octosql.Int, []octosql.Value{octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3)}),
		execution.NewColumn("SHAPE_Area", octosql.Nullable(octosql.Float), []octosql.Value{octosql.NewFloat(10.5), octosql.NewNull(), octosql.NewFloat(-3)}),
		execution.NewColumn("NAME", octosql.Nullable(octosql.String), []octosql.Value{octosql.NewString("a"), octosql.NewString(""), octosql.NewNull()}),
		execution.NewColumn("Active", octosql.Boolean, []octosql.Value{octosql.NewBoolean(true), octosql.NewBoolean(false), octosql.NewBoolean(true)}),
		execution.NewColumn("created", octosql.Nullable(octosql.Time), []octosql.Value{octosql.NewTime(created), octosql.NewNull(), octosql.NewTime(created.Add(time.Hour))}),
		execution.NewColumn("geometry", octosql.Nullable(geometryType), []octosql.Value{
			octosql.NewStruct([]octosql.Value{
				octosql.NewString("Polygon"),
				octosql.NewList([]octosql.Value{octosql.NewList([]octosql.Value{point(0, 0), point(1.25, 0), point(1, 1)})}),
			}),
			octosql.NewNull(),
			octosql.NewStruct([]octosql.Value{octosql.NewString("Polygon"), octosql.NewList(nil)}),
		}),
	)
	require.NoError(t, err)
	return table
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "buildings.parquet")
	table := testTable(t)
	require.NoError(t, Write(path, table))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	read, err := Read(path, nil)
	require.NoError(t, err)
	assert.Equal(t, table.ColumnNames(), read.ColumnNames())
	require.Equal(t, table.NumRows(), read.NumRows())
	for i, column := range table.Columns() {
		got := read.ColumnAt(i)
		assert.True(t, column.Type.Equals(got.Type), "column %s: got type %s", column.Name, got.Type)
		for row := 0; row < table.NumRows(); row++ {
			assert.Equal(t, 0, column.Value(row).Compare(got.Value(row)), "column %s row %d: %s != %s", column.Name, row, column.Value(row), got.Value(row))
		}
	}
}

func TestProjection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.parquet")
	require.NoError(t, Write(path, testTable(t)))

	ds := NewDatasource(path)
	schema, err := ds.Schema()
	require.NoError(t, err)
	assert.Equal(t, []string{"OBJECTID", "SHAPE_Area", "NAME", "Active", "created", "geometry"}, schema.FieldNames())

	node, err := ds.Materialize(context.Background(), physical.Environment{}, []string{"NAME", "OBJECTID"})
	require.NoError(t, err)
	table, err := node.Run(execution.NewContext(context.Background(), 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"NAME", "OBJECTID"}, table.ColumnNames())
	objectID, _ := table.Column("OBJECTID")
	assert.Equal(t, []octosql.Value{octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3)}, objectID.Values())

	empty, err := Read(path, []string{})
	require.NoError(t, err)
	assert.Equal(t, 3, empty.NumRows())
	assert.Equal(t, 0, empty.NumColumns())

	_, err = Read(path, []string{"height"})
	assert.True(t, octosql.IsSchemaError(err))
}

func TestProjectionAcrossPages(t *testing.T) {
	const rows = 3*readBatchSize + 7
	heights := make([]octosql.Value, rows)
	names := make([]octosql.Value, rows)
	for i := range heights {
		if i%3 == 0 {
			heights[i] = octosql.NewNull()
		} else {
			heights[i] = octosql.NewFloat(float64(i) / 4)
		}
		names[i] = octosql.NewString(fmt.Sprintf("building %d", i))
	}
	table, err := execution.NewTable(
		execution.NewColumn("TOPHEIGHT", octosql.Nullable(octosql.Float), heights),
		execution.NewColumn("NAME", octosql.String, names),
	)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "buildings.parquet")
	require.NoError(t, Write(path, table))

	read, err := Read(path, []string{"TOPHEIGHT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TOPHEIGHT"}, read.ColumnNames())
	column, _ := read.Column("TOPHEIGHT")
	assert.Equal(t, heights, column.Values())
}

func TestMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.parquet"), nil)
	assert.True(t, octosql.IsIOError(err))
}
