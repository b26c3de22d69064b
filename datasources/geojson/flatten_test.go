package geojson

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var physicalEnv = physical.Environment{}

const collection = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"OBJECTID": 1, "SHAPE_Area": 120, "NAME": "a"},
			"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [2, 0], [2, 2], [0, 2], [0, 0]]]}},
		{"type": "Feature", "properties": {"OBJECTID": 2, "SHAPE_Area": 80.5, "FLOORS": 12},
			"geometry": null},
		{"type": "Feature", "properties": {"OBJECTID": 3, "NAME": null},
			"geometry": {"type": "Polygon", "coordinates": [[[1.5, 1], [2, 1], [2, 2]]]}}
	]
}`

func TestFlatten(t *testing.T) {
	table, err := Flatten([]byte(collection))
	require.NoError(t, err)

	assert.Equal(t, []string{"OBJECTID", "SHAPE_Area", "NAME", "FLOORS", "geometry"}, table.ColumnNames())
	assert.Equal(t, 3, table.NumRows())

	tests := []struct {
		column string
		t      octosql.Type
		values []octosql.Value
	}{
		{
			column: "OBJECTID",
			t:      octosql.Int,
			values: []octosql.Value{octosql.NewInt(1), octosql.NewInt(2), octosql.NewInt(3)},
		},
		{
			column: "SHAPE_Area",
			t:      octosql.Nullable(octosql.Float),
			values: []octosql.Value{octosql.NewFloat(120), octosql.NewFloat(80.5), octosql.NewNull()},
		},
		{
			column: "NAME",
			t:      octosql.Nullable(octosql.String),
			values: []octosql.Value{octosql.NewString("a"), octosql.NewNull(), octosql.NewNull()},
		},
		{
			column: "FLOORS",
			t:      octosql.Nullable(octosql.Int),
			values: []octosql.Value{octosql.NewNull(), octosql.NewInt(12), octosql.NewNull()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			column, ok := table.Column(tt.column)
			require.True(t, ok)
			assert.True(t, column.Type.Equals(tt.t), "got %s", column.Type)
			assert.Equal(t, tt.values, column.Values())
		})
	}

	geometry, _ := table.Column("geometry")
	assert.True(t, geometry.Type.Equals(octosql.Nullable(GeometryType)))
	assert.True(t, geometry.Value(1).IsNull())
	first := geometry.Value(0)
	require.Equal(t, octosql.TypeIDStruct, first.TypeID)
	assert.Equal(t, octosql.NewString("Polygon"), first.Struct[0])
	ring := first.Struct[1].List[0]
	assert.Len(t, ring.List, 5)
	assert.Equal(t, octosql.NewList([]octosql.Value{octosql.NewFloat(2), octosql.NewFloat(0)}), ring.List[1])
}

func TestFlattenErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "invalid json", doc: `{"features": [`},
		{name: "no features", doc: `{"type": "FeatureCollection"}`},
		{name: "missing properties", doc: `{"features": [{"geometry": null}]}`},
		{name: "missing geometry", doc: `{"features": [{"properties": {}}]}`},
		{name: "multipolygon depth", doc: `{"features": [{"properties": {}, "geometry": {"type": "MultiPolygon", "coordinates": [[[[0, 0]]]]}}]}`},
		{name: "shallow coordinates", doc: `{"features": [{"properties": {}, "geometry": {"type": "Polygon", "coordinates": [[0, 0]]}}]}`},
		{name: "conflicting property types", doc: `{"features": [{"properties": {"a": 1}, "geometry": null}, {"properties": {"a": "x"}, "geometry": null}]}`},
		{name: "nested property", doc: `{"features": [{"properties": {"a": [1]}, "geometry": null}]}`},
		{name: "geometry property", doc: `{"features": [{"properties": {"geometry": 1}, "geometry": null}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, octosql.IsParseError(err), "got %s", err)
		})
	}
}

func TestEmptyCollection(t *testing.T) {
	table, err := Flatten([]byte(`{"features": []}`))
	require.NoError(t, err)
	assert.Equal(t, 0, table.NumRows())
	assert.Equal(t, []string{"geometry"}, table.ColumnNames())
}

func TestDatasource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.geojson")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0644))

	ds := NewDatasource(path)
	schema, err := ds.Schema()
	require.NoError(t, err)
	assert.Equal(t, "geometry", schema.Fields[len(schema.Fields)-1].Name)

	node, err := ds.Materialize(context.Background(), physicalEnv, []string{"NAME", "OBJECTID"})
	require.NoError(t, err)
	table, err := node.Run(execution.NewContext(context.Background(), 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"NAME", "OBJECTID"}, table.ColumnNames())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.True(t, octosql.IsIOError(err))
}
