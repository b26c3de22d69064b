package formats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
)

var pointType = octosql.NewStructType(
	octosql.StructField{Name: "x", Type: octosql.Nullable(octosql.Float)},
	octosql.StructField{Name: "y", Type: octosql.Nullable(octosql.Float)},
)

func testTable(t *testing.T) *execution.Table {
	table, err := execution.NewTable(
		execution.NewColumn("id", octosql.Int, []octosql.Value{octosql.NewInt(1), octosql.NewInt(2)}),
		execution.NewColumn("name", octosql.Nullable(octosql.String), []octosql.Value{octosql.NewString("Tower, A"), octosql.NewNull()}),
		execution.NewColumn("coords", octosql.Nullable(pointType), []octosql.Value{
			octosql.NewStruct([]octosql.Value{octosql.NewFloat(1), octosql.NewFloat(0.5)}),
			octosql.NewStruct([]octosql.Value{octosql.NewNull(), octosql.NewNull()}),
		}),
	)
	require.NoError(t, err)
	return table
}

func TestTextFormats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains []string
	}{
		{
			name:     "csv",
			format:   "csv",
			contains: []string{"id,name,coords\n", "1,\"Tower, A\",\"{\"\"x\"\":1,\"\"y\"\":0.5}\"\n", "2,,\"{\"\"x\"\":null,\"\"y\"\":null}\"\n"},
		},
		{
			name:     "json",
			format:   "json",
			contains: []string{`{"id":1,"name":"Tower, A","coords":{"x":1,"y":0.5}}` + "\n", `{"id":2,"name":null,"coords":{"x":null,"y":null}}` + "\n"},
		},
		{
			name:     "table",
			format:   "table",
			contains: []string{"id", "name", "coords", "Tower, A", "{1, 0.5}", "{null, null}", "2 rows"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			format, err := New(tt.format, &buf)
			require.NoError(t, err)
			require.NoError(t, WriteTable(format, testTable(t)))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestTableFormatCells(t *testing.T) {
	table, err := execution.NewTable(
		execution.NewColumn("avg_height", octosql.Nullable(octosql.Float), []octosql.Value{octosql.NewFloat(123.456), octosql.NewNull()}),
		execution.NewColumn("bucket", octosql.String, []octosql.Value{octosql.NewString("0-1000"), octosql.NewString("1000-2000")}),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(NewTableFormatter(&buf), table))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[3], "123.46")
	assert.NotContains(t, lines[4], "null")
	assert.Equal(t, "2 rows", strings.TrimSpace(lines[6]))
}

func TestInvalidFormat(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestArrowFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(NewArrowFormatter(&buf), testTable(t)))

	reader, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer reader.Release()

	assert.Equal(t, []string{"id", "name", "coords"}, fieldNames(reader.Schema().Fields()))
	require.True(t, reader.Next())
	record := reader.Record()
	require.Equal(t, int64(2), record.NumRows())

	ids := record.Column(0).(*array.Int64)
	assert.Equal(t, int64(1), ids.Value(0))
	assert.Equal(t, int64(2), ids.Value(1))

	names := record.Column(1).(*array.String)
	assert.Equal(t, "Tower, A", names.Value(0))
	assert.True(t, names.IsNull(1))

	coords := record.Column(2).(*array.Struct)
	x := coords.Field(0).(*array.Float64)
	assert.Equal(t, 1.0, x.Value(0))
	assert.True(t, x.IsNull(1))
	assert.False(t, reader.Next())
}

func TestToArrowRecord(t *testing.T) {
	record, err := ToArrowRecord(testTable(t))
	require.NoError(t, err)
	defer record.Release()
	assert.Equal(t, int64(2), record.NumRows())
	assert.Equal(t, int64(3), record.NumCols())
	assert.True(t, strings.HasPrefix(record.Schema().Field(2).Type.String(), "struct"))
}

func fieldNames(fields []arrow.Field) []string {
	out := make([]string, len(fields))
	for i := range fields {
		out[i] = fields[i].Name
	}
	return out
}
