package formats

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

type CSVFormatter struct {
	writer *csv.Writer
	arena  *fastjson.Arena
	fields []physical.SchemaField
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{
		writer: csv.NewWriter(w),
		arena:  new(fastjson.Arena),
	}
}

func (t *CSVFormatter) SetSchema(schema physical.Schema) {
	t.fields = schema.Fields
	t.writer.Write(schema.FieldNames())
}

func (t *CSVFormatter) Write(values []octosql.Value) error {
	row := make([]string, len(values))
	for i := range values {
		row[i] = t.cell(t.fields[i].Type, values[i])
	}
	return t.writer.Write(row)
}

func (t *CSVFormatter) cell(typ octosql.Type, value octosql.Value) string {
	switch value.TypeID {
	case octosql.TypeIDNull:
		return ""
	case octosql.TypeIDInt:
		return strconv.Itoa(value.Int)
	case octosql.TypeIDFloat:
		return octosql.FormatFloat(value.Float)
	case octosql.TypeIDBoolean:
		return strconv.FormatBool(value.Boolean)
	case octosql.TypeIDString:
		return value.Str
	case octosql.TypeIDTime:
		return value.Time.Format(time.RFC3339Nano)
	default:
		// Nested values are embedded as JSON.
		out := string(ValueToJson(t.arena, typ, value).MarshalTo(nil))
		t.arena.Reset()
		return out
	}
}

func (t *CSVFormatter) Close() error {
	t.writer.Flush()
	return t.writer.Error()
}
