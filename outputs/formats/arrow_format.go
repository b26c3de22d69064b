package formats

import (
	"io"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/ipc"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

const arrowBatchSize = 8192

// ArrowFormatter writes an Arrow IPC stream, one record batch per arrowBatchSize rows.
type ArrowFormatter struct {
	w         io.Writer
	allocator memory.Allocator
	schema    *arrow.Schema
	fields    []physical.SchemaField
	builder   *array.RecordBuilder
	writer    *ipc.Writer
	rows      int
}

func NewArrowFormatter(w io.Writer) *ArrowFormatter {
	return &ArrowFormatter{
		w:         w,
		allocator: memory.NewGoAllocator(),
	}
}

func (t *ArrowFormatter) SetSchema(schema physical.Schema) {
	t.fields = schema.Fields
	t.schema = ArrowSchema(schema)
	t.builder = array.NewRecordBuilder(t.allocator, t.schema)
	t.writer = ipc.NewWriter(t.w, ipc.WithSchema(t.schema), ipc.WithAllocator(t.allocator))
}

func (t *ArrowFormatter) Write(values []octosql.Value) error {
	for i := range values {
		if err := appendValue(t.builder.Field(i), t.fields[i].Type, values[i]); err != nil {
			return errors.Wrapf(err, "couldn't append value of column %s", t.fields[i].Name)
		}
	}
	t.rows++
	if t.rows == arrowBatchSize {
		return t.flush()
	}
	return nil
}

func (t *ArrowFormatter) flush() error {
	record := t.builder.NewRecord()
	defer record.Release()
	t.rows = 0
	if err := t.writer.Write(record); err != nil {
		return errors.Wrap(err, "couldn't write arrow record")
	}
	return nil
}

func (t *ArrowFormatter) Close() error {
	if t.writer == nil {
		return nil
	}
	if t.rows > 0 {
		if err := t.flush(); err != nil {
			return err
		}
	}
	t.builder.Release()
	return t.writer.Close()
}

func ArrowSchema(schema physical.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Fields))
	for i, field := range schema.Fields {
		fields[i] = arrow.Field{
			Name:     field.Name,
			Nullable: field.Type.MayBeNull(),
			Type:     ArrowType(field.Type),
		}
	}
	return arrow.NewSchema(fields, nil)
}

// ArrowType maps a type to its arrow counterpart.
// Unions other than a nullable single type are rendered as strings.
func ArrowType(t octosql.Type) arrow.DataType {
	switch t.TypeID {
	case octosql.TypeIDNull:
		return arrow.Null
	case octosql.TypeIDInt:
		return arrow.PrimitiveTypes.Int64
	case octosql.TypeIDFloat:
		return arrow.PrimitiveTypes.Float64
	case octosql.TypeIDBoolean:
		return arrow.FixedWidthTypes.Boolean
	case octosql.TypeIDString:
		return arrow.BinaryTypes.String
	case octosql.TypeIDTime:
		return arrow.FixedWidthTypes.Timestamp_ns
	case octosql.TypeIDList:
		return arrow.ListOf(ArrowType(*t.List.Element))
	case octosql.TypeIDStruct:
		fields := make([]arrow.Field, len(t.Struct.Fields))
		for i, field := range t.Struct.Fields {
			fields[i] = arrow.Field{
				Name:     field.Name,
				Nullable: field.Type.MayBeNull(),
				Type:     ArrowType(field.Type),
			}
		}
		return arrow.StructOf(fields...)
	case octosql.TypeIDUnion:
		if nonNull := octosql.WithoutNull(t); nonNull.TypeID != octosql.TypeIDUnion {
			return ArrowType(nonNull)
		}
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(builder array.Builder, t octosql.Type, value octosql.Value) error {
	if value.TypeID == octosql.TypeIDNull {
		builder.AppendNull()
		return nil
	}
	if t.TypeID == octosql.TypeIDUnion {
		nonNull := octosql.WithoutNull(t)
		if nonNull.TypeID == octosql.TypeIDUnion {
			builder.(*array.StringBuilder).Append(value.String())
			return nil
		}
		t = nonNull
	}

	switch builder := builder.(type) {
	case *array.Int64Builder:
		builder.Append(int64(value.Int))
	case *array.Float64Builder:
		f, ok := value.AsFloat()
		if !ok {
			return errors.Errorf("expected number, got %s", value.TypeID)
		}
		builder.Append(f)
	case *array.BooleanBuilder:
		builder.Append(value.Boolean)
	case *array.StringBuilder:
		if value.TypeID == octosql.TypeIDString {
			builder.Append(value.Str)
		} else {
			builder.Append(value.String())
		}
	case *array.TimestampBuilder:
		builder.Append(arrow.Timestamp(value.Time.UnixNano()))
	case *array.ListBuilder:
		builder.Append(true)
		for i := range value.List {
			if err := appendValue(builder.ValueBuilder(), *t.List.Element, value.List[i]); err != nil {
				return err
			}
		}
	case *array.StructBuilder:
		builder.Append(true)
		for i := range value.Struct {
			if err := appendValue(builder.FieldBuilder(i), t.Struct.Fields[i].Type, value.Struct[i]); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("unsupported arrow builder %T", builder)
	}
	return nil
}

// ToArrowRecord converts a whole table into a single record.
func ToArrowRecord(table *execution.Table) (arrow.Record, error) {
	schema := physical.TableSchema(table)
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), ArrowSchema(schema))
	defer builder.Release()
	for i, column := range table.Columns() {
		field := builder.Field(i)
		for _, value := range column.Values() {
			if err := appendValue(field, column.Type, value); err != nil {
				return nil, errors.Wrapf(err, "couldn't append value of column %s", column.Name)
			}
		}
	}
	return builder.NewRecord(), nil
}
