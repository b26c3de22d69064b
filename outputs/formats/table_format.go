package formats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

// TablePrecision is the number of decimals floats are printed with in the table format.
const TablePrecision = 2

// TableFormatter buffers rows and renders them as one aligned text table on Close.
// Numeric columns are right-aligned, nulls are left blank.
type TableFormatter struct {
	table *tablewriter.Table
	rows  int
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	table := tablewriter.NewWriter(w)
	table.SetColWidth(24)
	table.SetRowLine(false)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	return &TableFormatter{
		table: table,
	}
}

func (t *TableFormatter) SetSchema(schema physical.Schema) {
	t.table.SetHeader(schema.FieldNames())
	alignments := make([]int, len(schema.Fields))
	for i, field := range schema.Fields {
		switch octosql.WithoutNull(field.Type).TypeID {
		case octosql.TypeIDInt, octosql.TypeIDFloat:
			alignments[i] = tablewriter.ALIGN_RIGHT
		default:
			alignments[i] = tablewriter.ALIGN_LEFT
		}
	}
	t.table.SetColumnAlignment(alignments)
}

func (t *TableFormatter) Write(values []octosql.Value) error {
	row := make([]string, len(values))
	for i, value := range values {
		row[i] = tableCell(value)
	}
	t.table.Append(row)
	t.rows++
	return nil
}

func tableCell(value octosql.Value) string {
	switch value.TypeID {
	case octosql.TypeIDNull:
		return ""
	case octosql.TypeIDString:
		return value.Str
	case octosql.TypeIDFloat:
		return strconv.FormatFloat(value.Float, 'f', TablePrecision, 64)
	}
	return value.String()
}

func (t *TableFormatter) Close() error {
	t.table.SetCaption(true, fmt.Sprintf("%d rows", t.rows))
	t.table.Render()
	return nil
}
