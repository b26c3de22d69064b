package execution

import (
	"github.com/pkg/errors"

	"github.com/cube2222/octogeo/octosql"
)

// Table is an ordered set of uniquely named columns of equal length.
// Tables are never mutated after construction, every transform returns a new one.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

func NewTable(columns ...*Column) (*Table, error) {
	index := make(map[string]int, len(columns))
	rows := 0
	for i, column := range columns {
		if _, ok := index[column.Name]; ok {
			return nil, octosql.SchemaErrorf("duplicate column name: %s", column.Name)
		}
		index[column.Name] = i
		if i == 0 {
			rows = column.Len()
		} else if column.Len() != rows {
			return nil, octosql.SchemaErrorf("column %s has %d rows, expected %d", column.Name, column.Len(), rows)
		}
	}
	return &Table{
		columns: columns,
		index:   index,
		rows:    rows,
	}, nil
}

// NewEmptyTable creates a table with the given row count and no columns.
func NewEmptyTable(rows int) *Table {
	return &Table{
		index: map[string]int{},
		rows:  rows,
	}
}

func (t *Table) NumRows() int {
	return t.rows
}

func (t *Table) NumColumns() int {
	return len(t.columns)
}

func (t *Table) Columns() []*Column {
	return t.columns
}

func (t *Table) ColumnAt(i int) *Column {
	return t.columns[i]
}

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i := range t.columns {
		out[i] = t.columns[i].Name
	}
	return out
}

// Layout is the chunk layout of the first column, or the default layout of an empty table.
func (t *Table) Layout() []int {
	if len(t.columns) == 0 {
		return LayoutOf(t.rows)
	}
	return t.columns[0].Layout()
}

// WithColumn replaces the column of the same name in place, or appends it.
func (t *Table) WithColumn(column *Column) (*Table, error) {
	if (len(t.columns) > 0 || t.rows > 0) && column.Len() != t.rows {
		return nil, octosql.SchemaErrorf("column %s has %d rows, expected %d", column.Name, column.Len(), t.rows)
	}
	columns := make([]*Column, len(t.columns), len(t.columns)+1)
	copy(columns, t.columns)
	if i, ok := t.index[column.Name]; ok {
		columns[i] = column
	} else {
		columns = append(columns, column)
	}
	return NewTable(columns...)
}

func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	columns := make([]*Column, 0, len(t.columns))
	for _, column := range t.columns {
		if !drop[column.Name] {
			columns = append(columns, column)
		}
	}
	out, err := NewTable(columns...)
	if err != nil {
		panic(err) // a subset of a valid table is valid
	}
	if len(columns) == 0 {
		out.rows = t.rows
	}
	return out
}

func (t *Table) Row(i int) []octosql.Value {
	out := make([]octosql.Value, len(t.columns))
	for j := range t.columns {
		out[j] = t.columns[j].Value(i)
	}
	return out
}

// Take gathers the given rows, in the given order, into a new table.
// Columns are gathered in parallel.
func (t *Table) Take(ctx Context, indices []int) (*Table, error) {
	columns := make([]*Column, len(t.columns))
	g := ctx.Group()
	for i := range t.columns {
		i := i
		g.Go(func() error {
			values := t.columns[i].Values()
			out := make([]octosql.Value, len(indices))
			for j, index := range indices {
				out[j] = values[index]
			}
			columns[i] = NewColumn(t.columns[i].Name, t.columns[i].Type, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "couldn't gather columns")
	}
	if len(columns) == 0 {
		return NewEmptyTable(len(indices)), nil
	}
	return NewTable(columns...)
}

// Slice returns the rows [start, end).
func (t *Table) Slice(start, end int) *Table {
	if end > t.rows {
		end = t.rows
	}
	if start > end {
		start = end
	}
	columns := make([]*Column, len(t.columns))
	for i, column := range t.columns {
		var chunks [][]octosql.Value
		offset := 0
		for _, chunk := range column.Chunks {
			chunkStart, chunkEnd := offset, offset+len(chunk)
			offset = chunkEnd
			if chunkEnd <= start || chunkStart >= end {
				continue
			}
			from, to := 0, len(chunk)
			if start > chunkStart {
				from = start - chunkStart
			}
			if end < chunkEnd {
				to = end - chunkStart
			}
			chunks = append(chunks, chunk[from:to:to])
		}
		columns[i] = NewChunkedColumn(column.Name, column.Type, chunks)
	}
	if len(columns) == 0 {
		return NewEmptyTable(end - start)
	}
	out, err := NewTable(columns...)
	if err != nil {
		panic(err)
	}
	return out
}
