package nodes

import (
	"github.com/pkg/errors"

	. "github.com/cube2222/octogeo/execution"
)

// TableSource produces an in-memory table, optionally projected to a subset of its columns.
type TableSource struct {
	table   *Table
	columns []string
}

func NewTableSource(table *Table, columns []string) *TableSource {
	return &TableSource{
		table:   table,
		columns: columns,
	}
}

func (s *TableSource) Run(ctx Context) (*Table, error) {
	if s.columns == nil {
		return s.table, nil
	}
	columns := make([]*Column, len(s.columns))
	for i, name := range s.columns {
		column, ok := s.table.Column(name)
		if !ok {
			return nil, errors.Errorf("source table has no column %s", name)
		}
		columns[i] = column
	}
	if len(columns) == 0 {
		return NewEmptyTable(s.table.NumRows()), nil
	}
	return NewTable(columns...)
}

// Scanner reads a table from external storage, decoding only the given columns, or all of them if nil.
type Scanner interface {
	Scan(ctx Context, columns []string) (*Table, error)
}

type ScanSource struct {
	scanner Scanner
	columns []string
}

func NewScanSource(scanner Scanner, columns []string) *ScanSource {
	return &ScanSource{
		scanner: scanner,
		columns: columns,
	}
}

func (s *ScanSource) Run(ctx Context) (*Table, error) {
	table, err := s.scanner.Scan(ctx, s.columns)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't scan source")
	}
	return table, nil
}
