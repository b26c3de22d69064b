package nodes

import (
	"github.com/pkg/errors"

	. "github.com/cube2222/octogeo/execution"
)

// Map evaluates expressions over the source table. All expressions see the same input.
// With keep set, results replace same-named source columns or are appended, otherwise only the results are produced.
type Map struct {
	source Node
	exprs  []Expression
	names  []string
	keep   bool
}

func NewMap(source Node, exprs []Expression, names []string, keep bool) *Map {
	return &Map{
		source: source,
		exprs:  exprs,
		names:  names,
		keep:   keep,
	}
}

func (m *Map) Run(ctx Context) (*Table, error) {
	table, err := m.source.Run(ctx)
	if err != nil {
		return nil, err
	}

	columns := make([]*Column, len(m.exprs))
	for i, expr := range m.exprs {
		column, err := expr.Evaluate(ctx, table)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't evaluate %s", m.names[i])
		}
		columns[i] = column.Renamed(m.names[i])
	}

	if !m.keep {
		if len(columns) == 0 {
			return NewEmptyTable(table.NumRows()), nil
		}
		return NewTable(columns...)
	}

	out := table
	for _, column := range columns {
		if out, err = out.WithColumn(column); err != nil {
			return nil, errors.Wrapf(err, "couldn't add column %s", column.Name)
		}
	}
	return out, nil
}
