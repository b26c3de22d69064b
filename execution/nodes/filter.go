package nodes

import (
	"github.com/pkg/errors"

	. "github.com/cube2222/octogeo/execution"
	"github.com/cube2222/octogeo/octosql"
)

// Filter keeps the rows for which all predicates are true. Null counts as false.
// Predicates are applied in order, each one only sees the rows the previous ones kept.
type Filter struct {
	source     Node
	predicates []Expression
}

func NewFilter(source Node, predicates ...Expression) *Filter {
	return &Filter{
		source:     source,
		predicates: predicates,
	}
}

func (f *Filter) Run(ctx Context) (*Table, error) {
	table, err := f.source.Run(ctx)
	if err != nil {
		return nil, err
	}

	for i, predicate := range f.predicates {
		selection, err := predicate.Evaluate(ctx, table)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't evaluate filter predicate %d", i)
		}
		if table, err = keepTrue(ctx, table, selection); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func keepTrue(ctx Context, table *Table, selection *Column) (*Table, error) {
	indices := make([]int, 0, table.NumRows())
	row := 0
	for _, chunk := range selection.Chunks {
		for _, value := range chunk {
			if value.TypeID == octosql.TypeIDBoolean && value.Boolean {
				indices = append(indices, row)
			}
			row++
		}
	}
	if len(indices) == table.NumRows() {
		return table, nil
	}

	return table.Take(ctx, indices)
}
