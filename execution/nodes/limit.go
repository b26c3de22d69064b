package nodes

import (
	. "github.com/cube2222/octogeo/execution"
)

type Limit struct {
	source Node
	limit  int
}

func NewLimit(source Node, limit int) *Limit {
	return &Limit{
		source: source,
		limit:  limit,
	}
}

func (l *Limit) Run(ctx Context) (*Table, error) {
	table, err := l.source.Run(ctx)
	if err != nil {
		return nil, err
	}
	if table.NumRows() <= l.limit {
		return table, nil
	}
	return table.Slice(0, l.limit), nil
}
