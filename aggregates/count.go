package aggregates

import (
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

var CountOverloads = []physical.AggregateDescriptor{
	{
		ArgumentType: octosql.Any,
		OutputType:   octosql.Int,
		Prototype:    NewCountPrototype(),
	},
}

type Count struct {
	count int
}

func NewCountPrototype() func() nodes.Aggregate {
	return func() nodes.Aggregate {
		return &Count{
			count: 0,
		}
	}
}

func (c *Count) Add(value octosql.Value) {
	c.count++
}

func (c *Count) Trigger() octosql.Value {
	return octosql.NewInt(c.count)
}
