package aggregates

import (
	"github.com/cube2222/octogeo/execution/nodes"
	"github.com/cube2222/octogeo/octosql"
	"github.com/cube2222/octogeo/physical"
)

// The mean of integers is a float.
var AverageOverloads = []physical.AggregateDescriptor{
	{
		ArgumentType: octosql.Int,
		OutputType:   octosql.Nullable(octosql.Float),
		Prototype:    NewAveragePrototype(),
	},
	{
		ArgumentType: octosql.Float,
		OutputType:   octosql.Nullable(octosql.Float),
		Prototype:    NewAveragePrototype(),
	},
}

type Average struct {
	sum   float64
	count int
}

func NewAveragePrototype() func() nodes.Aggregate {
	return func() nodes.Aggregate {
		return &Average{}
	}
}

func (c *Average) Add(value octosql.Value) {
	f, _ := value.AsFloat()
	c.sum += f
	c.count++
}

func (c *Average) Trigger() octosql.Value {
	if c.count == 0 {
		return octosql.NewNull()
	}
	return octosql.NewFloat(c.sum / float64(c.count))
}
